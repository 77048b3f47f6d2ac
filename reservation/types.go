package reservation

import "time"

// Role is the type of a registered user.
type Role string

const (
	RoleStudent   Role = "student"
	RoleProfessor Role = "professor"
)

// validRole reports whether the role is a recognized value.
func validRole(r Role) bool {
	return r == RoleStudent || r == RoleProfessor
}

// Status is the lifecycle state of a reservation. Pending is initial;
// pending transitions to active when the enclosing block is mined, and
// to cancelled on explicit cancellation. Active and cancelled are
// terminal; reservations are never deleted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// User is an entry in the in-memory user registry. Registration is
// applied immediately on transaction submission, not gated on mining.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	LocationCode string `json:"location_code"`
}

// Reservation is the domain projection of a MAKE_RESERVATION
// transaction. It is created pending when the transaction is submitted
// and becomes active only once that transaction is mined.
type Reservation struct {
	ID              string    `json:"id"`
	RoomNumber      string    `json:"room_number"`
	LocationCode    string    `json:"location_code"`
	Floor           string    `json:"floor"`
	UserID          string    `json:"user_id"`
	Role            Role      `json:"role"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	CancelledBy     string    `json:"cancelled_by,omitempty"`
}

// overlaps reports whether the reservation's interval intersects
// [start, end). Touching endpoints do not conflict.
func (r *Reservation) overlaps(start, end time.Time) bool {
	return start.Before(r.EndTime) && end.After(r.StartTime)
}
