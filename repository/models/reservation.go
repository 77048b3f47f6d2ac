package models

import "time"

// Reservation mirrors a ledger-backed reservation into the relational
// store. Rows are never deleted; status transitions follow the
// pending/active/cancelled lifecycle.
type Reservation struct {
	ID              string    `gorm:"column:reservation_id;primaryKey;type:varchar(50)"`
	RoomNumber      string    `gorm:"column:room_number;type:varchar(10);index;not null"`
	LocationCode    string    `gorm:"column:location_code;type:varchar(10);index;not null"`
	Floor           string    `gorm:"column:floor;type:varchar(5)"`
	UserID          string    `gorm:"column:user_id;type:varchar(50);index;not null"`
	User            *User     `gorm:"foreignKey:UserID"`
	UserRole        string    `gorm:"column:user_role;type:varchar(20)"`
	StartTime       time.Time `gorm:"column:start_time;not null"`
	EndTime         time.Time `gorm:"column:end_time;not null"`
	DurationMinutes int       `gorm:"column:duration_minutes;not null"`
	Status          string    `gorm:"column:status;type:varchar(20);default:'pending'"`
	CancelledBy     string    `gorm:"column:cancelled_by;type:varchar(50)"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
