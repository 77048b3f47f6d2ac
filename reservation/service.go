package reservation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campuschain/room-reservation/ledger"

	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// TimeLayout is the wire format for reservation times.
const TimeLayout = "2006-01-02 15:04"

const (
	// DefaultBatchSize is the pending-queue length that triggers an
	// automatic mine after a transaction-submitting operation.
	DefaultBatchSize = 3

	// Operating hours: reservations start at or after 06:00 and must
	// end by 23:00 the same day.
	openingHour = 6
	closingHour = 23

	rewardAddress = "system"
)

// allowedDurations are the accepted reservation lengths in minutes.
var allowedDurations = map[int]bool{60: true, 90: true, 120: true}

// Service owns the reservation domain state built on top of the ledger:
// the user registry, room catalog, and reservation lifecycle. All
// state, including the ledger, is mutated under one lock spanning each
// full read-check-write sequence, so concurrent callers cannot race a
// conflict check against stale state.
type Service struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	users     map[string]User
	resList   []*Reservation
	rooms     []Room
	batchSize int
	store     Store
	logger    cmtlog.Logger
}

// NewService creates a reservation service over the given ledger. store
// may be nil for in-memory-only operation.
func NewService(led *ledger.Ledger, store Store, batchSize int, logger cmtlog.Logger) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		ledger:    led,
		users:     make(map[string]User),
		rooms:     generateRooms(),
		batchSize: batchSize,
		store:     store,
		logger:    logger,
	}
}

// Restore loads persisted state from the store, if any. A missing or
// failing snapshot is logged and the service continues with fresh
// state. A default admin professor is seeded when no users exist.
func (s *Service) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		snapshot, err := s.store.LoadSnapshot()
		switch {
		case err != nil:
			s.logger.Error("Failed to load snapshot, starting fresh", "err", err)
		case snapshot != nil:
			if err := s.ledger.Restore(snapshot.Chain, snapshot.Pending); err != nil {
				s.logger.Error("Failed to restore chain from snapshot", "err", err)
				break
			}
			s.resList = snapshot.Reservations
			if snapshot.Users != nil {
				s.users = snapshot.Users
			}
			s.logger.Info("Restored state from snapshot",
				"blocks", len(snapshot.Chain),
				"pending", len(snapshot.Pending),
				"reservations", len(snapshot.Reservations),
				"users", len(snapshot.Users))
		}
	}

	if len(s.users) == 0 {
		s.users["admin"] = User{
			ID:           "admin",
			Name:         "System Admin",
			Email:        "admin@university.edu",
			Role:         RoleProfessor,
			LocationCode: "33",
		}
	}
}

// RegisterUser submits a REGISTER_USER transaction and updates the
// in-memory registry immediately, without waiting for mining.
func (s *Service) RegisterUser(id, name, email string, role Role, locationCode string) (*User, *ServiceError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validRole(role) {
		return nil, validationError("unrecognized role",
			fmt.Sprintf("role must be %q or %q, got %q", RoleStudent, RoleProfessor, role))
	}

	tx, err := ledger.NewTransaction(ledger.RegisterUserPayload{
		UserID:       id,
		Name:         name,
		Email:        email,
		Role:         string(role),
		LocationCode: locationCode,
	}, id)
	if err != nil {
		return nil, internalError("failed to create transaction", err.Error())
	}

	user := User{ID: id, Name: name, Email: email, Role: role, LocationCode: locationCode}
	s.ledger.AddTransaction(tx)
	s.users[id] = user

	s.logger.Info("User registered", "user_id", id, "role", role)
	s.afterSubmitLocked()

	return &user, nil
}

// MakeReservation validates the requested window and duration, checks
// for conflicts against active reservations only (pending ones are
// invisible, modeling ledger latency), then submits a MAKE_RESERVATION
// transaction and records the reservation as pending.
func (s *Service) MakeReservation(roomNumber, locationCode, userID, startTime string, durationMinutes int) (*Reservation, *ServiceError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start, err := time.Parse(TimeLayout, startTime)
	if err != nil {
		return nil, validationError("invalid start time",
			fmt.Sprintf("start time must match %q: %v", TimeLayout, err))
	}

	if !allowedDurations[durationMinutes] {
		return nil, validationError("invalid duration",
			"duration must be 60, 90 or 120 minutes")
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	if svcErr := checkOperatingHours(start, end); svcErr != nil {
		return nil, svcErr
	}

	for _, r := range s.resList {
		if r.Status != StatusActive {
			continue
		}
		if r.RoomNumber == roomNumber && r.LocationCode == locationCode && r.overlaps(start, end) {
			return nil, conflictError(
				fmt.Sprintf("room %s in block %s is already reserved for the requested time", roomNumber, locationCode),
				fmt.Sprintf("conflicting reservation %s from %s to %s",
					r.ID, r.StartTime.Format(TimeLayout), r.EndTime.Format(TimeLayout)))
		}
	}

	role := s.roleOf(userID)
	reservationID := uuid.NewString()
	floor := ""
	if len(roomNumber) > 0 {
		floor = roomNumber[:1]
	}

	tx, err := ledger.NewTransaction(ledger.ReservationPayload{
		ReservationID:   reservationID,
		RoomNumber:      roomNumber,
		LocationCode:    locationCode,
		Floor:           floor,
		UserID:          userID,
		Role:            string(role),
		StartTime:       start.Format(time.RFC3339),
		EndTime:         end.Format(time.RFC3339),
		DurationMinutes: durationMinutes,
		Status:          string(StatusActive),
	}, userID)
	if err != nil {
		return nil, internalError("failed to create transaction", err.Error())
	}

	reservation := &Reservation{
		ID:              reservationID,
		RoomNumber:      roomNumber,
		LocationCode:    locationCode,
		Floor:           floor,
		UserID:          userID,
		Role:            role,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: durationMinutes,
		Status:          StatusPending,
		CreatedAt:       time.Now(),
	}

	s.ledger.AddTransaction(tx)
	s.resList = append(s.resList, reservation)

	s.logger.Info("Reservation submitted",
		"reservation_id", reservationID, "room", roomNumber, "block", locationCode, "user_id", userID)
	s.afterSubmitLocked()

	return reservation, nil
}

// CancelReservation submits a CANCEL_RESERVATION transaction and marks
// the reservation cancelled immediately. Students may only cancel their
// own reservations; any other role may cancel any reservation.
func (s *Service) CancelReservation(reservationID, cancelledBy string) (*Reservation, *ServiceError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reservation *Reservation
	for _, r := range s.resList {
		if r.ID == reservationID {
			reservation = r
			break
		}
	}
	if reservation == nil {
		return nil, notFoundError("reservation not found",
			fmt.Sprintf("no reservation with id %s", reservationID))
	}

	if s.roleOf(cancelledBy) == RoleStudent && reservation.UserID != cancelledBy {
		return nil, unauthorizedError("students can only cancel their own reservations",
			fmt.Sprintf("reservation %s belongs to %s", reservationID, reservation.UserID))
	}

	tx, err := ledger.NewTransaction(ledger.CancellationPayload{
		ReservationID:  reservationID,
		OriginalUserID: reservation.UserID,
		CancelledBy:    cancelledBy,
		RoomNumber:     reservation.RoomNumber,
		LocationCode:   reservation.LocationCode,
	}, cancelledBy)
	if err != nil {
		return nil, internalError("failed to create transaction", err.Error())
	}

	s.ledger.AddTransaction(tx)
	reservation.Status = StatusCancelled
	reservation.CancelledBy = cancelledBy

	s.logger.Info("Reservation cancelled", "reservation_id", reservationID, "cancelled_by", cancelledBy)
	s.afterSubmitLocked()

	return reservation, nil
}

// AvailableRooms returns the catalog rooms without an active
// reservation overlapping [start, end).
func (s *Service) AvailableRooms(startTime, endTime string) ([]Room, *ServiceError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start, err := time.Parse(TimeLayout, startTime)
	if err != nil {
		return nil, validationError("invalid start time",
			fmt.Sprintf("start time must match %q: %v", TimeLayout, err))
	}
	end, err := time.Parse(TimeLayout, endTime)
	if err != nil {
		return nil, validationError("invalid end time",
			fmt.Sprintf("end time must match %q: %v", TimeLayout, err))
	}

	available := make([]Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		taken := false
		for _, r := range s.resList {
			if r.Status != StatusActive {
				continue
			}
			if r.RoomNumber == room.Number && r.LocationCode == room.LocationCode && r.overlaps(start, end) {
				taken = true
				break
			}
		}
		if !taken {
			available = append(available, room)
		}
	}
	return available, nil
}

// ReservationsByUser returns copies of all reservations created by the
// given user.
func (s *Service) ReservationsByUser(userID string) []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Reservation
	for _, r := range s.resList {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out
}

// AllReservations returns copies of every reservation, in creation order.
func (s *Service) AllReservations() []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Reservation, len(s.resList))
	for i, r := range s.resList {
		out[i] = *r
	}
	return out
}

// GetUser looks up a registered user.
func (s *Service) GetUser(userID string) (*User, *ServiceError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, notFoundError("user not found", fmt.Sprintf("no user with id %s", userID))
	}
	return &user, nil
}

// MineNow manually mines the pending queue. Returns nil when there is
// nothing to mine.
func (s *Service) MineNow() (*ledger.Block, *ServiceError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mineLocked()
}

// ValidateChain runs a full integrity check over the ledger. A failure
// is reported, never auto-repaired.
func (s *Service) ValidateChain() *ServiceError {
	if err := s.ledger.Validate(); err != nil {
		return &ServiceError{Code: ErrIntegrity, Message: "chain validation failed", Detail: err.Error()}
	}
	return nil
}

// Stats returns ledger statistics.
func (s *Service) Stats() ledger.Stats {
	return s.ledger.Stats()
}

// ChainData exports the full chain for visualization.
func (s *Service) ChainData() []ledger.BlockData {
	return s.ledger.ChainData()
}

// PendingTransactions returns the not-yet-mined transactions.
func (s *Service) PendingTransactions() []ledger.Transaction {
	return s.ledger.Pending()
}

// roleOf returns the role of a registered user, defaulting to student
// for unknown ids.
func (s *Service) roleOf(userID string) Role {
	if user, ok := s.users[userID]; ok {
		return user.Role
	}
	return RoleStudent
}

// afterSubmitLocked applies the auto-mine policy and persists state.
// Callers must hold s.mu.
func (s *Service) afterSubmitLocked() {
	if s.ledger.PendingCount() >= s.batchSize {
		if _, svcErr := s.mineLocked(); svcErr != nil {
			s.logger.Error("Auto-mine failed", "err", svcErr)
			return
		}
		return
	}
	s.persistLocked()
}

// mineLocked mines the pending queue and promotes the reservations
// whose MAKE_RESERVATION transactions are inside the mined block.
// Callers must hold s.mu.
func (s *Service) mineLocked() (*ledger.Block, *ServiceError) {
	block, err := s.ledger.MinePending(rewardAddress)
	if err != nil {
		return nil, internalError("mining failed", err.Error())
	}
	if block == nil {
		return nil, nil
	}

	s.logger.Info("New block mined", "index", block.Index, "transactions", len(block.Transactions))
	s.commitMinedBlockLocked(block)
	s.persistLocked()
	return block, nil
}

// commitMinedBlockLocked promotes to active every pending reservation
// whose transaction was sealed in the given block. Promotion is scoped
// to the block's own transactions; reservations still waiting in the
// pending queue stay pending.
func (s *Service) commitMinedBlockLocked(block *ledger.Block) {
	for _, tx := range block.Transactions {
		if tx.Type != ledger.TxMakeReservation {
			continue
		}
		payload, ok := tx.Payload.(ledger.ReservationPayload)
		if !ok {
			continue
		}
		for _, r := range s.resList {
			if r.ID == payload.ReservationID && r.Status == StatusPending {
				r.Status = StatusActive
				s.logger.Info("Reservation committed", "reservation_id", r.ID, "block", block.Index)
			}
		}
	}
}

// persistLocked saves a snapshot while still holding the write lock, so
// the persisted view never drifts from memory. Persistence failures
// degrade to in-memory-only operation.
func (s *Service) persistLocked() {
	if s.store == nil {
		return
	}
	snapshot := &Snapshot{
		Version:      SnapshotVersion,
		Chain:        s.ledger.ChainData(),
		Pending:      s.ledger.Pending(),
		Reservations: s.resList,
		Users:        s.users,
		Difficulty:   s.ledger.Difficulty(),
		Reward:       s.ledger.Reward(),
	}
	if err := s.store.SaveSnapshot(snapshot); err != nil {
		s.logger.Error("Failed to save snapshot, continuing in memory", "err", err)
	}
}

// checkOperatingHours enforces the reservation window: start hour in
// [6, 23) and the end no later than 23:00 on the same day.
func checkOperatingHours(start, end time.Time) *ServiceError {
	if start.Hour() < openingHour || start.Hour() >= closingHour {
		return validationError("outside operating hours",
			"reservations are only allowed between 06:00 and 23:00")
	}
	cutoff := time.Date(start.Year(), start.Month(), start.Day(), closingHour, 0, 0, 0, start.Location())
	if end.After(cutoff) {
		return validationError("outside operating hours",
			"reservations are only allowed between 06:00 and 23:00")
	}
	return nil
}
