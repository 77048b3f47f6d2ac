package reservation

import (
	"fmt"
	"testing"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuschain/room-reservation/ledger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	led, err := ledger.New(ledger.DefaultDifficulty, ledger.DefaultReward)
	require.NoError(t, err)
	return NewService(led, nil, DefaultBatchSize, cmtlog.NewNopLogger())
}

func registerTestUsers(t *testing.T, s *Service) {
	t.Helper()
	_, svcErr := s.RegisterUser("student1", "Student One", "student1@university.edu", RoleStudent, "33")
	require.Nil(t, svcErr)
	_, svcErr = s.RegisterUser("prof1", "Professor One", "prof1@university.edu", RoleProfessor, "33")
	require.Nil(t, svcErr)
}

// fillBatch submits registration transactions until the pending queue
// reaches the auto-mine threshold.
func fillBatch(t *testing.T, s *Service) {
	t.Helper()
	for i := 0; s.ledger.PendingCount() != 0; i++ {
		id := fmt.Sprintf("filler%d", i)
		_, svcErr := s.RegisterUser(id, "Filler", id+"@university.edu", RoleStudent, "34")
		require.Nil(t, svcErr)
	}
}

func TestRegisterUserRejectsUnknownRole(t *testing.T) {
	s := newTestService(t)

	_, svcErr := s.RegisterUser("u1", "User", "u1@university.edu", Role("janitor"), "33")
	require.NotNil(t, svcErr)
	assert.Equal(t, ErrValidation, svcErr.Code)
}

func TestRegisterUserIsImmediate(t *testing.T) {
	s := newTestService(t)

	_, svcErr := s.RegisterUser("student1", "Student One", "student1@university.edu", RoleStudent, "33")
	require.Nil(t, svcErr)

	// Visible in the registry before any block is mined.
	user, svcErr := s.GetUser("student1")
	require.Nil(t, svcErr)
	assert.Equal(t, RoleStudent, user.Role)
	assert.Equal(t, 1, s.ledger.PendingCount())
}

func TestDurationValidation(t *testing.T) {
	s := newTestService(t)

	for _, minutes := range []int{60, 90, 120} {
		_, svcErr := s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", minutes)
		assert.Nil(t, svcErr, "duration %d should be accepted", minutes)
	}
	for _, minutes := range []int{30, 45, 150, 180} {
		_, svcErr := s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", minutes)
		require.NotNil(t, svcErr, "duration %d should be rejected", minutes)
		assert.Equal(t, ErrValidation, svcErr.Code)
	}
}

func TestOperatingHoursValidation(t *testing.T) {
	s := newTestService(t)

	// Start before opening.
	_, svcErr := s.MakeReservation("100", "33", "student1", "2024-12-20 05:00", 60)
	require.NotNil(t, svcErr)
	assert.Equal(t, ErrValidation, svcErr.Code)

	// Start at the closing hour.
	_, svcErr = s.MakeReservation("100", "33", "student1", "2024-12-20 23:00", 60)
	require.NotNil(t, svcErr)
	assert.Equal(t, ErrValidation, svcErr.Code)

	// Would end past 23:00.
	_, svcErr = s.MakeReservation("100", "33", "student1", "2024-12-20 22:00", 120)
	require.NotNil(t, svcErr)
	assert.Equal(t, ErrValidation, svcErr.Code)

	// Ends exactly at 23:00.
	_, svcErr = s.MakeReservation("100", "33", "student1", "2024-12-20 22:00", 60)
	assert.Nil(t, svcErr)
}

func TestInvalidTimeFormat(t *testing.T) {
	s := newTestService(t)

	_, svcErr := s.MakeReservation("100", "33", "student1", "tomorrow-ish", 60)
	require.NotNil(t, svcErr)
	assert.Equal(t, ErrValidation, svcErr.Code)
}

func TestAutoMinePromotesReservationInBlock(t *testing.T) {
	s := newTestService(t)
	registerTestUsers(t, s)
	fillBatch(t, s)
	blocksBefore := s.ledger.Length()

	res, svcErr := s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", 60)
	require.Nil(t, svcErr)
	assert.Equal(t, StatusPending, res.Status)

	// Two more submissions reach the batch threshold of 3 and fire the
	// auto-mine.
	_, svcErr = s.RegisterUser("student2", "Student Two", "student2@university.edu", RoleStudent, "34")
	require.Nil(t, svcErr)
	_, svcErr = s.RegisterUser("student3", "Student Three", "student3@university.edu", RoleStudent, "35")
	require.Nil(t, svcErr)

	assert.Equal(t, blocksBefore+1, s.ledger.Length())
	assert.Equal(t, 0, s.ledger.PendingCount())

	all := s.AllReservations()
	require.Len(t, all, 1)
	assert.Equal(t, StatusActive, all[0].Status)
	assert.NoError(t, s.ledger.Validate())
}

func TestPendingReservationsInvisibleToConflictCheck(t *testing.T) {
	s := newTestService(t)
	registerTestUsers(t, s)
	fillBatch(t, s)

	_, svcErr := s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", 60)
	require.Nil(t, svcErr)

	// The first reservation is still pending, so an identical request
	// passes the conflict check.
	_, svcErr = s.MakeReservation("100", "33", "prof1", "2024-12-20 10:00", 60)
	assert.Nil(t, svcErr)
}

func TestConflictDetectionAgainstActiveReservations(t *testing.T) {
	s := newTestService(t)
	registerTestUsers(t, s)
	fillBatch(t, s)

	_, svcErr := s.MakeReservation("300", "33", "student1", "2024-12-22 14:00", 90)
	require.Nil(t, svcErr)
	fillBatch(t, s) // commit to active via mining

	require.Equal(t, StatusActive, s.AllReservations()[0].Status)

	// Overlapping request is rejected.
	_, svcErr = s.MakeReservation("300", "33", "prof1", "2024-12-22 14:30", 60)
	require.NotNil(t, svcErr)
	assert.Equal(t, ErrConflict, svcErr.Code)

	// Adjacent request (starts exactly when the first ends) succeeds.
	_, svcErr = s.MakeReservation("300", "33", "prof1", "2024-12-22 15:30", 60)
	assert.Nil(t, svcErr)

	// Same time, different room is fine.
	_, svcErr = s.MakeReservation("301", "33", "prof1", "2024-12-22 14:30", 60)
	assert.Nil(t, svcErr)

	// Same time, same room number in another location is fine.
	_, svcErr = s.MakeReservation("300", "34", "prof1", "2024-12-22 14:30", 60)
	assert.Nil(t, svcErr)
}

func TestCancelAuthorization(t *testing.T) {
	s := newTestService(t)
	registerTestUsers(t, s)
	_, svcErr := s.RegisterUser("student2", "Student Two", "student2@university.edu", RoleStudent, "34")
	require.Nil(t, svcErr)
	fillBatch(t, s)

	res, svcErr := s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", 60)
	require.Nil(t, svcErr)

	// Another student cannot cancel it.
	_, svcErr = s.CancelReservation(res.ID, "student2")
	require.NotNil(t, svcErr)
	assert.Equal(t, ErrUnauthorized, svcErr.Code)

	// A professor can cancel any reservation.
	cancelled, svcErr := s.CancelReservation(res.ID, "prof1")
	require.Nil(t, svcErr)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, "prof1", cancelled.CancelledBy)
}

func TestCancelOwnReservation(t *testing.T) {
	s := newTestService(t)
	registerTestUsers(t, s)
	fillBatch(t, s)

	res, svcErr := s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", 60)
	require.Nil(t, svcErr)

	cancelled, svcErr := s.CancelReservation(res.ID, "student1")
	require.Nil(t, svcErr)
	assert.Equal(t, StatusCancelled, cancelled.Status)
}

func TestCancelUnknownReservation(t *testing.T) {
	s := newTestService(t)

	_, svcErr := s.CancelReservation("no-such-id", "student1")
	require.NotNil(t, svcErr)
	assert.Equal(t, ErrNotFound, svcErr.Code)
}

func TestCancelledReservationIsNotPromoted(t *testing.T) {
	s := newTestService(t)
	registerTestUsers(t, s)
	fillBatch(t, s)

	res, svcErr := s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", 60)
	require.Nil(t, svcErr)

	_, svcErr = s.CancelReservation(res.ID, "student1")
	require.Nil(t, svcErr)

	fillBatch(t, s)
	assert.Equal(t, StatusCancelled, s.AllReservations()[0].Status)
}

func TestAvailableRooms(t *testing.T) {
	s := newTestService(t)
	registerTestUsers(t, s)
	fillBatch(t, s)

	total := len(generateRooms())

	rooms, svcErr := s.AvailableRooms("2024-12-20 10:00", "2024-12-20 11:00")
	require.Nil(t, svcErr)
	assert.Len(t, rooms, total)

	_, svcErr = s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", 60)
	require.Nil(t, svcErr)
	fillBatch(t, s) // make it active

	rooms, svcErr = s.AvailableRooms("2024-12-20 10:00", "2024-12-20 11:00")
	require.Nil(t, svcErr)
	assert.Len(t, rooms, total-1)
	for _, room := range rooms {
		assert.False(t, room.Number == "100" && room.LocationCode == "33")
	}

	// The adjacent window sees everything free again.
	rooms, svcErr = s.AvailableRooms("2024-12-20 11:00", "2024-12-20 12:00")
	require.Nil(t, svcErr)
	assert.Len(t, rooms, total)
}

func TestReservationsByUser(t *testing.T) {
	s := newTestService(t)
	registerTestUsers(t, s)
	fillBatch(t, s)

	_, svcErr := s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", 60)
	require.Nil(t, svcErr)
	_, svcErr = s.MakeReservation("200", "34", "prof1", "2024-12-20 10:00", 60)
	require.Nil(t, svcErr)

	mine := s.ReservationsByUser("student1")
	require.Len(t, mine, 1)
	assert.Equal(t, "100", mine[0].RoomNumber)

	assert.Empty(t, s.ReservationsByUser("nobody"))
	assert.Len(t, s.AllReservations(), 2)
}

func TestMineNow(t *testing.T) {
	s := newTestService(t)

	// Nothing pending.
	block, svcErr := s.MineNow()
	require.Nil(t, svcErr)
	assert.Nil(t, block)

	_, svcErr = s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", 60)
	require.Nil(t, svcErr)

	block, svcErr = s.MineNow()
	require.Nil(t, svcErr)
	require.NotNil(t, block)
	assert.Equal(t, StatusActive, s.AllReservations()[0].Status)
	assert.Nil(t, s.ValidateChain())
}

func TestRestoreSeedsDefaultAdmin(t *testing.T) {
	s := newTestService(t)
	s.Restore()

	admin, svcErr := s.GetUser("admin")
	require.Nil(t, svcErr)
	assert.Equal(t, RoleProfessor, admin.Role)
}

func TestNetworkInfo(t *testing.T) {
	s := newTestService(t)
	registerTestUsers(t, s)
	fillBatch(t, s)

	_, svcErr := s.MakeReservation("100", "33", "student1", "2024-12-20 10:00", 60)
	require.Nil(t, svcErr)
	fillBatch(t, s)

	info := s.NetworkInfo()
	require.Len(t, info.Peers, 3)
	assert.Equal(t, 3, info.TotalPeers)
	assert.Equal(t, 45, info.TotalRooms)
	assert.Equal(t, 1, info.TotalReservations)

	byLocation := make(map[string]PeerInfo)
	for _, peer := range info.Peers {
		assert.Equal(t, "connected", peer.Status)
		assert.Equal(t, 15, peer.Rooms)
		byLocation[peer.LocationCode] = peer
	}
	assert.Equal(t, 1, byLocation["33"].ActiveReservations)
	assert.Equal(t, 0, byLocation["34"].ActiveReservations)
}
