package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionDerivesTypeFromPayload(t *testing.T) {
	tx, err := NewTransaction(RegisterUserPayload{
		UserID: "student1",
		Name:   "Student One",
		Email:  "student1@university.edu",
		Role:   "student",
	}, "student1")
	require.NoError(t, err)

	assert.Equal(t, TxRegisterUser, tx.Type)
	assert.NotEmpty(t, tx.ID)
	assert.NotEmpty(t, tx.Signature)
	assert.True(t, tx.VerifySignature())
}

func TestSignatureIsDeterministic(t *testing.T) {
	tx, err := NewTransaction(GenesisPayload{Message: "hello"}, "system")
	require.NoError(t, err)

	recomputed, err := tx.computeSignature()
	require.NoError(t, err)
	assert.Equal(t, tx.Signature, recomputed)
}

func TestSignatureDetectsTampering(t *testing.T) {
	tx, err := NewTransaction(RewardPayload{RewardAmount: 10}, "system")
	require.NoError(t, err)

	tx.Payload = RewardPayload{RewardAmount: 9999}
	assert.False(t, tx.VerifySignature())
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	canonical, err := canonicalJSON(CancellationPayload{
		ReservationID:  "r1",
		OriginalUserID: "student1",
		CancelledBy:    "prof1",
		RoomNumber:     "100",
		LocationCode:   "33",
	})
	require.NoError(t, err)

	// Keys of the canonical form come out sorted regardless of struct
	// field order.
	assert.Equal(t,
		`{"cancelled_by":"prof1","location_code":"33","original_user_id":"student1","reservation_id":"r1","room_number":"100"}`,
		canonical)
}

func TestTransactionJSONRoundTrip(t *testing.T) {
	tx, err := NewTransaction(ReservationPayload{
		ReservationID:   "r1",
		RoomNumber:      "100",
		LocationCode:    "33",
		Floor:           "1",
		UserID:          "student1",
		Role:            "student",
		StartTime:       "2024-12-20T10:00:00Z",
		EndTime:         "2024-12-20T11:00:00Z",
		DurationMinutes: 60,
		Status:          "active",
	}, "student1")
	require.NoError(t, err)

	raw, err := json.Marshal(tx)
	require.NoError(t, err)

	var decoded Transaction
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, tx, decoded)
	assert.True(t, decoded.VerifySignature())

	payload, ok := decoded.Payload.(ReservationPayload)
	require.True(t, ok)
	assert.Equal(t, "100", payload.RoomNumber)
	assert.Equal(t, 60, payload.DurationMinutes)
}

func TestUnmarshalRejectsUnknownType(t *testing.T) {
	var tx Transaction
	err := json.Unmarshal([]byte(`{"id":"x","type":"TELEPORT","data":{}}`), &tx)
	assert.Error(t, err)
}
