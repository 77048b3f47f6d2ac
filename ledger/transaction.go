package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// TxType identifies the kind of state change a transaction carries.
type TxType string

const (
	TxGenesis           TxType = "GENESIS"
	TxRegisterUser      TxType = "REGISTER_USER"
	TxMakeReservation   TxType = "MAKE_RESERVATION"
	TxCancelReservation TxType = "CANCEL_RESERVATION"
	TxMiningReward      TxType = "MINING_REWARD"
)

// Payload is the tagged variant carried by a transaction. One concrete
// struct exists per transaction type, so a payload that does not match
// its declared type cannot be constructed.
type Payload interface {
	TxType() TxType
}

// GenesisPayload seeds the first block of the chain.
type GenesisPayload struct {
	Message string `json:"message"`
}

func (GenesisPayload) TxType() TxType { return TxGenesis }

// RegisterUserPayload records a new user registration.
type RegisterUserPayload struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	LocationCode string `json:"location_code"`
}

func (RegisterUserPayload) TxType() TxType { return TxRegisterUser }

// ReservationPayload records a room reservation request. Times are ISO 8601.
type ReservationPayload struct {
	ReservationID   string `json:"reservation_id"`
	RoomNumber      string `json:"room_number"`
	LocationCode    string `json:"location_code"`
	Floor           string `json:"floor"`
	UserID          string `json:"user_id"`
	Role            string `json:"role"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
}

func (ReservationPayload) TxType() TxType { return TxMakeReservation }

// CancellationPayload records the cancellation of an existing reservation.
type CancellationPayload struct {
	ReservationID  string `json:"reservation_id"`
	OriginalUserID string `json:"original_user_id"`
	CancelledBy    string `json:"cancelled_by"`
	RoomNumber     string `json:"room_number"`
	LocationCode   string `json:"location_code"`
}

func (CancellationPayload) TxType() TxType { return TxCancelReservation }

// RewardPayload credits the miner of a block.
type RewardPayload struct {
	RewardAmount int `json:"reward_amount"`
}

func (RewardPayload) TxType() TxType { return TxMiningReward }

// Transaction is an immutable unit of intent. The Signature is a
// deterministic content hash acting as the transaction's integrity seal,
// not an authentication proof.
type Transaction struct {
	ID        string  `json:"id"`
	Timestamp int64   `json:"timestamp"`
	Type      TxType  `json:"type"`
	Payload   Payload `json:"data"`
	UserID    string  `json:"user_id"`
	Signature string  `json:"signature"`
}

// NewTransaction constructs a transaction with a fresh id, the current
// timestamp, and a content hash over the canonical payload encoding.
// The transaction type is derived from the payload variant.
func NewTransaction(payload Payload, userID string) (Transaction, error) {
	tx := Transaction{
		ID:        uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Type:      payload.TxType(),
		Payload:   payload,
		UserID:    userID,
	}
	sig, err := tx.computeSignature()
	if err != nil {
		return Transaction{}, err
	}
	tx.Signature = sig
	return tx, nil
}

// computeSignature hashes the transaction content. The payload is
// canonicalized first so the hash is reproducible regardless of field
// ordering in any particular encoder.
func (tx Transaction) computeSignature() (string, error) {
	canonical, err := canonicalJSON(tx.Payload)
	if err != nil {
		return "", fmt.Errorf("canonicalizing payload: %w", err)
	}
	content := tx.ID + strconv.FormatInt(tx.Timestamp, 10) + string(tx.Type) + canonical + tx.UserID
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:]), nil
}

// VerifySignature recomputes the content hash and compares it against
// the stored signature.
func (tx Transaction) VerifySignature() bool {
	sig, err := tx.computeSignature()
	if err != nil {
		return false
	}
	return sig == tx.Signature
}

// canonicalJSON encodes a payload with object keys sorted
// deterministically, by round-tripping through a generic value.
func canonicalJSON(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	sorted, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(sorted), nil
}

// UnmarshalJSON decodes a transaction, dispatching the payload variant
// on the declared type.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        string          `json:"id"`
		Timestamp int64           `json:"timestamp"`
		Type      TxType          `json:"type"`
		Data      json.RawMessage `json:"data"`
		UserID    string          `json:"user_id"`
		Signature string          `json:"signature"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	payload, err := decodePayload(wire.Type, wire.Data)
	if err != nil {
		return err
	}

	tx.ID = wire.ID
	tx.Timestamp = wire.Timestamp
	tx.Type = wire.Type
	tx.Payload = payload
	tx.UserID = wire.UserID
	tx.Signature = wire.Signature
	return nil
}

func decodePayload(txType TxType, data json.RawMessage) (Payload, error) {
	switch txType {
	case TxGenesis:
		var p GenesisPayload
		return p, json.Unmarshal(data, &p)
	case TxRegisterUser:
		var p RegisterUserPayload
		return p, json.Unmarshal(data, &p)
	case TxMakeReservation:
		var p ReservationPayload
		return p, json.Unmarshal(data, &p)
	case TxCancelReservation:
		var p CancellationPayload
		return p, json.Unmarshal(data, &p)
	case TxMiningReward:
		var p RewardPayload
		return p, json.Unmarshal(data, &p)
	default:
		return nil, fmt.Errorf("unknown transaction type %q", txType)
	}
}
