// Package repository is the persistence collaborator for the
// reservation service: versioned ledger snapshots in Badger plus a
// relational mirror of users and reservations in Postgres. Both are
// best-effort; the service keeps running in memory when either is
// unavailable.
package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/campuschain/room-reservation/repository/models"
	"github.com/campuschain/room-reservation/reservation"
)

// PostgreSQL error codes as constants
const (
	PgErrForeignKeyViolation = "23503" // foreign_key_violation
	PgErrUniqueViolation     = "23505" // unique_violation
	PgErrCheckViolation      = "23514" // check_violation
	PgErrNotNullViolation    = "23502" // not_null_violation

	PgErrConnectionException = "08000" // connection_exception
	PgErrConnectionFailure   = "08006" // connection_failure
)

const snapshotKey = "snapshot/state"

// RepositoryError represents an error in the repository layer (db/kv).
type RepositoryError struct {
	Code    string
	Message string
	Detail  string
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
}

// Repository implements reservation.Store.
type Repository struct {
	db     *gorm.DB
	kv     *badger.DB
	logger cmtlog.Logger
}

// NewRepository creates a repository with no connections yet; call
// ConnectDB and OpenKV before use.
func NewRepository(logger cmtlog.Logger) *Repository {
	return &Repository{logger: logger}
}

// ConnectDB connects to Postgres, retrying a few times so the service
// survives a database that comes up after it.
func (r *Repository) ConnectDB(dsn string) {
	for i := range 10 {
		log.Printf("Connection attempt %d...\n", i+1)
		db, err := gorm.Open(postgres.Open(dsn))
		if err != nil {
			log.Printf("Connection attempt %d, failed: %v\n", i+1, err)
			time.Sleep(2 * time.Second)
			continue
		}
		r.db = db
		log.Println("Connected to Postgres")
		return
	}
	r.logger.Error("Could not connect to Postgres, relational mirror disabled", "dsn", dsn)
}

// Migrate creates the relational mirror tables.
func (r *Repository) Migrate() {
	if r.db == nil {
		return
	}
	err := r.db.AutoMigrate(
		&models.User{},
		&models.Reservation{},
	)
	if err != nil {
		r.logger.Error("Database migration failed", "err", err)
		return
	}
	log.Println("Database migration completed successfully")
}

// OpenKV opens the Badger snapshot store at the given directory.
func (r *Repository) OpenKV(path string) error {
	kv, err := badger.Open(badger.DefaultOptions(path))
	if err != nil {
		return fmt.Errorf("opening badger at %s: %w", path, err)
	}
	r.kv = kv
	return nil
}

// CloseKV closes the snapshot store.
func (r *Repository) CloseKV() error {
	if r.kv == nil {
		return nil
	}
	return r.kv.Close()
}

// LoadSnapshot reads the latest persisted snapshot. Returns (nil, nil)
// when no snapshot has been written yet.
func (r *Repository) LoadSnapshot() (*reservation.Snapshot, error) {
	if r.kv == nil {
		return nil, nil
	}

	var raw []byte
	err := r.kv.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			raw = append([]byte{}, val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot reservation.Snapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snapshot.Version > reservation.SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d",
			snapshot.Version, reservation.SnapshotVersion)
	}

	return &snapshot, nil
}

// SaveSnapshot persists the snapshot to Badger and mirrors users and
// reservations into Postgres. The mirror is best-effort: failures are
// logged and do not fail the save.
func (r *Repository) SaveSnapshot(snapshot *reservation.Snapshot) error {
	if r.kv != nil {
		raw, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		err = r.kv.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte(snapshotKey), raw)
		})
		if err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}

	r.mirror(snapshot)
	return nil
}

// mirror upserts the domain projections into the relational store.
func (r *Repository) mirror(snapshot *reservation.Snapshot) {
	if r.db == nil {
		return
	}

	for _, user := range snapshot.Users {
		row := models.User{
			ID:           user.ID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         string(user.Role),
			LocationCode: user.LocationCode,
		}
		if err := r.db.Save(&row).Error; err != nil {
			r.logRepositoryError("mirror user", user.ID, err)
		}
	}

	for _, res := range snapshot.Reservations {
		row := models.Reservation{
			ID:              res.ID,
			RoomNumber:      res.RoomNumber,
			LocationCode:    res.LocationCode,
			Floor:           res.Floor,
			UserID:          res.UserID,
			UserRole:        string(res.Role),
			StartTime:       res.StartTime,
			EndTime:         res.EndTime,
			DurationMinutes: res.DurationMinutes,
			Status:          string(res.Status),
			CancelledBy:     res.CancelledBy,
		}
		if err := r.db.Save(&row).Error; err != nil {
			r.logRepositoryError("mirror reservation", res.ID, err)
		}
	}
}

// logRepositoryError classifies Postgres errors by SQLSTATE before
// logging, matching how the rest of the repository layer reports them.
func (r *Repository) logRepositoryError(op, id string, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		repoErr := &RepositoryError{
			Code:    pgErr.Code,
			Message: pgErr.Message,
			Detail:  pgErr.Detail,
		}
		r.logger.Error("Relational mirror failed", "op", op, "id", id, "err", repoErr)
		return
	}
	r.logger.Error("Relational mirror failed", "op", op, "id", id, "err", err)
}
