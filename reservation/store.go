package reservation

import "github.com/campuschain/room-reservation/ledger"

// SnapshotVersion is the current snapshot format version. Encoded
// snapshots carry it so the format can evolve without breaking old
// state files.
const SnapshotVersion = 1

// Snapshot is the versioned, externally encodable state of the service:
// the chain and pending queue plus the domain projections built on them.
type Snapshot struct {
	Version      int                  `json:"version"`
	Chain        []ledger.BlockData   `json:"chain"`
	Pending      []ledger.Transaction `json:"pending_transactions"`
	Reservations []*Reservation       `json:"reservations"`
	Users        map[string]User      `json:"users"`
	Difficulty   int                  `json:"mining_difficulty"`
	Reward       int                  `json:"mining_reward"`
}

// Store is the persistence collaborator. SaveSnapshot is called while
// the service still holds its write lock, immediately after mutation,
// so the persisted state is never ahead of or behind memory. A failing
// store degrades the service to in-memory-only operation; it is never
// fatal.
type Store interface {
	LoadSnapshot() (*Snapshot, error)
	SaveSnapshot(*Snapshot) error
}
