package ledger

import (
	"fmt"
	"sync"
)

// GenesisPrevHash is the sentinel previous-hash of block 0.
const GenesisPrevHash = "0"

const (
	// DefaultDifficulty is the required number of leading zero hex
	// characters in a sealed block hash.
	DefaultDifficulty = 2
	// DefaultReward is the amount credited by the MINING_REWARD
	// transaction appended to every mined block.
	DefaultReward = 10
)

// Ledger is the append-only, hash-linked sequence of blocks plus the
// queue of not-yet-mined transactions.
type Ledger struct {
	mu         sync.RWMutex
	chain      []*Block
	pending    []Transaction
	difficulty int
	reward     int
}

// Stats summarizes the state of the chain.
type Stats struct {
	TotalBlocks         int    `json:"total_blocks"`
	TotalTransactions   int    `json:"total_transactions"`
	LatestBlockHash     string `json:"latest_block_hash"`
	PendingTransactions int    `json:"pending_transactions"`
	IsValid             bool   `json:"is_valid"`
	Difficulty          int    `json:"mining_difficulty"`
}

// New creates a ledger with a mined genesis block.
func New(difficulty, reward int) (*Ledger, error) {
	l := &Ledger{
		difficulty: difficulty,
		reward:     reward,
	}

	genesisTx, err := NewTransaction(GenesisPayload{
		Message: "University Room Reservation Blockchain Genesis Block",
	}, "system")
	if err != nil {
		return nil, fmt.Errorf("creating genesis transaction: %w", err)
	}

	genesis := NewBlock(0, []Transaction{genesisTx}, GenesisPrevHash)
	genesis.Mine(difficulty)
	l.chain = append(l.chain, genesis)

	return l, nil
}

// Latest returns the most recently mined block.
func (l *Ledger) Latest() *Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chain[len(l.chain)-1]
}

// AddTransaction appends a transaction to the pending queue. The chain
// is not mutated.
func (l *Ledger) AddTransaction(tx Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, tx)
}

// PendingCount returns the number of not-yet-mined transactions.
func (l *Ledger) PendingCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.pending)
}

// Pending returns a copy of the pending queue in insertion order.
func (l *Ledger) Pending() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Transaction, len(l.pending))
	copy(out, l.pending)
	return out
}

// MinePending seals the pending queue into a new block. A mining reward
// transaction addressed to rewardAddress is appended to the batch first.
// Returns nil when there is nothing to mine.
func (l *Ledger) MinePending(rewardAddress string) (*Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.pending) == 0 {
		return nil, nil
	}

	rewardTx, err := NewTransaction(RewardPayload{RewardAmount: l.reward}, rewardAddress)
	if err != nil {
		return nil, fmt.Errorf("creating reward transaction: %w", err)
	}
	l.pending = append(l.pending, rewardTx)

	batch := make([]Transaction, len(l.pending))
	copy(batch, l.pending)

	latest := l.chain[len(l.chain)-1]
	block := NewBlock(len(l.chain), batch, latest.Hash)
	block.Mine(l.difficulty)

	l.chain = append(l.chain, block)
	l.pending = nil

	return block, nil
}

// Validate walks the chain and verifies, for every block after the
// genesis, that the stored hash matches a recomputation from stored
// fields, that the previous-hash link holds, and that the hash
// satisfies the proof-of-work target. On-demand only; mutations are
// never blocked by it.
func (l *Ledger) Validate() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.validateLocked()
}

func (l *Ledger) validateLocked() error {
	if len(l.chain) == 0 {
		return fmt.Errorf("empty chain")
	}
	if l.chain[0].PrevHash != GenesisPrevHash {
		return fmt.Errorf("invalid genesis block")
	}

	for i := 1; i < len(l.chain); i++ {
		current := l.chain[i]
		previous := l.chain[i-1]

		if current.Hash != current.ComputeHash() {
			return fmt.Errorf("block %d: stored hash does not match recomputation", i)
		}
		if current.PrevHash != previous.Hash {
			return fmt.Errorf("block %d: broken link to block %d", i, i-1)
		}
		if !current.MeetsDifficulty(l.difficulty) {
			return fmt.Errorf("block %d: hash does not satisfy difficulty %d", i, l.difficulty)
		}
	}

	return nil
}

// Stats returns chain statistics, including the result of a full
// validation pass.
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := 0
	for _, b := range l.chain {
		total += len(b.Transactions)
	}

	return Stats{
		TotalBlocks:         len(l.chain),
		TotalTransactions:   total,
		LatestBlockHash:     l.chain[len(l.chain)-1].Hash,
		PendingTransactions: len(l.pending),
		IsValid:             l.validateLocked() == nil,
		Difficulty:          l.difficulty,
	}
}

// ChainData exports the full chain in its external representation.
func (l *Ledger) ChainData() []BlockData {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]BlockData, len(l.chain))
	for i, b := range l.chain {
		out[i] = b.ToData()
	}
	return out
}

// Length returns the number of blocks in the chain.
func (l *Ledger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.chain)
}

// Difficulty returns the configured proof-of-work target.
func (l *Ledger) Difficulty() int {
	return l.difficulty
}

// Reward returns the configured mining reward amount.
func (l *Ledger) Reward() int {
	return l.reward
}

// Restore replaces the chain and pending queue from a decoded snapshot.
// Stored blocks are taken as-is; call Validate afterwards to verify the
// restored chain.
func (l *Ledger) Restore(chain []BlockData, pending []Transaction) error {
	if len(chain) == 0 {
		return fmt.Errorf("snapshot chain is empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	blocks := make([]*Block, len(chain))
	for i, data := range chain {
		blocks[i] = BlockFromData(data)
	}
	l.chain = blocks
	l.pending = append([]Transaction(nil), pending...)
	return nil
}
