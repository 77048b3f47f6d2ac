package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Block is an ordered batch of transactions committed under a Merkle
// root, linked to its predecessor by hash and sealed by proof-of-work.
// The timestamp is fixed at construction and never changes during
// mining, so a validator can recompute the same hash from stored fields.
type Block struct {
	Index        int           `json:"index"`
	Timestamp    int64         `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
	PrevHash     string        `json:"previous_hash"`
	MerkleRoot   string        `json:"merkle_root"`
	Nonce        int64         `json:"nonce"`
	Hash         string        `json:"hash"`
}

// BlockData is the external representation of a block, used for
// visualization and snapshot export.
type BlockData struct {
	Index            int           `json:"index"`
	Timestamp        int64         `json:"timestamp"`
	Hash             string        `json:"hash"`
	PrevHash         string        `json:"previous_hash"`
	MerkleRoot       string        `json:"merkle_root"`
	Nonce            int64         `json:"nonce"`
	Transactions     []Transaction `json:"transactions"`
	TransactionCount int           `json:"transaction_count"`
}

// NewBlock builds an unsealed block over the given transactions. The
// Merkle root and initial hash are computed immediately; Mine must be
// called to satisfy the proof-of-work target.
func NewBlock(index int, transactions []Transaction, prevHash string) *Block {
	b := &Block{
		Index:        index,
		Timestamp:    time.Now().Unix(),
		Transactions: transactions,
		PrevHash:     prevHash,
	}
	b.MerkleRoot = MerkleRoot(transactions)
	b.Hash = b.ComputeHash()
	return b
}

// ComputeHash derives the block hash from its stored fields. Validation
// recomputes this identically.
func (b *Block) ComputeHash() string {
	content := fmt.Sprintf("%d%d%s%s%d", b.Index, b.Timestamp, b.PrevHash, b.MerkleRoot, b.Nonce)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Mine increments the nonce until the block hash has the required
// number of leading zero hex characters.
func (b *Block) Mine(difficulty int) {
	target := strings.Repeat("0", difficulty)
	for !strings.HasPrefix(b.Hash, target) {
		b.Nonce++
		b.Hash = b.ComputeHash()
	}
}

// MeetsDifficulty reports whether the sealed hash satisfies the
// proof-of-work target.
func (b *Block) MeetsDifficulty(difficulty int) bool {
	return strings.HasPrefix(b.Hash, strings.Repeat("0", difficulty))
}

// MerkleRoot folds the transaction signatures pairwise into a single
// commitment. The empty list hashes to sha256 of the empty string; odd
// levels duplicate their last element. Reordering transactions changes
// the root.
func MerkleRoot(transactions []Transaction) string {
	if len(transactions) == 0 {
		sum := sha256.Sum256([]byte(""))
		return hex.EncodeToString(sum[:])
	}

	hashes := make([]string, len(transactions))
	for i, tx := range transactions {
		hashes[i] = tx.Signature
	}

	for len(hashes) > 1 {
		next := make([]string, 0, (len(hashes)+1)/2)
		for i := 0; i < len(hashes); i += 2 {
			combined := hashes[i]
			if i+1 < len(hashes) {
				combined += hashes[i+1]
			} else {
				combined += hashes[i]
			}
			sum := sha256.Sum256([]byte(combined))
			next = append(next, hex.EncodeToString(sum[:]))
		}
		hashes = next
	}

	return hashes[0]
}

// ToData converts the block to its external representation.
func (b *Block) ToData() BlockData {
	return BlockData{
		Index:            b.Index,
		Timestamp:        b.Timestamp,
		Hash:             b.Hash,
		PrevHash:         b.PrevHash,
		MerkleRoot:       b.MerkleRoot,
		Nonce:            b.Nonce,
		Transactions:     b.Transactions,
		TransactionCount: len(b.Transactions),
	}
}

// BlockFromData reconstructs a block from its external representation.
// Stored fields are restored as-is; nothing is recomputed, so a
// round-tripped block hashes to its original value.
func BlockFromData(data BlockData) *Block {
	return &Block{
		Index:        data.Index,
		Timestamp:    data.Timestamp,
		Transactions: data.Transactions,
		PrevHash:     data.PrevHash,
		MerkleRoot:   data.MerkleRoot,
		Nonce:        data.Nonce,
		Hash:         data.Hash,
	}
}
