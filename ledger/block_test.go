package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTx(t *testing.T, message, userID string) Transaction {
	t.Helper()
	tx, err := NewTransaction(GenesisPayload{Message: message}, userID)
	require.NoError(t, err)
	return tx
}

func TestMerkleRootOfEmptyListIsHashOfEmptyString(t *testing.T) {
	sum := sha256.Sum256([]byte(""))
	assert.Equal(t, hex.EncodeToString(sum[:]), MerkleRoot(nil))
}

func TestMerkleRootIsOrderSensitive(t *testing.T) {
	a := testTx(t, "a", "u1")
	b := testTx(t, "b", "u2")

	rootAB := MerkleRoot([]Transaction{a, b})
	rootBA := MerkleRoot([]Transaction{b, a})
	assert.NotEqual(t, rootAB, rootBA)
}

func TestMerkleRootDuplicatesLastOnOddLevels(t *testing.T) {
	a := testTx(t, "a", "u1")
	b := testTx(t, "b", "u2")
	c := testTx(t, "c", "u3")

	// Level 0: [a, b, c] -> [h(a+b), h(c+c)] -> root
	hab := sha256.Sum256([]byte(a.Signature + b.Signature))
	hcc := sha256.Sum256([]byte(c.Signature + c.Signature))
	expected := sha256.Sum256([]byte(hex.EncodeToString(hab[:]) + hex.EncodeToString(hcc[:])))

	assert.Equal(t, hex.EncodeToString(expected[:]), MerkleRoot([]Transaction{a, b, c}))
}

func TestMerkleRootStableUnderReserialization(t *testing.T) {
	a := testTx(t, "a", "u1")
	b := testTx(t, "b", "u2")
	txs := []Transaction{a, b}
	root := MerkleRoot(txs)

	raw, err := json.Marshal(txs)
	require.NoError(t, err)
	var decoded []Transaction
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, root, MerkleRoot(decoded))
}

func TestMineSealsBlockAtDifficulty(t *testing.T) {
	block := NewBlock(1, []Transaction{testTx(t, "a", "u1")}, "prevhash")
	timestampBefore := block.Timestamp

	block.Mine(2)

	assert.True(t, strings.HasPrefix(block.Hash, "00"))
	assert.True(t, block.MeetsDifficulty(2))
	assert.Equal(t, block.Hash, block.ComputeHash())
	// Mining must not touch the timestamp.
	assert.Equal(t, timestampBefore, block.Timestamp)
}

func TestBlockDataRoundTrip(t *testing.T) {
	block := NewBlock(3, []Transaction{testTx(t, "a", "u1"), testTx(t, "b", "u2")}, "prevhash")
	block.Mine(2)

	raw, err := json.Marshal(block.ToData())
	require.NoError(t, err)

	var data BlockData
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, 2, data.TransactionCount)

	restored := BlockFromData(data)
	assert.Equal(t, block.Hash, restored.Hash)
	assert.Equal(t, restored.Hash, restored.ComputeHash())
	assert.Equal(t, block.MerkleRoot, restored.MerkleRoot)
}
