// Package ledger implements the append-only blockchain backing the room
// reservation system.
//
// # Core Components
//
// Transaction: an immutable, content-hashed record of one intended state
// change (user registration, reservation, cancellation).
//
// Block: an ordered batch of transactions committed under a Merkle root,
// linked to its predecessor by hash and sealed by proof-of-work.
//
// Ledger: the hash-linked chain of blocks plus the queue of pending
// transactions, with on-demand integrity verification.
//
// Application state built on top of the ledger (see the reservation
// package) only becomes authoritative once its transaction is mined.
package ledger
