// Package ledger keeps the append-only record of a table: every accepted
// transition becomes a Block linked to the previous one by its SHA-256 hash,
// and the state after it can be saved as a Snapshot.
//
// # Core Components
//
// Blockchain: the in-memory hash chain, optionally written through to a Store.
//
// Store: durable blocks and snapshots. MemoryStore keeps them in process,
// SQLiteStore in a SQLite database.
//
// # Security Properties
//
// Verify recomputes every hash and link. Entries keep the signature of the
// envelope they came from, so any party holding the chain can check who
// asked for each transition.
package ledger
