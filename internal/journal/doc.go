// Package journal provides SQLite-backed durable storage for pass traces.
//
// The journal is an append-only log: one row per scheduler pass, one row
// per record outcome (execution or failure) within that pass. It exists for
// observability - the `reverb trace` command reads it back - and plays no
// part in scheduling decisions.
//
// Component writes are serialized as canonical JSON (NFC-normalized
// strings, UTF-16 sorted keys, no floats, no null) so journal rows from
// identical runs compare byte-for-byte.
//
// Database configuration mirrors the usual SQLite service setup:
// WAL mode, synchronous=NORMAL, busy_timeout=5000, foreign_keys=ON.
package journal
