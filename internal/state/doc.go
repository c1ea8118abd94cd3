// Package state shares the latest schedule between the poller and the UI.
//
// The poller calls Store.Update after each schedule fetch; the UI reads
// Store.Snapshot on its own tick. Snapshots are copies, so the UI can keep one
// across frames without holding a lock.
//
// A failed fetch keeps the previous slots and records the error. After two
// consecutive failures Snapshot.IsOffline reports true and the header shows
// the studio as unreachable until the next successful fetch.
package state
