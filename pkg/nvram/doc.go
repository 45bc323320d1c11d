// Package nvram implements a transactional, dual-section key/value store
// for non-volatile storage on embedded Linux devices.
//
// A store is backed by up to two mirrored [Medium] sections, named A and
// B. Every [Store.Commit] targets whichever section is not currently
// active, so a crash mid-write leaves the previously active section
// untouched: readers never observe a torn mix of old and new data.
//
// The on-disk layout (format v2) is a fixed 24-byte header followed by a
// CRC-32 protected payload of length-prefixed key/value records. See
// [SectionHeader] and [EntrySet] for the data model, and
// [TransactionState] for the counter-based active-section selection and
// next-write decision.
//
// nvram is not safe for concurrent use by multiple goroutines, and has no
// opinion about multi-process exclusion; callers that need it should take
// an external advisory lock (see internal/fslock) before calling [Open].
package nvram
