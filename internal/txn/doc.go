// Package txn implements the transactions that own bodies and serialize
// their mutations.
//
// # Explicit context
//
// There is no thread-local "current transaction". [Repository.Begin] returns a
// *[Txn] token plus a [context.Context] carrying it. Every mutation takes the
// token explicitly and compares it with the body's owner, which makes the
// cross-context check a pointer comparison. Beginning a transaction from a
// context that already carries an open one fails with NestedContext, while
// independent contexts may hold transactions on the same repository
// concurrently.
//
// # Write guard
//
// [Txn.Guard] is a non-blocking, non-reentrant lock scoped to one mutating
// call: a compare-and-swap on the busy flag either acquires it or fails
// immediately with ConcurrencyViolation. Callers release it with defer so the
// flag is cleared on every exit path.
//
// # State machine
//
//	Open(ReadOnly)  -> Closed
//	Open(ReadWrite) -> Committed | RolledBack -> Closed
//
// Closing an open read-write transaction rolls it back. Closing releases every
// member body and its buffer.
package txn
