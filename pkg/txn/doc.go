/*
Package txn implements a minimal two-phase-commit coordinator for grouping
writes to more than one resource -- the store's session and its staged
filesystem (atomicfs.FS), primarily -- into one atomic outcome.

	┌────────────────── TRANSACTION ──────────────────┐
	│                                                   │
	│   Coordinator.Commit(ctx)                        │
	│       │                                           │
	│       ├─ sort participants by SortKey            │
	│       ├─ Begin(ctx) on each, in sorted order      │
	│       ├─ Vote(ctx) on each, in sorted order       │
	│       │     any error -> Abort everything        │
	│       └─ Finish(ctx) on each, in sorted order     │
	│                                                   │
	└───────────────────────────────────────────────────┘

The sort-key ordering mirrors the resource-manager contract of Python's
`transaction` package (and ZODB's data managers): every participant exposes
a stable SortKey so that, when a transaction touches the same two resources
more than once, locks are always acquired in the same order across sessions,
which avoids a class of deadlocks that an unordered commit would invite.

This package has no pack precedent to ground on -- none of the retrieved
example repositories implement a resource-manager-style two-phase commit --
so it is written directly against the documented semantics of
transaction.interfaces.IDataManager, using only the standard library.
*/
package txn
