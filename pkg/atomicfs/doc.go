/*
Package atomicfs provides a staged, transactionally-committed filesystem.

Every write, mkdir, remove, or move is recorded against an in-memory staged
filesystem (afero.MemMapFs); reads fall through to the staged layer first,
then the real on-disk tree, giving callers a consistent copy-on-write view
of "the filesystem as it will look after this session commits." Vote only
copies staged files into a temporary directory under the root; nothing in
the real tree changes until Finish applies the staged deletes, directory
creations and writes in one pass.

	┌───────────────── FS ─────────────────┐
	│                                        │
	│   reads:  staged -> actual (fallback)  │
	│   writes: staged only                  │
	│   deletes: recorded, masked from reads │
	│                                        │
	│   Vote(ctx): copy staged files to a    │
	│     temp dir under the root            │
	│   Finish(ctx): apply staged writes and │
	│     deletes to actual, in one pass     │
	│   Abort(ctx): discard staged state     │
	└────────────────────────────────────────┘

FS implements txn.Participant directly, so it can be joined to a
txn.Coordinator alongside the store's session and get one all-or-nothing
commit across both.

Grounded on the copy-on-write staged/actual filesystem pattern in
bolasblack/alcatraz's internal transact package, adapted from a callback-
driven diff/commit design to the txn.Participant two-phase contract used
throughout this module.
*/
package atomicfs
