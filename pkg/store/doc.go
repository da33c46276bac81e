/*
Package store is the mutation tracker and store facade: the in-memory
overlay that lazily materializes an object tree from a filesystem, tracks
just enough dirtiness to write the minimum set of documents on commit, and
participates in two-phase commit alongside that filesystem.

	┌──────────────── Store ────────────────┐
	│  FS atomicfs.FS, Blobs *blob.Store,    │
	│  Factory func() model.Folder          │
	│                                        │
	│  Session(ctx) -> current *Session      │
	└──────────────────┬─────────────────────┘
	                    │ lazily creates / replaces on close
	                    ▼
	┌──────────────── Session ──────────────┐
	│  root model.Object (cached once)       │
	│  implements txn.Participant:           │
	│    Begin / Vote / Finish / Abort       │
	│  Vote -> save(root), the rooted        │
	│  depth-first write traversal           │
	└──────────────────┬─────────────────────┘
	                    │ per folder
	                    ▼
	┌─────────────── folderContents ────────┐
	│  name -> *folderEntry, insertion-      │
	│  ordered, lists its directory once     │
	└────────────────────────────────────────┘

A Session's SortKey is constructed to compare less than its Store's
atomicfs.FS SortKey, so the coordinator stages this session's writes before
the filesystem's own commit finalizes them.

Folder membership (Contains/Get/Set/Delete/Pop/Keys/Values/Items) and the
attach/detach bookkeeping that lets a moved subtree survive without being
rewritten live in folder.go and attach.go; the save traversal itself lives
in session.go next to the Session type it belongs to.
*/
package store
