/*
Package blob implements a content-addressed store for large binary payloads
that don't belong inlined in a YAML document.

A blob is identified by the SHA-1 hex digest of its content. Add streams its
reader to a temp file under the store's root, hashes as it writes, and
renames the temp file into place under its digest once the write completes
-- an atomic write-then-rename, outside the two-phase commit that the
store's documents go through: a blob is immutable and content-addressed,
so a half-written temp file never collides with, or corrupts, a previously
committed blob of a different digest. This is why Store does not implement
txn.Participant: there is nothing to vote on or roll back.

Model.Blob is the persistent handle into the store: a document field holding
only the digest and size, small enough to live in the tree that the store's
normal save traversal already walks.
*/
package blob
