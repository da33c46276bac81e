package txn

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Transaction identifies one run of two-phase commit. Participants receive
// it on every call so they can tag their own logging with the same id the
// coordinator uses.
type Transaction struct {
	ID string
}

// Participant is a resource manager taking part in a two-phase commit.
// Implementations must be safe to call sequentially in SortKey order; the
// coordinator never calls two participants' methods concurrently.
type Participant interface {
	// SortKey returns a stable ordering key. Participants are driven
	// through Begin, Vote, and Finish in ascending SortKey order.
	SortKey() string

	// Begin is called once, before any participant votes, to let the
	// participant prepare its local state (for example: compute the set
	// of staged writes it intends to commit).
	Begin(ctx context.Context, tx *Transaction) error

	// Vote asks the participant to make its pending changes durable in a
	// recoverable, not-yet-visible form. A non-nil error aborts the
	// whole transaction, including every participant that already voted.
	Vote(ctx context.Context, tx *Transaction) error

	// Finish makes a successfully voted change visible. Finish must not
	// fail for reasons the participant could have caught during Vote;
	// by the time Finish runs, every participant has already voted yes.
	Finish(ctx context.Context, tx *Transaction) error

	// Abort discards any pending changes, whether or not Begin or Vote
	// was called on this participant.
	Abort(ctx context.Context, tx *Transaction) error
}

// Coordinator drives a group of Participants through two-phase commit.
type Coordinator struct {
	participants []Participant
}

// NewCoordinator returns an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Join registers p with the transaction, if it is not already joined.
// Joining the same participant (by SortKey) twice is a no-op, mirroring
// the idempotent join semantics transaction managers rely on when the same
// resource is touched multiple times in one transaction.
func (c *Coordinator) Join(p Participant) {
	for _, existing := range c.participants {
		if existing.SortKey() == p.SortKey() {
			return
		}
	}
	c.participants = append(c.participants, p)
}

// Participants returns the joined participants in commit order.
func (c *Coordinator) Participants() []Participant {
	sorted := append([]Participant(nil), c.participants...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SortKey() < sorted[j].SortKey()
	})
	return sorted
}

// Commit runs Begin, then Vote, then Finish across every joined participant
// in SortKey order, under a freshly minted Transaction id. If Begin or Vote
// fails on any participant, every participant (including ones not yet
// reached) is aborted and the first error is returned.
func (c *Coordinator) Commit(ctx context.Context) error {
	tx := &Transaction{ID: uuid.NewString()}
	ordered := c.Participants()

	for _, p := range ordered {
		if err := p.Begin(ctx, tx); err != nil {
			c.abortAll(ctx, tx, ordered)
			return fmt.Errorf("txn: begin failed for %s: %w", p.SortKey(), err)
		}
	}

	for _, p := range ordered {
		if err := p.Vote(ctx, tx); err != nil {
			c.abortAll(ctx, tx, ordered)
			return fmt.Errorf("txn: vote failed for %s: %w", p.SortKey(), err)
		}
	}

	for _, p := range ordered {
		if err := p.Finish(ctx, tx); err != nil {
			// Finish is not expected to fail once every participant has
			// voted; surface it rather than trying to un-finish peers
			// that may have already made their change visible.
			return fmt.Errorf("txn: finish failed for %s: %w", p.SortKey(), err)
		}
	}

	return nil
}

// Abort discards the transaction without attempting to finish any
// participant.
func (c *Coordinator) Abort(ctx context.Context) error {
	tx := &Transaction{ID: uuid.NewString()}
	return c.abortAll(ctx, tx, c.Participants())
}

func (c *Coordinator) abortAll(ctx context.Context, tx *Transaction, ordered []Participant) error {
	var firstErr error
	for _, p := range ordered {
		if err := p.Abort(ctx, tx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("txn: abort failed for %s: %w", p.SortKey(), err)
		}
	}
	return firstErr
}
