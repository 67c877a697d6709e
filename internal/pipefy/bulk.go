package pipefy

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of deleting one card or record.
type Outcome struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}

// BulkResult collects every outcome of a bulk delete, successful or not.
type BulkResult struct {
	Outcomes []Outcome `json:"outcomes"`
}

// Deleted returns the number of successful deletes.
func (r *BulkResult) Deleted() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the outcomes that carry an error.
func (r *BulkResult) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Err joins the errors of every failed outcome, or returns nil.
func (r *BulkResult) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", o.ID, o.Err))
	}
	return errors.Join(errs...)
}

// deleteAll runs del for every id with at most c.maxConcurrency calls in
// flight. It waits for all of them and keeps outcomes in input order.
func (c *Client) deleteAll(ctx context.Context, ids []string, del func(context.Context, string) error) []Outcome {
	outcomes := make([]Outcome, len(ids))
	var g errgroup.Group
	g.SetLimit(c.maxConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			defer func() {
				if e := recover(); e != nil {
					outcomes[i] = Outcome{ID: id, Err: fmt.Errorf("runtime error: %v", e)}
				}
			}()
			outcomes[i] = Outcome{ID: id, Err: del(ctx, id)}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// ClearTable deletes every record on the first page of a table. A failed
// delete does not stop the others; inspect the result for failures.
func (c *Client) ClearTable(ctx context.Context, tableID string) (*BulkResult, error) {
	records, err := c.ListTableRecords(ctx, tableID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	result := &BulkResult{Outcomes: c.deleteAll(ctx, ids, c.DeleteTableRecord)}
	c.logger.Printf("pipefy clearTable %s: deleted %d of %d records", tableID, result.Deleted(), len(ids))
	return result, nil
}

// listCardIDs returns the ids of one page of a pipe's cards.
func (c *Client) listCardIDs(ctx context.Context, pipeID string) ([]string, error) {
	var resp struct {
		Cards *edges[Card] `json:"cards"`
	}
	query := fmt.Sprintf(`{ cards(pipe_id: %s) { edges { node { id } } } }`, quote(pipeID))
	if err := c.do(ctx, "cards", query, &resp); err != nil {
		return nil, err
	}
	cards := resp.Cards.nodes()
	ids := make([]string, len(cards))
	for i, card := range cards {
		ids[i] = card.ID
	}
	return ids, nil
}

// ClearPipe deletes cards of a pipe page by page until a page comes back
// empty. It gives up with ErrClearPipeStalled when every delete of a round
// fails or after the configured number of rounds.
func (c *Client) ClearPipe(ctx context.Context, pipeID string) (*BulkResult, error) {
	result := &BulkResult{}
	for round := 0; round < c.maxClearRounds; round++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("pipefy clearPipe: %w", err)
		}
		ids, err := c.listCardIDs(ctx, pipeID)
		if err != nil {
			return result, err
		}
		if len(ids) == 0 {
			c.logger.Printf("pipefy clearPipe %s: deleted %d cards", pipeID, result.Deleted())
			return result, nil
		}
		outcomes := c.deleteAll(ctx, ids, c.DeleteCard)
		result.Outcomes = append(result.Outcomes, outcomes...)

		if (&BulkResult{Outcomes: outcomes}).Deleted() == 0 {
			return result, fmt.Errorf("pipefy clearPipe: %w: round %d deleted none of %d cards", ErrClearPipeStalled, round+1, len(ids))
		}
	}
	return result, fmt.Errorf("pipefy clearPipe: %w: cards left after %d rounds", ErrClearPipeStalled, c.maxClearRounds)
}
