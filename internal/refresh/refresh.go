// Package refresh re-runs one search per dynamic form row and publishes the
// results for all rows at once.
//
// Lookups cannot be cancelled, so overlapping refreshes are resolved by
// generation: every Refresh takes a new generation number before it fans out,
// and after the join it commits only if no newer refresh has started. An
// overtaken refresh still waits for its lookups but never touches the
// published results.
package refresh

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bborn/grocer/internal/autocomplete"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// QueryRow is the search owned by one form row.
type QueryRow struct {
	Query string
	Page  int
}

// NewRow returns a row on the first page.
func NewRow(query string) QueryRow {
	return QueryRow{Query: query, Page: 1}
}

// WithQuery returns the row with a new query. The page goes back to 1 when
// the query actually changes.
func (r QueryRow) WithQuery(query string) QueryRow {
	if query == r.Query {
		return r
	}
	return QueryRow{Query: query, Page: 1}
}

// Lookup fetches candidates for one row.
type Lookup func(ctx context.Context, query string, page int) ([]autocomplete.Option, error)

// Commit describes a published batch.
type Commit struct {
	Generation uint64
	Results    [][]autocomplete.Option
	// Err aggregates the lookups that failed. Their rows were committed empty.
	Err error
}

// Refresher owns the generation counter and the per-row result collection of
// one form.
type Refresher struct {
	lookup   Lookup
	logger   *log.Logger
	onCommit func(Commit)

	generation atomic.Uint64

	mu      sync.RWMutex
	results [][]autocomplete.Option
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithLogger sets the logger used to report failed lookups.
func WithLogger(l *log.Logger) Option {
	return func(r *Refresher) { r.logger = l }
}

// WithOnCommit registers a callback run after every commit, while the new
// results are already visible.
func WithOnCommit(fn func(Commit)) Option {
	return func(r *Refresher) { r.onCommit = fn }
}

// WithResults seeds the result collection, e.g. with each row's current
// selection when editing.
func WithResults(results [][]autocomplete.Option) Option {
	return func(r *Refresher) { r.results = results }
}

// New creates a refresher around lookup.
func New(lookup Lookup, opts ...Option) *Refresher {
	r := &Refresher{lookup: lookup}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generation returns the latest generation started.
func (r *Refresher) Generation() uint64 {
	return r.generation.Load()
}

// Results returns the committed per-row results. The outer slice is a copy;
// the inner slices must not be modified.
func (r *Refresher) Results() [][]autocomplete.Option {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([][]autocomplete.Option, len(r.results))
	copy(out, r.results)
	return out
}

// Row returns the committed results for row i, or nil.
func (r *Refresher) Row(i int) []autocomplete.Option {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.results) {
		return nil
	}
	return r.results[i]
}

// Append adds an empty result slot for a new row. Row indexes of refreshes
// already in flight stay valid, but they are superseded anyway because the
// owner refreshes after every structural change.
func (r *Refresher) Append() {
	r.generation.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, nil)
}

// Remove drops the result slot of row i. Refreshes in flight were computed
// against the old row order, so they are invalidated.
// An index out of range changes nothing.
func (r *Refresher) Remove(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.results) {
		return
	}
	r.generation.Add(1)
	next := make([][]autocomplete.Option, 0, len(r.results)-1)
	next = append(next, r.results[:i]...)
	next = append(next, r.results[i+1:]...)
	r.results = next
}

// Refresh looks up every row concurrently and commits the batch if it is
// still the newest refresh once all lookups have returned. It reports
// whether the batch was committed.
func (r *Refresher) Refresh(ctx context.Context, rows []QueryRow) (Commit, bool) {
	mine := r.generation.Add(1)

	fetched := make([][]autocomplete.Option, len(rows))
	errs := make([]error, len(rows))

	var g errgroup.Group
	for i, row := range rows {
		g.Go(func() error {
			opts, err := r.lookup(ctx, row.Query, row.Page)
			if err != nil {
				errs[i] = fmt.Errorf("row %d (%q): %w", i, row.Query, err)
				opts = nil
			}
			if opts == nil {
				opts = []autocomplete.Option{}
			}
			fetched[i] = opts
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	commit := Commit{Generation: mine, Results: fetched, Err: merr.ErrorOrNil()}

	if commit.Err != nil && r.logger != nil {
		r.logger.Warn("lookup failed, rows committed empty", "generation", mine, "error", commit.Err)
	}

	r.mu.Lock()
	if r.generation.Load() != mine {
		r.mu.Unlock()
		if r.logger != nil {
			r.logger.Debug("discarding superseded refresh", "generation", mine, "latest", r.generation.Load())
		}
		return commit, false
	}
	r.results = fetched
	r.mu.Unlock()

	if r.onCommit != nil {
		published := commit
		published.Results = slices.Clone(fetched)
		r.onCommit(published)
	}
	return commit, true
}
