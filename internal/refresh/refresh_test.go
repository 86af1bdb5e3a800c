package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bborn/grocer/internal/autocomplete"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optsFor(labels ...string) []autocomplete.Option {
	out := make([]autocomplete.Option, len(labels))
	for i, l := range labels {
		out[i] = autocomplete.Option{ID: l, Label: l}
	}
	return out
}

func TestQueryRowWithQuery(t *testing.T) {
	r := QueryRow{Query: "on", Page: 3}
	assert.Equal(t, r, r.WithQuery("on"), "same query keeps page")
	assert.Equal(t, QueryRow{Query: "oni", Page: 1}, r.WithQuery("oni"))
	assert.Equal(t, QueryRow{Query: "x", Page: 1}, NewRow("x"))
}

func TestRefreshCommitsIndexAligned(t *testing.T) {
	var commits atomic.Int32
	r := New(func(ctx context.Context, q string, page int) ([]autocomplete.Option, error) {
		return optsFor(q+"-1", q+"-2"), nil
	}, WithOnCommit(func(Commit) { commits.Add(1) }))

	c, ok := r.Refresh(context.Background(), []QueryRow{NewRow("a"), NewRow("b"), NewRow("c")})
	require.True(t, ok)
	assert.NoError(t, c.Err)
	assert.Equal(t, uint64(1), c.Generation)
	assert.Equal(t, int32(1), commits.Load(), "one commit per batch, not per row")

	res := r.Results()
	require.Len(t, res, 3)
	for i, q := range []string{"a", "b", "c"} {
		assert.Equal(t, optsFor(q+"-1", q+"-2"), res[i])
	}
}

func TestRefreshRunsLookupsConcurrently(t *testing.T) {
	const rows = 4
	var started sync.WaitGroup
	started.Add(rows)
	release := make(chan struct{})

	r := New(func(ctx context.Context, q string, page int) ([]autocomplete.Option, error) {
		started.Done()
		<-release
		return optsFor(q), nil
	})

	done := make(chan struct{})
	go func() {
		r.Refresh(context.Background(), []QueryRow{NewRow("a"), NewRow("b"), NewRow("c"), NewRow("d")})
		close(done)
	}()

	waitCh := make(chan struct{})
	go func() { started.Wait(); close(waitCh) }()
	select {
	case <-waitCh:
	case <-time.After(2 * time.Second):
		t.Fatal("lookups were not started concurrently")
	}

	assert.Empty(t, r.Results(), "nothing visible before the join")
	close(release)
	<-done
	assert.Len(t, r.Results(), rows)
}

func TestNewerRefreshWins(t *testing.T) {
	slow := make(chan struct{})
	var commits atomic.Int32

	r := New(func(ctx context.Context, q string, page int) ([]autocomplete.Option, error) {
		if q == "old" {
			<-slow
		}
		return optsFor(q), nil
	}, WithOnCommit(func(Commit) { commits.Add(1) }))

	type outcome struct {
		commit Commit
		ok     bool
	}
	r1 := make(chan outcome, 1)
	go func() {
		c, ok := r.Refresh(context.Background(), []QueryRow{NewRow("old"), NewRow("old")})
		r1 <- outcome{c, ok}
	}()

	require.Eventually(t, func() bool { return r.Generation() == 1 }, time.Second, time.Millisecond)

	c2, ok2 := r.Refresh(context.Background(), []QueryRow{NewRow("new"), NewRow("new")})
	require.True(t, ok2)
	assert.Equal(t, uint64(2), c2.Generation)

	close(slow)
	got := <-r1
	assert.False(t, got.ok, "older refresh resolving later must be discarded")
	assert.Equal(t, uint64(1), got.commit.Generation)

	assert.Equal(t, [][]autocomplete.Option{optsFor("new"), optsFor("new")}, r.Results())
	assert.Equal(t, int32(1), commits.Load())
}

func TestFailedRowCommitsEmpty(t *testing.T) {
	boom := errors.New("boom")
	r := New(func(ctx context.Context, q string, page int) ([]autocomplete.Option, error) {
		if q == "bad" {
			return optsFor("ignored"), boom
		}
		return optsFor(q), nil
	})

	c, ok := r.Refresh(context.Background(), []QueryRow{NewRow("a"), NewRow("bad"), NewRow("c")})
	require.True(t, ok)
	require.Error(t, c.Err)
	assert.ErrorIs(t, c.Err, boom)

	res := r.Results()
	require.Len(t, res, 3)
	assert.Equal(t, optsFor("a"), res[0])
	assert.NotNil(t, res[1])
	assert.Empty(t, res[1])
	assert.Equal(t, optsFor("c"), res[2])
}

func TestHungLookupDoesNotBlockNewerGeneration(t *testing.T) {
	hang := make(chan struct{})
	defer close(hang)

	r := New(func(ctx context.Context, q string, page int) ([]autocomplete.Option, error) {
		if q == "hang" {
			<-hang
		}
		return optsFor(q), nil
	})

	go r.Refresh(context.Background(), []QueryRow{NewRow("hang")})
	require.Eventually(t, func() bool { return r.Generation() == 1 }, time.Second, time.Millisecond)

	_, ok := r.Refresh(context.Background(), []QueryRow{NewRow("fresh")})
	require.True(t, ok)
	assert.Equal(t, [][]autocomplete.Option{optsFor("fresh")}, r.Results())
}

func TestAppendAndRemove(t *testing.T) {
	r := New(nil, WithResults([][]autocomplete.Option{optsFor("a"), optsFor("b"), optsFor("c")}))

	r.Remove(1)
	assert.Equal(t, [][]autocomplete.Option{optsFor("a"), optsFor("c")}, r.Results())
	assert.Equal(t, uint64(1), r.Generation())

	r.Append()
	res := r.Results()
	require.Len(t, res, 3)
	assert.Nil(t, res[2])
	assert.Nil(t, r.Row(7))
	assert.Equal(t, optsFor("c"), r.Row(1))

	r.Remove(10)
	assert.Len(t, r.Results(), 3)
}

func TestStructuralChangeInvalidatesInFlight(t *testing.T) {
	release := make(chan struct{})
	r := New(func(ctx context.Context, q string, page int) ([]autocomplete.Option, error) {
		<-release
		return optsFor(q), nil
	}, WithResults([][]autocomplete.Option{nil, nil}))

	result := make(chan bool, 1)
	go func() {
		_, ok := r.Refresh(context.Background(), []QueryRow{NewRow("a"), NewRow("b")})
		result <- ok
	}()
	require.Eventually(t, func() bool { return r.Generation() == 1 }, time.Second, time.Millisecond)

	r.Remove(0)
	close(release)
	assert.False(t, <-result)
	assert.Len(t, r.Results(), 1)
}

func TestRemoveOutOfRangeKeepsGeneration(t *testing.T) {
	r := New(nil, WithResults([][]autocomplete.Option{optsFor("a")}))

	r.Remove(-1)
	r.Remove(1)
	assert.Equal(t, uint64(0), r.Generation())
	assert.Equal(t, [][]autocomplete.Option{optsFor("a")}, r.Results())
}

func TestOnCommitResultsAreACopy(t *testing.T) {
	r := New(func(ctx context.Context, q string, page int) ([]autocomplete.Option, error) {
		return optsFor(q), nil
	}, WithOnCommit(func(c Commit) {
		c.Results[0] = nil
	}))

	_, ok := r.Refresh(context.Background(), []QueryRow{NewRow("a")})
	require.True(t, ok)
	assert.Equal(t, optsFor("a"), r.Row(0))
}
