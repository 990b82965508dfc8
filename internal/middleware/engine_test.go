package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usherbot/usher/internal/domain"
)

func newCtx() *domain.Context {
	msg := domain.NewMessage("body", "chat", "sender")
	return domain.NewContext(msg, func(ctx context.Context, chat, text string) error {
		return nil
	})
}

func TestExecuteBeforeRunsInOrder(t *testing.T) {
	var order []int
	e := NewEngine().
		Before(func(ctx context.Context, c *domain.Context) (any, error) {
			order = append(order, 1)
			return nil, nil
		}).
		Before(func(ctx context.Context, c *domain.Context) (any, error) {
			order = append(order, 2)
			return nil, nil
		})

	result, err := e.ExecuteBefore(context.Background(), newCtx())
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, []int{1, 2}, order)
}

func TestExecuteBeforeShortCircuits(t *testing.T) {
	var ran []string
	e := NewEngine().Before(
		func(ctx context.Context, c *domain.Context) (any, error) {
			ran = append(ran, "first")
			return "stop here", nil
		},
		func(ctx context.Context, c *domain.Context) (any, error) {
			ran = append(ran, "second")
			return nil, nil
		},
	)

	result, err := e.ExecuteBefore(context.Background(), newCtx())
	require.NoError(t, err)
	assert.Equal(t, "stop here", result)
	assert.Equal(t, []string{"first"}, ran)
}

func TestExecuteAfterStoresResultAndShortCircuits(t *testing.T) {
	c := newCtx()
	var seen any
	e := NewEngine().After(
		func(ctx context.Context, c *domain.Context) (any, error) {
			seen = c.Result
			return "claimed", nil
		},
		func(ctx context.Context, c *domain.Context) (any, error) {
			t.Fatal("second after-handler should not run")
			return nil, nil
		},
	)

	out, err := e.ExecuteAfter(context.Background(), c, "handler result")
	require.NoError(t, err)
	assert.Equal(t, "handler result", seen)
	assert.Equal(t, "handler result", c.Result)
	assert.Equal(t, "claimed", out)
}

func TestExecuteErrorFirstClaimWins(t *testing.T) {
	cause := errors.New("boom")
	var got error
	e := NewEngine().OnError(
		func(ctx context.Context, c *domain.Context, err error) any {
			got = err
			return nil
		},
		func(ctx context.Context, c *domain.Context, err error) any {
			return "handled"
		},
		func(ctx context.Context, c *domain.Context, err error) any {
			t.Fatal("handler after the claiming one should not run")
			return nil
		},
	)

	result := e.ExecuteError(context.Background(), newCtx(), cause)
	assert.Equal(t, "handled", result)
	assert.Equal(t, cause, got)
}

func TestExecuteErrorFallbackSentinel(t *testing.T) {
	e := NewEngine()

	result := e.ExecuteError(context.Background(), newCtx(), errors.New("boom"))
	reply, ok := result.(*ErrorReply)
	require.True(t, ok)
	assert.Equal(t, "Internal server error", reply.Text)
	assert.Equal(t, 500, reply.Status)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	noop := func(ctx context.Context, c *domain.Context) (any, error) { return nil, nil }

	a := NewEngine().Before(noop)
	b := NewEngine().Before(noop, noop)

	merged := a.Merge(b)
	assert.Len(t, merged.before, 3)
	assert.Len(t, a.before, 1)
	assert.Len(t, b.before, 2)

	// Growing the merged engine must not leak back into the originals.
	merged.Before(noop)
	assert.Len(t, a.before, 1)
	assert.Len(t, b.before, 2)
}

func TestCloneIsIndependent(t *testing.T) {
	noop := func(ctx context.Context, c *domain.Context) (any, error) { return nil, nil }

	a := NewEngine().Before(noop)
	clone := a.Clone()
	clone.Before(noop)

	assert.Len(t, a.before, 1)
	assert.Len(t, clone.before, 2)
}
