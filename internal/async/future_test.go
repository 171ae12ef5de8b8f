package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braamfashionweek/formmail/internal/async"
)

func TestGo_Result(t *testing.T) {
	t.Parallel()

	f := async.Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, f.IsComplete())
}

func TestGo_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	f := async.Go(context.Background(), func(context.Context) (string, error) {
		return "", boom
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, boom)
}

func TestGo_PreCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	f := async.Go(ctx, func(context.Context) (int, error) {
		called = true
		return 1, nil
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestGo_NilFunc(t *testing.T) {
	t.Parallel()

	_, err := async.Go[int](context.Background(), nil).Await()
	assert.ErrorIs(t, err, async.ErrNilFunc)
}

func TestAwaitContext_Deadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	f := async.Go(context.Background(), func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.AwaitContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.IsComplete())
}

func TestResolved(t *testing.T) {
	t.Parallel()

	f := async.Resolved("ok", nil)
	assert.True(t, f.IsComplete())

	v, err := f.AwaitContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
