package mailbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxSendRecvOrder(t *testing.T) {
	m := New[int](4)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, m.Send(ctx, i))
	}

	for i := 0; i < 4; i++ {
		v, err := m.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
}

func TestMailboxSendBlocksUntilContextDone(t *testing.T) {
	m := New[int](1)
	ctx := context.Background()
	require.NoError(t, m.Send(ctx, 1))

	cctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Send(cctx, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMailboxRecvAfterCloseDrainsThenErrors(t *testing.T) {
	m := New[int](2)
	ctx := context.Background()
	require.NoError(t, m.Send(ctx, 1))
	m.Close()

	v, err := m.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = m.Recv(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOneShotResolveThenWait(t *testing.T) {
	o := NewOneShot[string]()
	o.Resolve("done")
	v, err := o.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestOneShotWaitTimesOut(t *testing.T) {
	o := NewOneShot[string]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := o.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
