package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStatsCountsLiveEntities(t *testing.T) {
	b := startBroker(t)
	peer := connectPeer(t, b)
	defer peer.Close()

	before, err := b.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, before.Objects)
	require.Zero(t, before.Services)

	createObjectAndService(t, peer, 1)

	after, err := b.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, after.Objects)
	require.Equal(t, 1, after.Services)
	require.Equal(t, 1, after.Connections)
}

func TestStatsZeroAfterDisconnect(t *testing.T) {
	b := startBroker(t)
	owner := connectPeer(t, b)

	createObjectAndService(t, owner, 1)

	mid, err := b.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, mid.Objects)
	require.Equal(t, 1, mid.Services)

	require.NoError(t, owner.Close())

	require.Eventually(t, func() bool {
		stats, err := b.Stats(context.Background())
		if err != nil {
			return false
		}
		return stats.Objects == 0 && stats.Services == 0 && stats.Connections == 0
	}, 2*time.Second, 10*time.Millisecond)
}
