package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/utils/metrics"
)

func newCached(t *testing.T, next Provider) (*Cached, *miniredis.Miniredis, *metrics.Metrics) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	return NewCached(next, client, time.Minute, m, zap.NewNop()), mr, m
}

func TestCached_ResolveUsername(t *testing.T) {
	next := new(mockProvider)
	next.On("ResolveUsername", mock.Anything, "Frodo").Return("u-frodo", nil).Once()
	c, mr, m := newCached(t, next)
	ctx := context.Background()

	id, err := c.ResolveUsername(ctx, "Frodo")
	require.NoError(t, err)
	assert.Equal(t, "u-frodo", id)

	id, err = c.ResolveUsername(ctx, "Frodo")
	require.NoError(t, err)
	assert.Equal(t, "u-frodo", id)

	next.AssertExpectations(t)
	assert.True(t, mr.Exists(usernameKeyPrefix+"frodo"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityCache.WithLabelValues("miss")))
}

func TestCached_DoesNotCacheMisses(t *testing.T) {
	next := new(mockProvider)
	next.On("ResolveUsername", mock.Anything, "gollum").Return("", ErrUserNotFound).Twice()
	c, mr, _ := newCached(t, next)

	for i := 0; i < 2; i++ {
		_, err := c.ResolveUsername(context.Background(), "gollum")
		assert.ErrorIs(t, err, ErrUserNotFound)
	}

	next.AssertExpectations(t)
	assert.False(t, mr.Exists(usernameKeyPrefix+"gollum"))
}

func TestCached_GetProfile(t *testing.T) {
	next := new(mockProvider)
	next.On("GetProfile", mock.Anything, "u-sam").
		Return(&model.Profile{UserID: "u-sam", Username: "sam", DisplayName: "Sam"}, nil).Once()
	c, mr, _ := newCached(t, next)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := c.GetProfile(ctx, "u-sam")
		require.NoError(t, err)
		assert.Equal(t, "Sam", p.DisplayName)
	}
	next.AssertExpectations(t)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists(profileKeyPrefix+"u-sam"))
}

func TestCached_Invalidate(t *testing.T) {
	next := new(mockProvider)
	next.On("GetProfile", mock.Anything, "u-sam").
		Return(&model.Profile{UserID: "u-sam", DisplayName: "Sam"}, nil).Twice()
	c, _, _ := newCached(t, next)
	ctx := context.Background()

	_, err := c.GetProfile(ctx, "u-sam")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "u-sam", "sam"))
	_, err = c.GetProfile(ctx, "u-sam")
	require.NoError(t, err)

	next.AssertExpectations(t)
}

func TestCached_RedisDownFallsThrough(t *testing.T) {
	next := new(mockProvider)
	next.On("ResolveUsername", mock.Anything, "frodo").Return("u-frodo", nil)
	c, mr, _ := newCached(t, next)
	mr.Close()

	id, err := c.ResolveUsername(context.Background(), "frodo")
	require.NoError(t, err)
	assert.Equal(t, "u-frodo", id)
}
