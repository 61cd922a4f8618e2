package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/shared/database/dbtest"
)

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(dbtest.Open(t))

	require.NoError(t, dir.Upsert(ctx, &model.Profile{UserID: "u-frodo", Username: "Frodo", DisplayName: "Frodo Baggins"}))
	require.NoError(t, dir.Upsert(ctx, &model.Profile{UserID: "u-sam", Username: "sam", DisplayName: "Sam"}))

	t.Run("resolves case-insensitively", func(t *testing.T) {
		id, err := dir.ResolveUsername(ctx, " frodo ")
		require.NoError(t, err)
		assert.Equal(t, "u-frodo", id)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := dir.ResolveUsername(ctx, "gollum")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("empty username", func(t *testing.T) {
		_, err := dir.ResolveUsername(ctx, "")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("get profile", func(t *testing.T) {
		p, err := dir.GetProfile(ctx, "u-sam")
		require.NoError(t, err)
		assert.Equal(t, "Sam", p.DisplayName)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		require.NoError(t, dir.Upsert(ctx, &model.Profile{UserID: "u-sam", Username: "sam", DisplayName: "Samwise"}))
		p, err := dir.GetProfile(ctx, "u-sam")
		require.NoError(t, err)
		assert.Equal(t, "Samwise", p.DisplayName)
	})

	t.Run("username taken", func(t *testing.T) {
		err := dir.Upsert(ctx, &model.Profile{UserID: "u-imposter", Username: "sam", DisplayName: "Not Sam"})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := dir.GetProfile(ctx, "u-nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
