package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/infra/events"
	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/module/identity"
	"github.com/worldboard/server/internal/module/task"
	"github.com/worldboard/server/internal/module/world"
	"github.com/worldboard/server/internal/reorder"
	"github.com/worldboard/server/internal/shared/config"
	"github.com/worldboard/server/internal/shared/database/dbtest"
	apperrors "github.com/worldboard/server/internal/utils/errors"
	"github.com/worldboard/server/internal/utils/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type users map[string]string

func (u users) ResolveUsername(_ context.Context, username string) (string, error) {
	id, ok := u[username]
	if !ok {
		return "", identity.ErrUserNotFound
	}
	return id, nil
}

func (u users) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	return &model.Profile{UserID: userID}, nil
}

type board struct {
	server *httptest.Server
	worlds *world.Service
	tasks  *task.Service
}

// newBoard serves the task API over HTTP. The bearer token is taken as
// the caller's user id.
func newBoard(t *testing.T) *board {
	t.Helper()
	db := dbtest.Open(t)
	bus := events.NewBus(zap.NewNop())
	worldRepo := world.NewRepository(db)

	b := &board{
		worlds: world.NewService(worldRepo, users{"frodo": "u-frodo", "sam": "u-sam"}, bus, zap.NewNop()),
		tasks:  task.NewService(task.NewRepository(db), worldRepo, bus, nil, zap.NewNop()),
	}

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		c.Next()
	})
	task.NewHandler(b.tasks, zap.NewNop()).RegisterRoutes(api)

	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

func (b *board) client(token string) *Client {
	return New(b.server.Client(), b.server.URL+"/api/v1/", token)
}

func (b *board) world(t *testing.T, descriptions ...string) *model.World {
	t.Helper()
	ctx := context.Background()
	w, err := b.worlds.CreateWorld(ctx, "u-bilbo", &world.CreateWorldRequest{Name: "Shire", Invitee: "frodo"})
	require.NoError(t, err)

	invites, err := b.worlds.ListMyInvites(ctx, "u-frodo")
	require.NoError(t, err)
	require.Len(t, invites, 1)
	_, err = b.worlds.AcceptInvite(ctx, "u-frodo", invites[0].MembershipID)
	require.NoError(t, err)

	for _, d := range descriptions {
		_, err := b.tasks.CreateTask(ctx, "u-bilbo", w.ID, &task.CreateTaskRequest{Description: d})
		require.NoError(t, err)
	}
	return w
}

func descriptions(items []model.Task) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.Description
	}
	return out
}

func TestClient_ListAndReorder(t *testing.T) {
	b := newBoard(t)
	w := b.world(t, "A", "B", "C")
	c := b.client("u-frodo")
	ctx := context.Background()

	list, err := c.ListTasks(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Version)
	require.Equal(t, []string{"A", "B", "C"}, descriptions(list.Tasks))

	version, err := c.Reorder(ctx, w.ID, []model.PositionUpdate{
		{TaskID: list.Tasks[1].ID, Position: 0},
		{TaskID: list.Tasks[2].ID, Position: 1},
		{TaskID: list.Tasks[0].ID, Position: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	list, err = c.ListTasks(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, descriptions(list.Tasks))
}

func TestClient_Errors(t *testing.T) {
	b := newBoard(t)
	w := b.world(t, "A")
	ctx := context.Background()

	_, err := b.client("u-gollum").ListTasks(ctx, w.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Equal(t, "you are not a member of this world", err.Error())

	_, err = b.client("u-frodo").Reorder(ctx, w.ID, []model.PositionUpdate{})
	assert.ErrorIs(t, err, task.ErrStaleTaskList)
	assert.True(t, apperrors.IsConflict(err))

	_, err = b.client("u-frodo").ListTasks(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.Client(), srv.URL, "t").ListTasks(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.GetStatusCode(err))
}

func TestSynchronizer_EndToEnd(t *testing.T) {
	b := newBoard(t)
	w := b.world(t, "T1", "T2")
	c := b.client("u-frodo")
	ctx := context.Background()

	s := c.Synchronizer(w.ID, &config.ReorderConfig{GraceWindow: time.Second}, zap.NewNop())
	took, err := c.Refresh(ctx, s, w.ID)
	require.NoError(t, err)
	require.True(t, took)

	require.NoError(t, s.Move(ctx, 1, 0))
	assert.Equal(t, []string{"T2", "T1"}, descriptions(s.Items()))

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(waitCtx))
	assert.Equal(t, reorder.StateIdle, s.State())

	// Another member adds a task; the synchronizer picks it up.
	_, err = b.tasks.CreateTask(ctx, "u-bilbo", w.ID, &task.CreateTaskRequest{Description: "T3"})
	require.NoError(t, err)

	took, err = c.Refresh(ctx, s, w.ID)
	require.NoError(t, err)
	assert.True(t, took)
	assert.Equal(t, []string{"T2", "T1", "T3"}, descriptions(s.Items()))
}
