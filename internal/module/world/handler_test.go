package world

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/worldboard/server/internal/model"
	"github.com/worldboard/server/internal/utils/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testUserHeader = "X-Test-User"

func newTestRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	f := newFixture(t)
	h := NewHandler(f.svc, zap.NewNop())

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, c.GetHeader(testUserHeader))
		c.Next()
	})
	h.RegisterRoutes(api)
	return r, f
}

func doRequest(r *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(testUserHeader, user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandler_InviteFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/api/v1/worlds", "u-bilbo", `{"name":"Shire"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var world model.World
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &world))

	w = doRequest(r, http.MethodPost, "/api/v1/worlds/"+world.ID.String()+"/invites", "u-bilbo", `{"username":"frodo"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var invite model.Membership
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invite))
	assert.Equal(t, model.MemberStatusPending, invite.Status)

	w = doRequest(r, http.MethodGet, "/api/v1/invites", "u-frodo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"world_name":"Shire"`)

	w = doRequest(r, http.MethodPost, "/api/v1/invites/"+invite.ID.String()+"/accept", "u-frodo", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodPost, "/api/v1/invites/"+invite.ID.String()+"/accept", "u-frodo", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decodeError(t, w).Error.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/worlds", "u-frodo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), world.ID.String())
}

func TestHandler_ExplicitDenials(t *testing.T) {
	r, f := newTestRouter(t)
	world := f.createWorld(t, "u-bilbo", "Shire")
	f.join(t, world, "frodo")
	base := "/api/v1/worlds/" + world.ID.String()

	tests := []struct {
		name    string
		method  string
		path    string
		user    string
		body    string
		status  int
		code    string
		message string
	}{
		{"member invites", http.MethodPost, base + "/invites", "u-frodo", `{"username":"sam"}`, http.StatusForbidden, "FORBIDDEN", "only the world owner can invite members"},
		{"member renames", http.MethodPatch, base, "u-frodo", `{"name":"Bag End"}`, http.StatusForbidden, "FORBIDDEN", "only the world owner can rename the world"},
		{"unknown invitee", http.MethodPost, base + "/invites", "u-bilbo", `{"username":"gollum"}`, http.StatusNotFound, "NOT_FOUND", "user not found"},
		{"owner leaves", http.MethodPost, base + "/leave", "u-bilbo", "", http.StatusConflict, "CONFLICT", ErrOwnerCannotLeave.Message},
		{"bad theme", http.MethodPut, base + "/theme", "u-bilbo", `{"theme":"lava"}`, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown theme"},
		{"outsider reads", http.MethodGet, base, "u-sauron", "", http.StatusForbidden, "FORBIDDEN", "you are not a member of this world"},
		{"bad id", http.MethodGet, "/api/v1/worlds/not-a-uuid", "u-bilbo", "", http.StatusBadRequest, "BAD_REQUEST", "invalid id"},
		{"missing name", http.MethodPost, "/api/v1/worlds", "u-bilbo", `{}`, http.StatusBadRequest, "BAD_REQUEST", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, tt.method, tt.path, tt.user, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decodeError(t, w)
			assert.Equal(t, tt.code, body.Error.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Error.Message)
			}
		})
	}
}

func TestHandler_KickAndDelete(t *testing.T) {
	r, f := newTestRouter(t)
	world := f.createWorld(t, "u-bilbo", "Shire")
	frodo := f.join(t, world, "frodo")

	w := doRequest(r, http.MethodDelete, "/api/v1/memberships/"+frodo.ID.String(), "u-bilbo", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodDelete, "/api/v1/worlds/"+world.ID.String(), "u-bilbo", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/worlds/"+world.ID.String(), "u-bilbo", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
