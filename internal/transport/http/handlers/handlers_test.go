package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentingo/parentingo/internal/blob"
	"github.com/parentingo/parentingo/internal/metrics"
	"github.com/parentingo/parentingo/internal/repository/memory"
	"github.com/parentingo/parentingo/internal/service"
	"github.com/parentingo/parentingo/internal/session"
)

type api struct {
	handler http.Handler
	blobs   *blob.MemoryStore
}

func newAPI(t *testing.T) *api {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.New().Repositories()
	blobs := blob.NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())
	deps := service.Deps{Store: store, Blobs: blobs, Metrics: m}

	svc := Services{
		Auth:     service.NewAuthService(store.Users, session.NewMemoryStore(), "test-secret", time.Hour),
		Users:    service.NewUserService(deps),
		Groups:   service.NewGroupService(deps),
		Posts:    service.NewPostService(deps),
		Comments: service.NewCommentService(deps),
	}
	return &api{
		handler: NewRouter(svc, RouterOptions{Logger: logger, Metrics: m, CORSOrigin: "*"}),
		blobs:   blobs,
	}
}

func (a *api) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *api) upload(t *testing.T, path, token, field string, fields map[string]string, file []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="pic.jpg"`, field))
		h.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func assertMessage(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	assert.Equal(t, status, w.Code, w.Body.String())
	assert.Equal(t, message, decode(t, w)["message"])
}

type account struct {
	id    string
	token string
}

func (a *api) register(t *testing.T, username string) account {
	t.Helper()
	w := a.do(t, http.MethodPost, "/users", "", map[string]string{
		"email":    username + "@example.com",
		"username": username,
		"name":     username,
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	user := body["user"].(map[string]any)
	return account{id: user["id"].(string), token: body["access_token"].(string)}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	w := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)
	alice := a.register(t, "alice")

	w := a.do(t, http.MethodPost, "/users", alice.token, map[string]string{"username": "other"})
	assertMessage(t, w, http.StatusBadRequest, "Authenticated session already exists - log out to create new user")

	w = a.do(t, http.MethodPost, "/users", "", map[string]string{
		"email": "alice@example.com", "username": "alice", "name": "a", "password": "Passw0rd!",
	})
	assertMessage(t, w, http.StatusBadRequest, "Invalid input - check each field for errors")
	errs := decode(t, w)["errors"].(map[string]any)
	assert.Equal(t, "Email already in use", errs["email"])
	assert.Equal(t, "Username already taken", errs["username"])

	w = a.do(t, http.MethodPost, "/users/login", "", map[string]string{"username": "alice", "password": "nope"})
	assertMessage(t, w, http.StatusUnauthorized, "Unauthorized")

	w = a.do(t, http.MethodPost, "/users/login", "", map[string]string{"username": "alice", "password": "Passw0rd!"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["access_token"].(string)

	w = a.do(t, http.MethodPost, "/users/login", token, map[string]string{"username": "alice", "password": "Passw0rd!"})
	assertMessage(t, w, http.StatusForbidden, "User already authenticated")

	w = a.do(t, http.MethodGet, "/users/current", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["username"])
	assert.NotContains(t, w.Body.String(), "Passw0rd")

	w = a.do(t, http.MethodPost, "/users/logout", token, nil)
	assertMessage(t, w, http.StatusOK, "User logged out")

	w = a.do(t, http.MethodGet, "/users/current", token, nil)
	assertMessage(t, w, http.StatusUnauthorized, "User authentication required")

	// the first session is still valid
	w = a.do(t, http.MethodGet, "/users/current", alice.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMutatingEndpointsRequireAuthentication(t *testing.T) {
	a := newAPI(t)
	id := "5f0c6a52-8f53-4b7e-9a55-2f4f3c1f6a10"
	g := "/groups/" + id
	p := g + "/posts/" + id

	routes := []struct{ method, path string }{
		{http.MethodPost, "/users/logout"},
		{http.MethodPatch, "/users/current"},
		{http.MethodPatch, "/users/" + id + "/follow"},
		{http.MethodPatch, "/users/" + id + "/unfollow"},
		{http.MethodPost, "/groups"},
		{http.MethodPatch, g + "/members"},
		{http.MethodPatch, g + "/leave"},
		{http.MethodPatch, g + "/mods/" + id},
		{http.MethodPatch, g + "/mods/demote/" + id},
		{http.MethodPatch, g + "/ban/" + id},
		{http.MethodPatch, g + "/unban/" + id},
		{http.MethodPost, g + "/posts"},
		{http.MethodDelete, p},
		{http.MethodPatch, p + "/like"},
		{http.MethodPatch, p + "/unlike"},
		{http.MethodPost, p + "/comments"},
		{http.MethodDelete, p + "/comments/" + id},
		{http.MethodGet, g + "/posts"},
		{http.MethodGet, "/groups/not-an-id"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := a.do(t, rt.method, rt.path, "", nil)
			assertMessage(t, w, http.StatusUnauthorized, "User authentication required")

			w = a.do(t, rt.method, rt.path, "garbage", nil)
			assertMessage(t, w, http.StatusUnauthorized, "User authentication required")
		})
	}
}

func TestGroupModerationFlow(t *testing.T) {
	a := newAPI(t)
	alice, bob, carol := a.register(t, "alice"), a.register(t, "bob"), a.register(t, "carol")

	w := a.do(t, http.MethodPost, "/groups", alice.token, map[string]string{"name": "general", "description": "anything goes"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	g := "/groups/" + decode(t, w)["id"].(string)

	w = a.do(t, http.MethodPost, "/groups", bob.token, map[string]string{"name": "general", "description": "dup"})
	assertMessage(t, w, http.StatusBadRequest, "Invalid input - check each field for errors")

	assertMessage(t, a.do(t, http.MethodPatch, g+"/members", bob.token, nil), http.StatusOK, "bob joined general group")
	assertMessage(t, a.do(t, http.MethodPatch, g+"/members", bob.token, nil), http.StatusConflict, "bob is already a member of general group")
	assertMessage(t, a.do(t, http.MethodPatch, g+"/members", carol.token, nil), http.StatusOK, "carol joined general group")

	assertMessage(t, a.do(t, http.MethodPatch, g+"/mods/"+bob.id, carol.token, nil), http.StatusForbidden, "Only group admin can make this request")
	assertMessage(t, a.do(t, http.MethodPatch, g+"/mods/"+bob.id, alice.token, nil), http.StatusOK, "bob is now a mod of general group")
	assertMessage(t, a.do(t, http.MethodPatch, g+"/ban/"+alice.id, bob.token, nil), http.StatusForbidden, "Group admin cannot be banned")
	assertMessage(t, a.do(t, http.MethodPatch, g+"/ban/"+carol.id, bob.token, nil), http.StatusOK, "carol has been banned from general group")
	assertMessage(t, a.do(t, http.MethodPatch, g+"/members", carol.token, nil), http.StatusForbidden, "carol is banned from general group")
	assertMessage(t, a.do(t, http.MethodPatch, g+"/unban/"+carol.id, bob.token, nil), http.StatusOK, "carol has been unbanned from general group")
	assertMessage(t, a.do(t, http.MethodPatch, g+"/mods/demote/"+bob.id, alice.token, nil), http.StatusOK, "bob is no longer a mod of general group")
	assertMessage(t, a.do(t, http.MethodPatch, g+"/leave", alice.token, nil), http.StatusForbidden, "Group admin cannot leave the group")

	w = a.do(t, http.MethodGet, g, carol.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "outsider", decode(t, w)["role"])

	w = a.do(t, http.MethodGet, "/groups/owned", alice.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"general"`)

	assertMessage(t, a.do(t, http.MethodGet, "/groups/nope", alice.token, nil), http.StatusBadRequest, "Invalid group id")
	missing := "/groups/5f0c6a52-8f53-4b7e-9a55-2f4f3c1f6a10"
	assertMessage(t, a.do(t, http.MethodGet, missing, alice.token, nil), http.StatusNotFound,
		"No group found with id 5f0c6a52-8f53-4b7e-9a55-2f4f3c1f6a10")
}

func TestPostsAndComments(t *testing.T) {
	a := newAPI(t)
	alice, bob, carol := a.register(t, "alice"), a.register(t, "bob"), a.register(t, "carol")

	w := a.do(t, http.MethodPost, "/groups", alice.token, map[string]string{"name": "general", "description": "anything goes"})
	require.Equal(t, http.StatusCreated, w.Code)
	g := "/groups/" + decode(t, w)["id"].(string)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPatch, g+"/members", bob.token, nil).Code)

	assertMessage(t, a.do(t, http.MethodPost, g+"/posts", carol.token, map[string]string{}), http.StatusForbidden,
		"carol is not a member of general group")

	w = a.do(t, http.MethodPost, g+"/posts", bob.token, map[string]string{"title": "Sleep", "text": "any tips?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := g + "/posts/" + decode(t, w)["id"].(string)

	w = a.upload(t, g+"/posts", alice.token, "image", map[string]string{"title": "Rules", "text": "be nice"}, []byte("\xff\xd8\xff\xe0 jpeg bytes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["image"])
	assert.Equal(t, 1, a.blobs.Len())

	w = a.upload(t, g+"/posts", alice.token, "image", map[string]string{"title": "Big", "text": "too big"},
		bytes.Repeat([]byte{1}, service.MaxUploadSize+formSlack))
	assertMessage(t, w, http.StatusRequestEntityTooLarge, "File too large (10MB max)")

	w = a.do(t, http.MethodGet, g+"/posts/count", carol.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "2 posts found", body["message"])
	assert.Equal(t, float64(2), body["count"])

	w = a.do(t, http.MethodGet, g+"/posts?sort=newest&limit=1", bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var posts []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "Rules", posts[0]["title"])

	assertMessage(t, a.do(t, http.MethodPatch, p+"/like", alice.token, nil), http.StatusOK, "Post liked")
	assertMessage(t, a.do(t, http.MethodPatch, p+"/like", alice.token, nil), http.StatusForbidden, "Can only like a post once")
	assertMessage(t, a.do(t, http.MethodPatch, p+"/unlike", bob.token, nil), http.StatusForbidden, "Post not liked")

	w = a.do(t, http.MethodPost, p+"/comments", alice.token, map[string]string{"text": "try a routine"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	c := p + "/comments/" + decode(t, w)["id"].(string)

	w = a.do(t, http.MethodGet, p+"/comments/count", carol.token, nil)
	assertMessage(t, w, http.StatusOK, "Post has 1 comment")

	assertMessage(t, a.do(t, http.MethodDelete, c, bob.token, nil), http.StatusForbidden, "Only group admin or mod can make this request")
	assertMessage(t, a.do(t, http.MethodDelete, c, alice.token, nil), http.StatusOK, "Comment deleted")
	assertMessage(t, a.do(t, http.MethodDelete, p, alice.token, nil), http.StatusOK, "Post deleted")
	assertMessage(t, a.do(t, http.MethodGet, p, alice.token, nil), http.StatusNotFound,
		"No post found with id "+strings.TrimPrefix(p, g+"/posts/"))
}

func TestProfileAndFollow(t *testing.T) {
	a := newAPI(t)
	alice, bob := a.register(t, "alice"), a.register(t, "bob")

	w := a.do(t, http.MethodPatch, "/users/current", alice.token, map[string]string{"bio": "two kids"})
	assertMessage(t, w, http.StatusOK, "User info updated")

	w = a.do(t, http.MethodGet, "/users/"+alice.id, bob.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "two kids", body["bio"])
	assert.NotContains(t, body, "email")

	assertMessage(t, a.do(t, http.MethodPatch, "/users/"+bob.id+"/follow", alice.token, nil), http.StatusOK, "User is now following bob")
	assertMessage(t, a.do(t, http.MethodPatch, "/users/"+bob.id+"/follow", alice.token, nil), http.StatusConflict, "User already following bob")
	assertMessage(t, a.do(t, http.MethodPatch, "/users/"+alice.id+"/follow", alice.token, nil), http.StatusForbidden, "User cannot follow themselves")
	assertMessage(t, a.do(t, http.MethodPatch, "/users/"+bob.id+"/unfollow", alice.token, nil), http.StatusOK, "User is no longer following bob")
}

func TestInvalidJSON(t *testing.T) {
	a := newAPI(t)
	alice := a.register(t, "alice")

	req := httptest.NewRequest(http.MethodPost, "/groups", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+alice.token)
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	assertMessage(t, w, http.StatusBadRequest, "Invalid request body")
}

func TestCORSAndMetrics(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodOptions, "/groups", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	a.do(t, http.MethodGet, "/health", "", nil)
	w = a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `parentingo_http_requests_total{method="GET",route="/health",status="200"} 1`)

	assertMessage(t, a.do(t, http.MethodGet, "/nowhere", "", nil), http.StatusNotFound, "Not found")
}
