package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/parentingo/parentingo/internal/metrics"
	"github.com/parentingo/parentingo/internal/service"
	"github.com/parentingo/parentingo/internal/transport/http/middleware"
	"github.com/parentingo/parentingo/internal/transport/ws"
	"github.com/sirupsen/logrus"
)

// Services are the application services the API exposes.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Groups   *service.GroupService
	Posts    *service.PostService
	Comments *service.CommentService
}

// RouterOptions configures NewRouter. Hub and Metrics are optional; the
// /ws and /metrics routes are only mounted when set.
type RouterOptions struct {
	Logger     *logrus.Logger
	Metrics    *metrics.Metrics
	Hub        *ws.Hub
	CORSOrigin string
}

// NewRouter builds the HTTP API.
func NewRouter(svc Services, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: "Not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Message: "Method not allowed"})
	})

	r.Use(middleware.Metrics(opts.Metrics), middleware.Auth(svc.Auth))

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}
	if opts.Hub != nil {
		r.Handle("/ws", ws.ServeWS(opts.Hub, svc.Auth, originPatterns(opts.CORSOrigin))).Methods(http.MethodGet)
	}

	NewUserHandler(svc.Auth, svc.Users).RegisterRoutes(r)
	NewGroupHandler(svc.Groups).RegisterRoutes(r)
	NewPostHandler(svc.Posts, svc.Comments).RegisterRoutes(r)

	var h http.Handler = r
	h = middleware.RequestLogger(opts.Logger)(h)
	h = middleware.CORS(opts.CORSOrigin)(h)
	return h
}

// originPatterns turns the CORS origin into a WebSocket origin pattern,
// which matches on host only.
func originPatterns(origin string) []string {
	if origin == "*" || origin == "" {
		return []string{"*"}
	}
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return []string{u.Host}
	}
	return []string{origin}
}
