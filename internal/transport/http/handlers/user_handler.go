package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/parentingo/parentingo/internal/service"
	"github.com/parentingo/parentingo/internal/transport/http/middleware"
)

type UserHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

func NewUserHandler(authService *service.AuthService, userService *service.UserService) *UserHandler {
	return &UserHandler{authService: authService, userService: userService}
}

func (h *UserHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/users", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/users/login", h.Login).Methods(http.MethodPost)
	r.Handle("/users/logout", protect(h.Logout)).Methods(http.MethodPost)
	r.Handle("/users/current", protect(h.Current)).Methods(http.MethodGet)
	r.Handle("/users/current", protect(h.UpdateProfile)).Methods(http.MethodPatch)
	r.Handle("/users/{userId}", protect(h.Get)).Methods(http.MethodGet)
	r.Handle("/users/{userId}/follow", protect(h.Follow)).Methods(http.MethodPatch)
	r.Handle("/users/{userId}/unfollow", protect(h.Unfollow)).Methods(http.MethodPatch)
}

func protect(fn http.HandlerFunc) http.Handler {
	return middleware.RequireUser(fn)
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.authService.Register(r.Context(), middleware.GetUser(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), middleware.GetUser(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.authService.Logout(ctx, middleware.GetUser(ctx), middleware.GetSession(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Current(r.Context(), middleware.GetUser(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Get(r.Context(), middleware.GetUser(r.Context()), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile accepts JSON or a multipart form with an optional avatar.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var (
		input  service.ProfileInput
		avatar *service.Upload
	)

	if isMultipart(r) {
		f, err := parseForm(w, r, "avatar")
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer f.close()
		if v, ok := f.value("name"); ok {
			input.Name = &v
		}
		if v, ok := f.value("bio"); ok {
			input.Bio = &v
		}
		avatar = f.upload
	} else if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.userService.UpdateProfile(r.Context(), middleware.GetUser(r.Context()), input, avatar)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	res, err := h.userService.Follow(r.Context(), middleware.GetUser(r.Context()), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	res, err := h.userService.Unfollow(r.Context(), middleware.GetUser(r.Context()), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
