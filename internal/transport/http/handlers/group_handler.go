package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/parentingo/parentingo/internal/service"
	"github.com/parentingo/parentingo/internal/transport/http/middleware"
)

type GroupHandler struct {
	groupService *service.GroupService
}

func NewGroupHandler(groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

func (h *GroupHandler) RegisterRoutes(r *mux.Router) {
	r.Handle("/groups", protect(h.Create)).Methods(http.MethodPost)
	r.Handle("/groups", protect(h.List)).Methods(http.MethodGet)
	r.Handle("/groups/owned", protect(h.ListOwned)).Methods(http.MethodGet)
	r.Handle("/groups/member", protect(h.ListMember)).Methods(http.MethodGet)
	r.Handle("/groups/{groupId}", protect(h.Get)).Methods(http.MethodGet)

	r.Handle("/groups/{groupId}/members", protect(h.Join)).Methods(http.MethodPatch)
	r.Handle("/groups/{groupId}/leave", protect(h.Leave)).Methods(http.MethodPatch)
	r.Handle("/groups/{groupId}/mods/demote/{userId}", protect(h.Demote)).Methods(http.MethodPatch)
	r.Handle("/groups/{groupId}/mods/{userId}", protect(h.Promote)).Methods(http.MethodPatch)
	r.Handle("/groups/{groupId}/ban/{userId}", protect(h.Ban)).Methods(http.MethodPatch)
	r.Handle("/groups/{groupId}/unban/{userId}", protect(h.Unban)).Methods(http.MethodPatch)
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateGroupInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	g, err := h.groupService.Create(r.Context(), middleware.GetUser(r.Context()), input)
	respond(w, r, http.StatusCreated, g, err)
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupService.List(r.Context(), middleware.GetUser(r.Context()))
	respond(w, r, http.StatusOK, groups, err)
}

func (h *GroupHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupService.ListOwned(r.Context(), middleware.GetUser(r.Context()))
	respond(w, r, http.StatusOK, groups, err)
}

func (h *GroupHandler) ListMember(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupService.ListMember(r.Context(), middleware.GetUser(r.Context()))
	respond(w, r, http.StatusOK, groups, err)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.groupService.Get(r.Context(), middleware.GetUser(r.Context()), mux.Vars(r)["groupId"])
	respond(w, r, http.StatusOK, g, err)
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	res, err := h.groupService.Join(r.Context(), middleware.GetUser(r.Context()), mux.Vars(r)["groupId"])
	respond(w, r, http.StatusOK, res, err)
}

func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	res, err := h.groupService.Leave(r.Context(), middleware.GetUser(r.Context()), mux.Vars(r)["groupId"])
	respond(w, r, http.StatusOK, res, err)
}

func (h *GroupHandler) Promote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.groupService.Promote(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["userId"])
	respond(w, r, http.StatusOK, res, err)
}

func (h *GroupHandler) Demote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.groupService.Demote(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["userId"])
	respond(w, r, http.StatusOK, res, err)
}

func (h *GroupHandler) Ban(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.groupService.Ban(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["userId"])
	respond(w, r, http.StatusOK, res, err)
}

func (h *GroupHandler) Unban(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.groupService.Unban(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["userId"])
	respond(w, r, http.StatusOK, res, err)
}
