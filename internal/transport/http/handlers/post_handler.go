package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/parentingo/parentingo/internal/service"
	"github.com/parentingo/parentingo/internal/transport/http/middleware"
)

type PostHandler struct {
	postService    *service.PostService
	commentService *service.CommentService
}

func NewPostHandler(postService *service.PostService, commentService *service.CommentService) *PostHandler {
	return &PostHandler{postService: postService, commentService: commentService}
}

func (h *PostHandler) RegisterRoutes(r *mux.Router) {
	const post = "/groups/{groupId}/posts/{postId}"

	r.Handle("/groups/{groupId}/posts", protect(h.Create)).Methods(http.MethodPost)
	r.Handle("/groups/{groupId}/posts", protect(h.List)).Methods(http.MethodGet)
	r.Handle("/groups/{groupId}/posts/count", protect(h.Count)).Methods(http.MethodGet)
	r.Handle(post, protect(h.Get)).Methods(http.MethodGet)
	r.Handle(post, protect(h.Delete)).Methods(http.MethodDelete)
	r.Handle(post+"/like", protect(h.Like)).Methods(http.MethodPatch)
	r.Handle(post+"/unlike", protect(h.Unlike)).Methods(http.MethodPatch)

	r.Handle(post+"/comments", protect(h.CreateComment)).Methods(http.MethodPost)
	r.Handle(post+"/comments", protect(h.ListComments)).Methods(http.MethodGet)
	r.Handle(post+"/comments/count", protect(h.CountComments)).Methods(http.MethodGet)
	r.Handle(post+"/comments/{commentId}", protect(h.DeleteComment)).Methods(http.MethodDelete)
}

func listQuery(r *http.Request) service.ListQuery {
	q := r.URL.Query()
	return service.ListQuery{Sort: q.Get("sort"), Skip: q.Get("skip"), Limit: q.Get("limit")}
}

// Create accepts JSON or a multipart form with an optional image.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		input service.CreatePostInput
		image *service.Upload
	)

	if isMultipart(r) {
		f, err := parseForm(w, r, "image")
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer f.close()
		input.Title, _ = f.value("title")
		input.Text, _ = f.value("text")
		image = f.upload
	} else if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.postService.Create(r.Context(), middleware.GetUser(r.Context()), mux.Vars(r)["groupId"], input, image)
	respond(w, r, http.StatusCreated, p, err)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context(), middleware.GetUser(r.Context()), mux.Vars(r)["groupId"], listQuery(r))
	respond(w, r, http.StatusOK, posts, err)
}

func (h *PostHandler) Count(w http.ResponseWriter, r *http.Request) {
	res, err := h.postService.Count(r.Context(), middleware.GetUser(r.Context()), mux.Vars(r)["groupId"])
	respond(w, r, http.StatusOK, res, err)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	p, err := h.postService.Get(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["postId"])
	respond(w, r, http.StatusOK, p, err)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.postService.Delete(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["postId"])
	respond(w, r, http.StatusOK, res, err)
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.postService.Like(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["postId"])
	respond(w, r, http.StatusOK, res, err)
}

func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.postService.Unlike(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["postId"])
	respond(w, r, http.StatusOK, res, err)
}

func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var input service.CreateCommentInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	vars := mux.Vars(r)
	c, err := h.commentService.Create(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["postId"], input)
	respond(w, r, http.StatusCreated, c, err)
}

func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	comments, err := h.commentService.List(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["postId"], listQuery(r))
	respond(w, r, http.StatusOK, comments, err)
}

func (h *PostHandler) CountComments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.commentService.Count(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["postId"])
	respond(w, r, http.StatusOK, res, err)
}

func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := h.commentService.Delete(r.Context(), middleware.GetUser(r.Context()), vars["groupId"], vars["postId"], vars["commentId"])
	respond(w, r, http.StatusOK, res, err)
}
