package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/umn33q/adom-testovoe/internal/models"
)

func (h *Handler) AdminCreateComment(w http.ResponseWriter, r *http.Request) {
	h.createComment(w, r, models.ScopeAdmin)
}

func (h *Handler) PublicCreateComment(w http.ResponseWriter, r *http.Request) {
	h.createComment(w, r, models.ScopePublic)
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request, scope models.Scope) {
	taskID, err := pathID(r, "taskID")
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var input models.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid input")
		return
	}
	comment, err := h.Comments.Create(r.Context(), taskID, input, callerClaims(r).UserID, scope)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, comment)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "taskID")
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid task id")
		return
	}
	list, err := h.Comments.ListForTask(r.Context(), taskID, callerClaims(r).UserID, models.ScopeAdmin)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, list)
}

func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	taskID, id, err := commentPath(r)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	comment, err := h.Comments.Get(r.Context(), taskID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, comment)
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	taskID, id, err := commentPath(r)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	var patch models.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid input")
		return
	}
	comment, err := h.Comments.Update(r.Context(), taskID, id, patch, callerClaims(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, comment)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	taskID, id, err := commentPath(r)
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Comments.Delete(r.Context(), taskID, id, callerClaims(r).UserID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, "Comment deleted")
}

func commentPath(r *http.Request) (taskID, id int64, err error) {
	taskID, err = pathID(r, "taskID")
	if err != nil {
		return 0, 0, err
	}
	id, err = pathID(r, "id")
	return taskID, id, err
}
