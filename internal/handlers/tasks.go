package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/umn33q/adom-testovoe/internal/models"
)

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var input models.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid input")
		return
	}
	task, err := h.Tasks.Create(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, task)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var patch models.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid input")
		return
	}
	task, err := h.Tasks.Update(r.Context(), id, patch, callerClaims(r).UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, task)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if err := h.Tasks.Delete(r.Context(), id, callerClaims(r).UserID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondMessage(w, http.StatusOK, "Task deleted")
}

func (h *Handler) AdminGetTask(w http.ResponseWriter, r *http.Request) {
	h.getTask(w, r, models.ScopeAdmin, false)
}

func (h *Handler) AdminListTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, models.ScopeAdmin)
}

// PublicGetTask includes the comment thread; the public app shows task
// detail and comments on one screen.
func (h *Handler) PublicGetTask(w http.ResponseWriter, r *http.Request) {
	h.getTask(w, r, models.ScopePublic, true)
}

func (h *Handler) PublicListTasks(w http.ResponseWriter, r *http.Request) {
	h.listTasks(w, r, models.ScopePublic)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request, scope models.Scope, includeComments bool) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, http.StatusBadRequest, "invalid task id")
		return
	}
	task, err := h.Tasks.Get(r.Context(), id, callerClaims(r).UserID, scope, includeComments)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, task)
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request, scope models.Scope) {
	query := r.URL.Query()
	filter := models.TaskFilter{
		Status: models.TaskStatus(query.Get("status")),
	}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.PerPage, _ = strconv.Atoi(query.Get("per_page"))

	page, err := h.Tasks.List(r.Context(), filter, callerClaims(r).UserID, scope)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, page)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
