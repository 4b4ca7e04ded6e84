package handler

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"clientvault/internal/model"
	"clientvault/internal/service"
	"clientvault/internal/storage"
	"clientvault/pkg/apierror"

	"github.com/go-chi/chi/v5"
)

type TrashHandler struct {
	registry *service.RegistryService
	trash    *service.TrashService
	auth     *service.AuthService
	audit    *service.AuditService
}

func NewTrashHandler(registry *service.RegistryService, trash *service.TrashService, auth *service.AuthService, audit *service.AuditService) *TrashHandler {
	return &TrashHandler{registry: registry, trash: trash, auth: auth, audit: audit}
}

func (h *TrashHandler) Trash(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	ws, principal, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.TrashRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if strings.TrimSpace(payload.Name) == "" {
		writeError(w, apierror.New("BAD_REQUEST", "name is required", "name", http.StatusBadRequest))
		return
	}

	actor := actorFromRequest(r)
	record, err := h.trash.Trash(ws, principal, payload.Path, payload.Name, actor)
	recordAudit(h.audit, "trash.move", actor, ws.ID(), path.Join(payload.Path, payload.Name), err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record)
}

func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	ws, principal, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if strings.TrimSpace(payload.TrashName) == "" {
		writeError(w, apierror.New("BAD_REQUEST", "trash_name is required", "trash_name", http.StatusBadRequest))
		return
	}

	record, err := h.trash.Restore(ws, principal, payload.TrashName)
	recordAudit(h.audit, "trash.restore", actorFromRequest(r), ws.ID(), payload.TrashName, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, record)
}

func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, principal, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	listing, err := h.trash.ListTrash(ws, principal, r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, listing)
}

func (h *TrashHandler) Purge(w http.ResponseWriter, r *http.Request) {
	ws, principal, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, apierror.New("BAD_REQUEST", "query parameter 'name' is required", "name", http.StatusBadRequest))
		return
	}

	relPath := r.URL.Query().Get("path")
	err = h.trash.PurgeOne(ws, principal, relPath, name)
	recordAudit(h.audit, "trash.purge", actorFromRequest(r), ws.ID(), path.Join(relPath, name), err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"purged": name})
}

func (h *TrashHandler) Empty(w http.ResponseWriter, r *http.Request) {
	ws, principal, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	count, err := h.trash.EmptyTrash(ws, principal, r.URL.Query().Get("path"))
	recordAudit(h.audit, "trash.empty", actorFromRequest(r), ws.ID(), "", err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"purged_count": count})
}

func (h *TrashHandler) resolve(r *http.Request) (*storage.Workspace, service.Principal, error) {
	principal, err := principalFromRequest(r, h.auth)
	if err != nil {
		return nil, service.Principal{}, err
	}

	ws, err := h.registry.Workspace(chi.URLParam(r, "client"))
	if err != nil {
		return nil, service.Principal{}, err
	}

	return ws, principal, nil
}
