package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"clientvault/internal/model"
	"clientvault/internal/service"
	"clientvault/pkg/apierror"

	"github.com/go-chi/chi/v5"
)

// ClientHandler covers the client registry and folder structure side:
// creating workspaces, re-applying structures, and the tax year list.
type ClientHandler struct {
	registry *service.RegistryService
	audit    *service.AuditService
}

func NewClientHandler(registry *service.RegistryService, audit *service.AuditService) *ClientHandler {
	return &ClientHandler{registry: registry, audit: audit}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.registry.List()
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"clients": clients})
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	workspace, err := h.registry.Create(payload.Name, payload.Type, payload.Flags)
	recordAudit(h.audit, "client.create", actorFromRequest(r), workspace.ID, payload.Name, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, workspace)
}

func (h *ClientHandler) UpdateStructure(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	client := chi.URLParam(r, "client")

	var payload model.UpdateStructureRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	workspace, err := h.registry.UpdateStructure(client, payload.Type, payload.Flags)
	recordAudit(h.audit, "client.update_structure", actorFromRequest(r), client, payload.Type, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, workspace)
}

func (h *ClientHandler) TaxYears(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"years": h.registry.TaxYears()})
}

func (h *ClientHandler) AddTaxYear(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.AddTaxYearRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	year := strings.TrimSpace(payload.Year)
	if year == "" {
		writeError(w, apierror.New("BAD_REQUEST", "year is required", "year", http.StatusBadRequest))
		return
	}

	years, err := h.registry.AddTaxYear(year)
	recordAudit(h.audit, "taxyear.add", actorFromRequest(r), "", year, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"years": years})
}
