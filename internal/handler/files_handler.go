package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"clientvault/internal/model"
	"clientvault/internal/service"
	"clientvault/internal/storage"
	"clientvault/pkg/apierror"

	"github.com/go-chi/chi/v5"
)

type FilesHandler struct {
	registry      *service.RegistryService
	items         *service.ItemService
	auth          *service.AuthService
	audit         *service.AuditService
	maxUploadSize int64
}

func NewFilesHandler(registry *service.RegistryService, items *service.ItemService, auth *service.AuthService, audit *service.AuditService, maxUploadSize int64) *FilesHandler {
	return &FilesHandler{
		registry:      registry,
		items:         items,
		auth:          auth,
		audit:         audit,
		maxUploadSize: maxUploadSize,
	}
}

func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, principal, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	listing, err := h.items.List(ws, principal, r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, listing)
}

func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ws, principal, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid multipart body", "", http.StatusBadRequest))
		return
	}

	// Files are buffered until the whole stream is read: the "path" field
	// may arrive after the file parts, and the destination must apply to
	// all of them regardless of field order.
	type pendingFile struct {
		name string
		data []byte
	}

	destination := ""
	pending := []pendingFile{}

	for {
		part, nextErr := reader.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			if isPayloadTooLarge(nextErr) {
				writeError(w, apierror.New("PAYLOAD_TOO_LARGE", "request body exceeds MAX_UPLOAD_SIZE", "MAX_UPLOAD_SIZE", http.StatusRequestEntityTooLarge))
				return
			}
			writeError(w, apierror.New("BAD_REQUEST", "invalid multipart stream", nextErr.Error(), http.StatusBadRequest))
			return
		}

		if part.FormName() == "path" {
			pathBytes, _ := io.ReadAll(part)
			destination = strings.TrimSpace(string(pathBytes))
			_ = part.Close()
			continue
		}

		if part.FormName() != "files" || strings.TrimSpace(part.FileName()) == "" {
			_ = part.Close()
			continue
		}

		data, readErr := io.ReadAll(part)
		_ = part.Close()
		if readErr != nil {
			if isPayloadTooLarge(readErr) {
				writeError(w, apierror.New("PAYLOAD_TOO_LARGE", "request body exceeds MAX_UPLOAD_SIZE", "MAX_UPLOAD_SIZE", http.StatusRequestEntityTooLarge))
				return
			}
			writeError(w, apierror.New("BAD_REQUEST", "invalid multipart stream", readErr.Error(), http.StatusBadRequest))
			return
		}

		pending = append(pending, pendingFile{name: part.FileName(), data: data})
	}

	if len(pending) == 0 {
		writeError(w, apierror.New("BAD_REQUEST", "no files in multipart body", "files", http.StatusBadRequest))
		return
	}

	uploaded := make([]model.UploadData, 0, len(pending))
	for _, file := range pending {
		item, uploadErr := h.items.Upload(ws, principal, destination, file.name, file.data)
		recordAudit(h.audit, "files.upload", actorFromRequest(r), ws.ID(), path.Join(destination, file.name), uploadErr)
		if uploadErr != nil {
			writeError(w, uploadErr)
			return
		}

		uploaded = append(uploaded, item)
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"uploaded": uploaded})
}

func (h *FilesHandler) Download(w http.ResponseWriter, r *http.Request) {
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

	file, info, err := h.items.Download(ws, principal, r.URL.Query().Get("path"), name)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), file)
}

func (h *FilesHandler) Mkdir(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	ws, principal, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.CreateDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	created, err := h.items.Mkdir(ws, principal, payload.Path, payload.Name)
	recordAudit(h.audit, "files.mkdir", actorFromRequest(r), ws.ID(), created, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, map[string]any{"path": created})
}

func (h *FilesHandler) WriteText(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	ws, principal, err := h.resolve(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.WriteTextRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	item, err := h.items.WriteText(ws, principal, payload.Path, payload.FileName, payload.Text)
	recordAudit(h.audit, "files.write_text", actorFromRequest(r), ws.ID(), item.Path, err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, item)
}

func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	err = h.items.DeleteHard(ws, principal, relPath, name)
	recordAudit(h.audit, "files.delete", actorFromRequest(r), ws.ID(), path.Join(relPath, name), err)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": name})
}

func (h *FilesHandler) resolve(r *http.Request) (*storage.Workspace, service.Principal, error) {
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

func isPayloadTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}
