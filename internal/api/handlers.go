package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arnstad/sigil/internal/apperr"
	"github.com/arnstad/sigil/internal/index"
)

// Per-operation error codes. Every operation fails with its own code so
// callers can discriminate failure kinds without string-matching messages.
const (
	codeInvalidRequest = "INVALID_REQUEST"
	codeUnauthorized   = "UNAUTHORIZED"

	codeListDiagrams   = "LIST_DIAGRAMS_FAILED"
	codeGetDiagram     = "GET_DIAGRAM_FAILED"
	codeCreateDiagram  = "CREATE_DIAGRAM_FAILED"
	codeUpdateDiagram  = "UPDATE_DIAGRAM_FAILED"
	codeDeleteDiagram  = "DELETE_DIAGRAM_FAILED"
	codeRenameDiagram  = "RENAME_DIAGRAM_FAILED"
	codeListVersions   = "LIST_VERSIONS_FAILED"
	codeGetVersion     = "GET_VERSION_FAILED"
	codeRestoreVersion = "RESTORE_VERSION_FAILED"
	codeGenerate       = "GENERATE_FAILED"
	codeTestConnection = "TEST_CONNECTION_FAILED"
	codeGetSettings    = "GET_SETTINGS_FAILED"
	codeSetSetting     = "SET_SETTING_FAILED"
	codeSearch         = "SEARCH_FAILED"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// storeStatus maps a store error to an HTTP status.
func storeStatus(err error) int {
	if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrVersionNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid JSON body")
		return false
	}
	return true
}

// ListDiagrams handles GET /api/diagrams.
func (h *Handler) ListDiagrams(w http.ResponseWriter, r *http.Request) {
	diagrams, err := h.svc.ListDiagrams()
	if err != nil {
		slog.Error("list diagrams failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, codeListDiagrams, err.Error())
		return
	}
	writeData(w, http.StatusOK, diagrams)
}

// GetDiagram handles GET /api/diagrams/{id}.
func (h *Handler) GetDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.svc.GetDiagram(id)
	if err != nil {
		if status := storeStatus(err); status == http.StatusInternalServerError {
			slog.Error("get diagram failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, status, codeGetDiagram, err.Error())
		} else {
			writeError(w, status, codeGetDiagram, "diagram not found")
		}
		return
	}
	writeData(w, http.StatusOK, d)
}

// CreateDiagram handles POST /api/diagrams.
func (h *Handler) CreateDiagram(w http.ResponseWriter, r *http.Request) {
	var req CreateDiagramRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := h.svc.CreateDiagram(req.Name, req.Content, req.Prompt)
	if err != nil {
		slog.Error("create diagram failed", slog.String("name", req.Name), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, codeCreateDiagram, err.Error())
		return
	}
	writeData(w, http.StatusCreated, d)
}

// UpdateDiagram handles PUT /api/diagrams/{id}.
func (h *Handler) UpdateDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateDiagramRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := h.svc.UpdateDiagram(id, req.Content, req.Prompt)
	if err != nil {
		if status := storeStatus(err); status == http.StatusInternalServerError {
			slog.Error("update diagram failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, status, codeUpdateDiagram, err.Error())
		} else {
			writeError(w, status, codeUpdateDiagram, "diagram not found")
		}
		return
	}
	writeData(w, http.StatusOK, d)
}

// DeleteDiagram handles DELETE /api/diagrams/{id}.
func (h *Handler) DeleteDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteDiagram(id); err != nil {
		if status := storeStatus(err); status == http.StatusInternalServerError {
			slog.Error("delete diagram failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, status, codeDeleteDiagram, err.Error())
		} else {
			writeError(w, status, codeDeleteDiagram, "diagram not found")
		}
		return
	}
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

// RenameDiagram handles POST /api/diagrams/{id}/rename.
func (h *Handler) RenameDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req RenameDiagramRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := h.svc.RenameDiagram(id, req.Name)
	if err != nil {
		if status := storeStatus(err); status == http.StatusInternalServerError {
			slog.Error("rename diagram failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, status, codeRenameDiagram, err.Error())
		} else {
			writeError(w, status, codeRenameDiagram, "diagram not found")
		}
		return
	}
	writeData(w, http.StatusOK, d)
}

// ListVersions handles GET /api/diagrams/{id}/versions.
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	versions, err := h.svc.ListVersions(id)
	if err != nil {
		if status := storeStatus(err); status == http.StatusInternalServerError {
			slog.Error("list versions failed", slog.String("id", id), slog.String("error", err.Error()))
			writeError(w, status, codeListVersions, err.Error())
		} else {
			writeError(w, status, codeListVersions, "diagram not found")
		}
		return
	}
	writeData(w, http.StatusOK, versions)
}

// GetVersion handles GET /api/diagrams/{id}/versions/{versionID}.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	versionID := chi.URLParam(r, "versionID")
	v, err := h.svc.GetVersion(id, versionID)
	if err != nil {
		if status := storeStatus(err); status == http.StatusInternalServerError {
			slog.Error("get version failed", slog.String("id", id), slog.String("version", versionID), slog.String("error", err.Error()))
			writeError(w, status, codeGetVersion, err.Error())
		} else {
			writeError(w, status, codeGetVersion, "version not found")
		}
		return
	}
	writeData(w, http.StatusOK, v)
}

// RestoreVersion handles POST /api/diagrams/{id}/versions/{versionID}/restore.
func (h *Handler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	versionID := chi.URLParam(r, "versionID")
	d, err := h.svc.RestoreVersion(id, versionID)
	if err != nil {
		if status := storeStatus(err); status == http.StatusInternalServerError {
			slog.Error("restore version failed", slog.String("id", id), slog.String("version", versionID), slog.String("error", err.Error()))
			writeError(w, status, codeRestoreVersion, err.Error())
		} else {
			writeError(w, status, codeRestoreVersion, "version not found")
		}
		return
	}
	writeData(w, http.StatusOK, d)
}

// Generate handles POST /api/generate.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	content, err := h.svc.Generate(r.Context(), req.Prompt, req.Content)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, apperr.ErrNoAPIKey) {
			status = http.StatusBadRequest
		}
		slog.Error("generate failed", slog.String("error", err.Error()))
		writeError(w, status, codeGenerate, err.Error())
		return
	}
	writeData(w, http.StatusOK, GenerateResponse{Content: content})
}

// TestConnection handles POST /api/generate/test.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	model, reply, err := h.svc.TestGeneration(r.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, apperr.ErrNoAPIKey) {
			status = http.StatusBadRequest
		}
		slog.Error("provider test failed", slog.String("error", err.Error()))
		writeError(w, status, codeTestConnection, err.Error())
		return
	}
	writeData(w, http.StatusOK, TestConnectionResponse{Model: model, Reply: reply})
}

// GetAllSettings handles GET /api/settings.
func (h *Handler) GetAllSettings(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.svc.GetAllSettings())
}

// GetSetting handles GET /api/settings/{key}.
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.svc.GetSetting(key)
	if err != nil {
		slog.Error("get setting failed", slog.String("key", key), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, codeGetSettings, err.Error())
		return
	}
	writeData(w, http.StatusOK, SettingValue{Key: key, Value: value})
}

// SetSetting handles PUT /api/settings/{key}.
func (h *Handler) SetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req SetSettingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.svc.SetSetting(key, req.Value); err != nil {
		slog.Error("set setting failed", slog.String("key", key), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, codeSetSetting, err.Error())
		return
	}
	writeData(w, http.StatusOK, SettingValue{Key: key, Value: req.Value})
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, codeSearch, err.Error())
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeData(w, http.StatusOK, results)
}
