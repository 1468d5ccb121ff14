package api

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/configstore-api/internal/api/shared"
	"github.com/phrazzld/configstore-api/internal/domain"
	"github.com/phrazzld/configstore-api/internal/service"
)

// Query parameter names reserved by the read path. Everything else is
// treated as a template variable.
const (
	versionParam  = "version"
	templateParam = "template"
)

// ConfigService is the orchestration surface the handler depends on.
type ConfigService interface {
	Submit(ctx context.Context, svc string, raw []byte) (*service.SubmitResult, error)
	Fetch(ctx context.Context, svc string, version *int, render bool, vars map[string]string) (domain.Document, error)
	History(ctx context.Context, svc string) ([]domain.HistoryEntry, error)
}

// ConfigHandler handles configuration-related HTTP requests.
type ConfigHandler struct {
	configService ConfigService
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(configService ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// SubmitConfig handles POST /config/{service} requests. The body is the
// raw YAML (or JSON) configuration text; a successful write returns 201
// with the service, assigned version, and status.
func (h *ConfigHandler) SubmitConfig(w http.ResponseWriter, r *http.Request) {
	serviceName := chi.URLParam(r, "service")

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Bad Request", "failed to read request body", err)
		return
	}

	result, err := h.configService.Submit(r.Context(), serviceName, raw)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// GetConfig handles GET /config/{service} requests. An optional integer
// "version" query parameter selects a specific version (latest otherwise);
// "template=1" renders the stored document with the remaining query
// parameters as template variables.
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	serviceName := chi.URLParam(r, "service")
	query := r.URL.Query()

	var version *int
	if raw := query.Get(versionParam); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				"Invalid version parameter", "Version must be an integer", err)
			return
		}
		version = &v
	}

	render := query.Get(templateParam) == "1"

	vars := map[string]string{}
	if render {
		for key, values := range query {
			if key == versionParam || key == templateParam {
				continue
			}
			if len(values) > 0 {
				vars[key] = values[0]
			}
		}
	}

	doc, err := h.configService.Fetch(r.Context(), serviceName, version, render, vars)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, doc)
}

// GetHistory handles GET /config/{service}/history requests, returning the
// service's version history ordered by version descending.
func (h *ConfigHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	serviceName := chi.URLParam(r, "service")

	entries, err := h.configService.History(r.Context(), serviceName)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}
