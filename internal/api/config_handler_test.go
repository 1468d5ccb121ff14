package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/configstore-api/internal/api/shared"
	"github.com/phrazzld/configstore-api/internal/domain"
	"github.com/phrazzld/configstore-api/internal/service"
	"github.com/phrazzld/configstore-api/internal/template"
	"github.com/phrazzld/configstore-api/internal/validation"
)

// stubConfigService records the arguments it was called with and returns
// canned results, so handler tests only exercise HTTP mapping.
type stubConfigService struct {
	submitResult *service.SubmitResult
	submitErr    error
	submitSvc    string
	submitRaw    []byte

	fetchDoc     domain.Document
	fetchErr     error
	fetchSvc     string
	fetchVersion *int
	fetchRender  bool
	fetchVars    map[string]string

	historyEntries []domain.HistoryEntry
	historyErr     error
}

func (s *stubConfigService) Submit(_ context.Context, svc string, raw []byte) (*service.SubmitResult, error) {
	s.submitSvc = svc
	s.submitRaw = raw
	return s.submitResult, s.submitErr
}

func (s *stubConfigService) Fetch(_ context.Context, svc string, version *int, render bool, vars map[string]string) (domain.Document, error) {
	s.fetchSvc = svc
	s.fetchVersion = version
	s.fetchRender = render
	s.fetchVars = vars
	return s.fetchDoc, s.fetchErr
}

func (s *stubConfigService) History(_ context.Context, svc string) ([]domain.HistoryEntry, error) {
	return s.historyEntries, s.historyErr
}

// newTestRouter mounts the handler under the same routes the server uses so
// chi URL parameters resolve.
func newTestRouter(stub *stubConfigService) http.Handler {
	handler := NewConfigHandler(stub)
	r := chi.NewRouter()
	r.Route("/config", func(r chi.Router) {
		r.Post("/{service}", handler.SubmitConfig)
		r.Get("/{service}", handler.GetConfig)
		r.Get("/{service}/history", handler.GetHistory)
	})
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSubmitConfig(t *testing.T) {
	t.Parallel()

	t.Run("valid submission returns 201", func(t *testing.T) {
		stub := &stubConfigService{
			submitResult: &service.SubmitResult{Service: "billing", Version: 3, Status: "saved"},
		}
		router := newTestRouter(stub)

		body := "version: 3\ndatabase:\n  host: h\n  port: 1\n"
		req := httptest.NewRequest(http.MethodPost, "/config/billing", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "billing", stub.submitSvc)
		assert.Equal(t, body, string(stub.submitRaw))

		var result service.SubmitResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, service.SubmitResult{Service: "billing", Version: 3, Status: "saved"}, result)
	})

	t.Run("parse failure returns 400", func(t *testing.T) {
		stub := &stubConfigService{
			submitErr: &validation.ParseError{Message: "empty content"},
		}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodPost, "/config/billing", strings.NewReader(""))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "Bad Request", resp.Error)
		assert.Equal(t, "empty content", resp.Message)
	})

	t.Run("structural failure returns 422 with full list", func(t *testing.T) {
		stub := &stubConfigService{
			submitErr: &service.ValidationFailedError{Errors: []validation.ValidationError{
				{Field: "version", Message: "Missing required field: version"},
				{Field: "database.port", Message: "Missing required field: database.port"},
			}},
		}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodPost, "/config/billing",
			strings.NewReader("database:\n  host: h\n"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "Unprocessable Entity", resp.Error)
		assert.Empty(t, resp.Message)
		assert.Equal(t, []string{
			"Missing required field: version",
			"Missing required field: database.port",
		}, resp.ValidationErrors)
	})

	t.Run("version conflict returns 409", func(t *testing.T) {
		stub := &stubConfigService{
			submitErr: &service.VersionConflictError{Service: "billing", Version: 3},
		}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodPost, "/config/billing",
			strings.NewReader("version: 3\ndatabase:\n  host: h\n  port: 1\n"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "Version already exists", resp.Error)
		assert.Equal(t, "Version 3 already exists for service billing", resp.Message)
	})

	t.Run("unclassified failure returns 500", func(t *testing.T) {
		stub := &stubConfigService{submitErr: errors.New("connection refused")}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodPost, "/config/billing",
			strings.NewReader("version: 1\ndatabase:\n  host: h\n  port: 1\n"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "Internal server error", resp.Error)
	})
}

func TestGetConfig(t *testing.T) {
	t.Parallel()

	t.Run("latest version by default", func(t *testing.T) {
		stub := &stubConfigService{fetchDoc: domain.Document{"version": 2, "name": "api"}}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/config/billing", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "billing", stub.fetchSvc)
		assert.Nil(t, stub.fetchVersion)
		assert.False(t, stub.fetchRender)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, "api", doc["name"])
	})

	t.Run("explicit version is forwarded", func(t *testing.T) {
		stub := &stubConfigService{fetchDoc: domain.Document{"version": 1}}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/config/billing?version=1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, stub.fetchVersion)
		assert.Equal(t, 1, *stub.fetchVersion)
	})

	t.Run("non-integer version returns 400 without calling the service", func(t *testing.T) {
		stub := &stubConfigService{}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/config/billing?version=latest", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "Invalid version parameter", resp.Error)
		assert.Equal(t, "Version must be an integer", resp.Message)
		assert.Empty(t, stub.fetchSvc)
	})

	t.Run("template flag collects variables minus reserved parameters", func(t *testing.T) {
		stub := &stubConfigService{fetchDoc: domain.Document{"greeting": "Hello alice"}}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodGet,
			"/config/billing?template=1&version=2&user=alice&env=prod", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, stub.fetchRender)
		assert.Equal(t, map[string]string{"user": "alice", "env": "prod"}, stub.fetchVars)
		require.NotNil(t, stub.fetchVersion)
		assert.Equal(t, 2, *stub.fetchVersion)
	})

	t.Run("template values other than 1 do not render", func(t *testing.T) {
		stub := &stubConfigService{fetchDoc: domain.Document{"version": 1}}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/config/billing?template=true&user=alice", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, stub.fetchRender)
		assert.Empty(t, stub.fetchVars)
	})

	t.Run("missing configuration returns 404", func(t *testing.T) {
		stub := &stubConfigService{
			fetchErr: &service.NotFoundError{Message: "No configuration found for service ghost"},
		}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/config/ghost", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "Not Found", resp.Error)
		assert.Equal(t, "No configuration found for service ghost", resp.Message)
	})

	t.Run("render failure returns 400", func(t *testing.T) {
		stub := &stubConfigService{
			fetchErr: &template.RenderError{Message: "undefined template variable: region"},
		}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/config/billing?template=1", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "Template processing error", resp.Error)
		assert.Equal(t, "undefined template variable: region", resp.Message)
	})
}

func TestGetHistoryHandler(t *testing.T) {
	t.Parallel()

	t.Run("returns entries", func(t *testing.T) {
		t2 := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
		t1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		stub := &stubConfigService{historyEntries: []domain.HistoryEntry{
			{Version: 2, CreatedAt: t2},
			{Version: 1, CreatedAt: t1},
		}}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/config/billing/history", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var entries []domain.HistoryEntry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, 2, entries[0].Version)
		assert.Equal(t, t2, entries[0].CreatedAt)
	})

	t.Run("empty history returns 404", func(t *testing.T) {
		stub := &stubConfigService{
			historyErr: &service.NotFoundError{Message: "No configuration history found for service ghost"},
		}
		router := newTestRouter(stub)

		req := httptest.NewRequest(http.MethodGet, "/config/ghost/history", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "No configuration history found for service ghost", resp.Message)
	})
}
