package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiencesync/internal/delivery/http/helpers"
	"audiencesync/internal/domain"
)

// testLogger is a no-op logger so tests don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeTagService implements domain.TagService for handler tests.
type fakeTagService struct {
	createResult *domain.Tag
	createErr    error
	lastCreate   string
	renameResult *domain.Tag
	renameErr    error
	lastRenameID string
	lastRename   string
	getResult    *domain.Tag
	getErr       error
	listResult   []*domain.Tag
	listTotal    int
	listErr      error
	lastParams   domain.PaginationParams
}

func (f *fakeTagService) Create(ctx context.Context, name string) (*domain.Tag, error) {
	f.lastCreate = name
	return f.createResult, f.createErr
}

func (f *fakeTagService) Rename(ctx context.Context, id, name string) (*domain.Tag, error) {
	f.lastRenameID = id
	f.lastRename = name
	return f.renameResult, f.renameErr
}

func (f *fakeTagService) GetByID(ctx context.Context, id string) (*domain.Tag, error) {
	return f.getResult, f.getErr
}

func (f *fakeTagService) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Tag, int, error) {
	f.lastParams = params
	return f.listResult, f.listTotal, f.listErr
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (json.RawMessage, *helpers.APIError) {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Data, envelope.Error
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestTagController_Create(t *testing.T) {
	svc := &fakeTagService{createResult: &domain.Tag{ID: "tag-1", Name: "VIP", ExternalID: 42}}
	ctrl := NewTagController(testLogger, svc)

	rec := httptest.NewRecorder()
	ctrl.Create(rec, postJSON("/admin/tags", `{"name":"VIP"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	data, apiErr := decodeEnvelope(t, rec)
	require.Nil(t, apiErr)
	var tag domain.Tag
	require.NoError(t, json.Unmarshal(data, &tag))
	assert.Equal(t, 42, tag.ExternalID)
	assert.Equal(t, "VIP", svc.lastCreate)
}

func TestTagController_Create_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing name",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "duplicate name",
			body:       `{"name":"VIP"}`,
			err:        domain.ErrDuplicateName,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "remote rejection carries detail",
			body:       `{"name":"VIP"}`,
			err:        &domain.RemoteError{StatusCode: 400, Detail: "segment name taken"},
			wantStatus: http.StatusBadGateway,
			wantCode:   helpers.ErrCodeRemoteError,
		},
		{
			name:       "local save failed after compensation",
			body:       `{"name":"VIP"}`,
			err:        domain.ErrSaveFailed,
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeTagService{createErr: tt.err}
			ctrl := NewTagController(testLogger, svc)

			rec := httptest.NewRecorder()
			ctrl.Create(rec, postJSON("/admin/tags", tt.body))

			require.Equal(t, tt.wantStatus, rec.Code)
			_, apiErr := decodeEnvelope(t, rec)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			var remoteErr *domain.RemoteError
			if errors.As(tt.err, &remoteErr) {
				assert.Equal(t, remoteErr.Detail, apiErr.Message)
			}
		})
	}
}

func TestTagController_Update(t *testing.T) {
	svc := &fakeTagService{renameResult: &domain.Tag{ID: "tag-1", Name: "VIP2", ExternalID: 42}}
	ctrl := NewTagController(testLogger, svc)

	req := httptest.NewRequest(http.MethodPatch, "/admin/tags/tag-1", bytes.NewReader([]byte(`{"name":"VIP2"}`)))
	req.SetPathValue("tagID", "tag-1")
	rec := httptest.NewRecorder()
	ctrl.Update(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tag-1", svc.lastRenameID)
	assert.Equal(t, "VIP2", svc.lastRename)
}

func TestTagController_Update_NotFound(t *testing.T) {
	svc := &fakeTagService{renameErr: domain.ErrNotFound}
	ctrl := NewTagController(testLogger, svc)

	req := httptest.NewRequest(http.MethodPatch, "/admin/tags/missing", bytes.NewReader([]byte(`{"name":"VIP2"}`)))
	req.SetPathValue("tagID", "missing")
	rec := httptest.NewRecorder()
	ctrl.Update(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	_, apiErr := decodeEnvelope(t, rec)
	require.NotNil(t, apiErr)
	assert.Equal(t, helpers.ErrCodeNotFound, apiErr.Code)
}

func TestTagController_List(t *testing.T) {
	svc := &fakeTagService{
		listResult: []*domain.Tag{{ID: "tag-1", Name: "VIP", ExternalID: 42}},
		listTotal:  41,
	}
	ctrl := NewTagController(testLogger, svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/tags?page=2&page_size=10", nil)
	rec := httptest.NewRecorder()
	ctrl.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PaginationParams{Page: 2, PageSize: 10}, svc.lastParams)

	data, _ := decodeEnvelope(t, rec)
	var resp ListTagsResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Len(t, resp.Tags, 1)
	assert.Equal(t, 41, resp.Meta.Total)
	assert.Equal(t, 5, resp.Meta.TotalPages)
}

func TestTagController_Get(t *testing.T) {
	svc := &fakeTagService{getResult: &domain.Tag{ID: "tag-1", Name: "VIP", ExternalID: 42}}
	ctrl := NewTagController(testLogger, svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/tags/tag-1", nil)
	req.SetPathValue("tagID", "tag-1")
	rec := httptest.NewRecorder()
	ctrl.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
