package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audiencesync/internal/delivery/http/helpers"
	"audiencesync/internal/domain"
)

// fakeList implements domain.List for handler tests. Only the calls the
// controller makes are recorded.
type fakeList struct {
	lastSubscribeEmail string
	lastMergeFields    map[string]any
	lastOpts           domain.SubscribeOptions
	lastUnsubscribe    string

	infoResult domain.MemberInfo

	emailForID     string
	emailForIDOK   bool
	lastEmailForID string

	mergeVars    []string
	mergeVarsErr error
	lastAddTag   string
	lastAddDesc  string
	addErr       error
}

func (f *fakeList) Subscribe(ctx context.Context, email string, mergeFields map[string]any, opts domain.SubscribeOptions) {
	f.lastSubscribeEmail = email
	f.lastMergeFields = mergeFields
	f.lastOpts = opts
}

func (f *fakeList) Unsubscribe(ctx context.Context, email string) {
	f.lastUnsubscribe = email
}

func (f *fakeList) EmailForID(ctx context.Context, id string) (string, bool) {
	f.lastEmailForID = id
	return f.emailForID, f.emailForIDOK
}

func (f *fakeList) Info(ctx context.Context, email string) domain.MemberInfo {
	return f.infoResult
}

func (f *fakeList) MergeVars(ctx context.Context) ([]string, error) {
	return f.mergeVars, f.mergeVarsErr
}

func (f *fakeList) AddMergeVar(ctx context.Context, tag, description string) error {
	f.lastAddTag = tag
	f.lastAddDesc = description
	return f.addErr
}

func (f *fakeList) Segment(ctx context.Context, emails []string) error { return nil }

func (f *fakeList) FindListID(ctx context.Context, name string) (string, bool) { return "", false }

func (f *fakeList) FindSegmentID(ctx context.Context) (int, bool) { return 0, false }

func (f *fakeList) CreateTagSegment(ctx context.Context, name string) (*domain.Segment, error) {
	return nil, nil
}

func (f *fakeList) RenameSegment(ctx context.Context, externalID int, name string) error {
	return nil
}

func (f *fakeList) DeleteSegment(ctx context.Context, externalID int) error { return nil }

func TestSubscriberController_Subscribe(t *testing.T) {
	list := &fakeList{}
	ctrl := NewSubscriberController(testLogger, list)

	body := `{"email":"Test@Foo.com","merge_fields":{"FNAME":"Ada"},"customer":true}`
	rec := httptest.NewRecorder()
	ctrl.Subscribe(rec, postJSON("/admin/subscribers", body))

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "Test@Foo.com", list.lastSubscribeEmail)
	assert.Equal(t, map[string]any{"FNAME": "Ada"}, list.lastMergeFields)
	assert.True(t, list.lastOpts.Customer)

	data, apiErr := decodeEnvelope(t, rec)
	require.Nil(t, apiErr)
	var resp AcceptedResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "accepted", resp.Status)
}

func TestSubscriberController_Subscribe_MissingEmail(t *testing.T) {
	list := &fakeList{}
	ctrl := NewSubscriberController(testLogger, list)

	rec := httptest.NewRecorder()
	ctrl.Subscribe(rec, postJSON("/admin/subscribers", `{}`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, list.lastSubscribeEmail)
}

func TestSubscriberController_Unsubscribe(t *testing.T) {
	list := &fakeList{}
	ctrl := NewSubscriberController(testLogger, list)

	rec := httptest.NewRecorder()
	ctrl.Unsubscribe(rec, postJSON("/admin/subscribers/unsubscribe", `{"email":"test@foo.com"}`))

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "test@foo.com", list.lastUnsubscribe)
}

func TestSubscriberController_Info(t *testing.T) {
	list := &fakeList{infoResult: domain.MemberInfo{
		Email:  "test@foo.com",
		Status: "subscribed",
	}}
	ctrl := NewSubscriberController(testLogger, list)

	req := httptest.NewRequest(http.MethodGet, "/admin/subscribers/info?email=test@foo.com", nil)
	rec := httptest.NewRecorder()
	ctrl.Info(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data, _ := decodeEnvelope(t, rec)
	var info domain.MemberInfo
	require.NoError(t, json.Unmarshal(data, &info))
	assert.Equal(t, "subscribed", info.Status)
}

func TestSubscriberController_Info_MissingEmail(t *testing.T) {
	ctrl := NewSubscriberController(testLogger, &fakeList{})

	req := httptest.NewRequest(http.MethodGet, "/admin/subscribers/info", nil)
	rec := httptest.NewRecorder()
	ctrl.Info(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriberController_MemberEmail(t *testing.T) {
	list := &fakeList{emailForID: "test@foo.com", emailForIDOK: true}
	ctrl := NewSubscriberController(testLogger, list)

	req := httptest.NewRequest(http.MethodGet, "/admin/members/3cb7232fcc48743000cb86d0d5022bd9/email", nil)
	req.SetPathValue("memberID", "3cb7232fcc48743000cb86d0d5022bd9")
	rec := httptest.NewRecorder()
	ctrl.MemberEmail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3cb7232fcc48743000cb86d0d5022bd9", list.lastEmailForID)

	data, _ := decodeEnvelope(t, rec)
	var resp MemberEmailResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "test@foo.com", resp.Email)
}

func TestSubscriberController_MemberEmail_NotFound(t *testing.T) {
	ctrl := NewSubscriberController(testLogger, &fakeList{})

	req := httptest.NewRequest(http.MethodGet, "/admin/members/unknown/email", nil)
	req.SetPathValue("memberID", "unknown")
	rec := httptest.NewRecorder()
	ctrl.MemberEmail(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	_, apiErr := decodeEnvelope(t, rec)
	require.NotNil(t, apiErr)
	assert.Equal(t, helpers.ErrCodeNotFound, apiErr.Code)
}

func TestSubscriberController_MergeFields(t *testing.T) {
	list := &fakeList{mergeVars: []string{"EMAIL", "FNAME"}}
	ctrl := NewSubscriberController(testLogger, list)

	req := httptest.NewRequest(http.MethodGet, "/admin/merge-fields", nil)
	rec := httptest.NewRecorder()
	ctrl.MergeFields(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data, _ := decodeEnvelope(t, rec)
	var resp MergeFieldsResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, []string{"EMAIL", "FNAME"}, resp.MergeFields)
}

func TestSubscriberController_MergeFields_EmptyIsNotNull(t *testing.T) {
	ctrl := NewSubscriberController(testLogger, &fakeList{})

	req := httptest.NewRequest(http.MethodGet, "/admin/merge-fields", nil)
	rec := httptest.NewRecorder()
	ctrl.MergeFields(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data, _ := decodeEnvelope(t, rec)
	var resp MergeFieldsResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.NotNil(t, resp.MergeFields)
	assert.Empty(t, resp.MergeFields)
}

func TestSubscriberController_MergeFields_RemoteError(t *testing.T) {
	list := &fakeList{mergeVarsErr: &domain.RemoteError{StatusCode: 503, Detail: "service unavailable"}}
	ctrl := NewSubscriberController(testLogger, list)

	req := httptest.NewRequest(http.MethodGet, "/admin/merge-fields", nil)
	rec := httptest.NewRecorder()
	ctrl.MergeFields(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	_, apiErr := decodeEnvelope(t, rec)
	require.NotNil(t, apiErr)
	assert.Equal(t, helpers.ErrCodeRemoteError, apiErr.Code)
}

func TestSubscriberController_CreateMergeField(t *testing.T) {
	list := &fakeList{}
	ctrl := NewSubscriberController(testLogger, list)

	rec := httptest.NewRecorder()
	ctrl.CreateMergeField(rec, postJSON("/admin/merge-fields", `{"tag":"SIZE","description":"Shirt size"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "SIZE", list.lastAddTag)
	assert.Equal(t, "Shirt size", list.lastAddDesc)
}
