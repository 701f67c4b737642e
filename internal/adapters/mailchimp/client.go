package mailchimp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"audiencesync/internal/domain"
)

// Client calls the MailChimp marketing API (v3-style resource layout).
// Non-2xx responses are returned as *domain.RemoteError.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a client for the given API base URL (e.g.
// "https://us1.api.mailchimp.com/3.0"). A nil httpClient falls back to
// http.DefaultClient; callers should pass a client with an explicit timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// apiProblem is the error body the platform returns for non-2xx responses.
type apiProblem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// The platform ignores the username; only the key matters.
	req.SetBasicAuth("anystring", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call marketing api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		remoteErr := &domain.RemoteError{StatusCode: resp.StatusCode, RawBody: string(raw)}
		var problem apiProblem
		if err := json.Unmarshal(raw, &problem); err == nil && problem.Detail != "" {
			remoteErr.Detail = problem.Detail
		} else {
			remoteErr.Detail = http.StatusText(resp.StatusCode)
		}
		return remoteErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode marketing api response: %w", err)
		}
	}
	return nil
}

// Lists returns one page of the account's lists.
func (c *Client) Lists(ctx context.Context, count, offset int) ([]domain.AudienceList, error) {
	query := url.Values{
		"count":  {strconv.Itoa(count)},
		"offset": {strconv.Itoa(offset)},
		"fields": {"lists.id,lists.name"},
	}
	var page struct {
		Lists []domain.AudienceList `json:"lists"`
	}
	if err := c.do(ctx, http.MethodGet, "/lists", query, nil, &page); err != nil {
		return nil, err
	}
	return page.Lists, nil
}

// GetMember fetches a member by its addressing key.
func (c *Client) GetMember(ctx context.Context, listID, memberKey string) (*domain.Member, error) {
	query := url.Values{"fields": {"email_address,merge_fields,status"}}
	var member domain.Member
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/lists/%s/members/%s", listID, memberKey), query, nil, &member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// SearchMembersByUniqueID finds members by the platform's unique email id.
func (c *Client) SearchMembersByUniqueID(ctx context.Context, listID, uniqueEmailID string) ([]domain.Member, error) {
	query := url.Values{
		"unique_email_id": {uniqueEmailID},
		"fields":          {"members.id,members.email_address"},
	}
	var page struct {
		Members []domain.Member `json:"members"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/lists/%s/members", listID), query, nil, &page); err != nil {
		return nil, err
	}
	return page.Members, nil
}

// UpsertMember creates or updates the member at the given addressing key.
func (c *Client) UpsertMember(ctx context.Context, listID, memberKey string, body domain.MemberUpsert) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/lists/%s/members/%s", listID, memberKey), nil, body, nil)
}

// UpdateMember updates the member at the given addressing key.
func (c *Client) UpdateMember(ctx context.Context, listID, memberKey string, body domain.MemberUpsert) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/lists/%s/members/%s", listID, memberKey), nil, body, nil)
}

// MergeFields returns the merge fields configured for the list.
func (c *Client) MergeFields(ctx context.Context, listID string) ([]domain.MergeField, error) {
	query := url.Values{"fields": {"merge_fields.tag,merge_fields.name"}}
	var page struct {
		MergeFields []domain.MergeField `json:"merge_fields"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/lists/%s/merge-fields", listID), query, nil, &page); err != nil {
		return nil, err
	}
	return page.MergeFields, nil
}

// CreateMergeField adds a text merge field to the list.
func (c *Client) CreateMergeField(ctx context.Context, listID, tag, name string) (*domain.MergeField, error) {
	body := map[string]string{"tag": tag, "name": name, "type": "text"}
	var field domain.MergeField
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/lists/%s/merge-fields", listID), nil, body, &field)
	if err != nil {
		return nil, err
	}
	return &field, nil
}

// Segments returns one page of the list's segments.
func (c *Client) Segments(ctx context.Context, listID string, count, offset int) ([]domain.Segment, error) {
	query := url.Values{
		"count":  {strconv.Itoa(count)},
		"offset": {strconv.Itoa(offset)},
		"fields": {"segments.id,segments.name"},
	}
	var page struct {
		Segments []domain.Segment `json:"segments"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/lists/%s/segments", listID), query, nil, &page); err != nil {
		return nil, err
	}
	return page.Segments, nil
}

// CreateSegment creates a static segment with no initial members.
func (c *Client) CreateSegment(ctx context.Context, listID, name string) (*domain.Segment, error) {
	body := map[string]any{"name": name, "static_segment": []string{}}
	var segment domain.Segment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/lists/%s/segments", listID), nil, body, &segment)
	if err != nil {
		return nil, err
	}
	return &segment, nil
}

// UpdateSegment renames a segment.
func (c *Client) UpdateSegment(ctx context.Context, listID string, segmentID int, name string) (*domain.Segment, error) {
	body := map[string]string{"name": name}
	var segment domain.Segment
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/lists/%s/segments/%d", listID, segmentID), nil, body, &segment)
	if err != nil {
		return nil, err
	}
	return &segment, nil
}

// DeleteSegment removes a segment.
func (c *Client) DeleteSegment(ctx context.Context, listID string, segmentID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/lists/%s/segments/%d", listID, segmentID), nil, nil, nil)
}

// AddSegmentMembers adds the given emails to a static segment. Emails are
// passed through without client-side dedupe; the platform applies set
// semantics.
func (c *Client) AddSegmentMembers(ctx context.Context, listID string, segmentID int, emails []string) error {
	body := map[string]any{"members_to_add": emails}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/lists/%s/segments/%d", listID, segmentID), nil, body, nil)
}
