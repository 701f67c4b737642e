package domain

import (
	"context"
	"fmt"
)

// RemoteError is a non-2xx response from the marketing platform API.
type RemoteError struct {
	StatusCode int
	Detail     string
	RawBody    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("marketing api returned status %d: %s", e.StatusCode, e.Detail)
}

// AudienceList identifies a mailing list ("audience") in the remote platform.
type AudienceList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Segment is a named subset of list members. The segments used here are
// static: membership is managed explicitly rather than by criteria.
// swagger:model Segment
type Segment struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Member is a list member as returned by the remote platform.
type Member struct {
	ID           string         `json:"id"`
	EmailAddress string         `json:"email_address"`
	Status       string         `json:"status"`
	MergeFields  map[string]any `json:"merge_fields"`
}

// MergeField is a named custom attribute attached to list members.
// swagger:model MergeField
type MergeField struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

// MemberUpsert is the body for member create-or-update calls.
type MemberUpsert struct {
	EmailAddress string          `json:"email_address"`
	Status       string          `json:"status"`
	EmailType    string          `json:"email_type,omitempty"`
	MergeFields  map[string]any  `json:"merge_fields,omitempty"`
	Interests    map[string]bool `json:"interests,omitempty"`
}

// MarketingAPI is the raw client port for the remote list-management API.
// Implementations return *RemoteError for non-2xx responses.
type MarketingAPI interface {
	// Lists returns one page of the account's lists.
	Lists(ctx context.Context, count, offset int) ([]AudienceList, error)
	// GetMember fetches a member by its addressing key.
	GetMember(ctx context.Context, listID, memberKey string) (*Member, error)
	// SearchMembersByUniqueID finds members by the platform's unique email id.
	SearchMembersByUniqueID(ctx context.Context, listID, uniqueEmailID string) ([]Member, error)
	// UpsertMember creates or updates the member at the given addressing key.
	UpsertMember(ctx context.Context, listID, memberKey string, body MemberUpsert) error
	// UpdateMember updates the member at the given addressing key.
	UpdateMember(ctx context.Context, listID, memberKey string, body MemberUpsert) error
	// MergeFields returns the merge fields configured for the list.
	MergeFields(ctx context.Context, listID string) ([]MergeField, error)
	// CreateMergeField adds a text merge field to the list.
	CreateMergeField(ctx context.Context, listID, tag, name string) (*MergeField, error)
	// Segments returns one page of the list's segments.
	Segments(ctx context.Context, listID string, count, offset int) ([]Segment, error)
	// CreateSegment creates a static segment with no initial members.
	CreateSegment(ctx context.Context, listID, name string) (*Segment, error)
	// UpdateSegment renames a segment.
	UpdateSegment(ctx context.Context, listID string, segmentID int, name string) (*Segment, error)
	// DeleteSegment removes a segment.
	DeleteSegment(ctx context.Context, listID string, segmentID int) error
	// AddSegmentMembers adds the given emails to a static segment.
	AddSegmentMembers(ctx context.Context, listID string, segmentID int, emails []string) error
}
