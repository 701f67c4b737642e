package domain

import "context"

// SubscribeOptions modifies a Subscribe call.
type SubscribeOptions struct {
	// Customer adds the email to the configured customer segment after a
	// successful subscribe.
	Customer bool
	// Interests maps interest ids to membership.
	Interests map[string]bool
}

// MemberInfo is the subset of member state exposed to callers of Info.
type MemberInfo struct {
	Email       string         `json:"email"`
	Status      string         `json:"status"`
	MergeFields map[string]any `json:"merge_fields"`
}

// List wraps the marketing API for one configured mailing list. The list id
// and the customer segment id are resolved lazily by name search and memoized
// for the lifetime of the gateway instance.
//
// Subscribe, Unsubscribe, Info and EmailForID never fail: remote rejections
// are logged and absorbed so that one bad subscriber cannot break the calling
// flow. Operations that feed the tag lifecycle (CreateTagSegment,
// RenameSegment, DeleteSegment) return their errors so the caller can decide
// what to surface.
type List interface {
	Subscribe(ctx context.Context, email string, mergeFields map[string]any, opts SubscribeOptions)
	Unsubscribe(ctx context.Context, email string)
	// EmailForID resolves the platform's unique email id to an address.
	// Returns false when the member is unknown or the lookup failed.
	EmailForID(ctx context.Context, uniqueEmailID string) (string, bool)
	// Info returns the member's status and merge fields, or a zero value when
	// the member is unknown or the lookup failed.
	Info(ctx context.Context, email string) MemberInfo
	// MergeVars returns the merge-field tags configured for the list.
	MergeVars(ctx context.Context) ([]string, error)
	// AddMergeVar creates a text merge field.
	AddMergeVar(ctx context.Context, tag, description string) error
	// Segment adds the emails to the configured customer segment. Emails are
	// passed through as-is; the remote platform applies set semantics.
	Segment(ctx context.Context, emails []string) error
	// FindListID searches the account's lists for the given name.
	FindListID(ctx context.Context, name string) (string, bool)
	// FindSegmentID searches the list's segments for the configured segment name.
	FindSegmentID(ctx context.Context) (int, bool)
	// CreateTagSegment creates a static segment for a tag and returns it.
	CreateTagSegment(ctx context.Context, name string) (*Segment, error)
	// RenameSegment renames the segment with the given external id.
	RenameSegment(ctx context.Context, externalID int, name string) error
	// DeleteSegment deletes the segment with the given external id.
	DeleteSegment(ctx context.Context, externalID int) error
}
