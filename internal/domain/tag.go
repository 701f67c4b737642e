package domain

import (
	"context"
	"time"
)

// Tag mirrors a static segment in the remote marketing platform.
// ExternalID is the identifier the remote platform assigned to the segment
// when it was created. It is set exactly once and never changes, even when
// the tag is renamed; nothing in the codebase exposes a way to mutate it.
// swagger:model Tag
type Tag struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ExternalID int       `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TagRepository defines storage for tags. No operation modifies external_id
// after the row exists.
type TagRepository interface {
	// FindOrCreate returns the tag with the given name and external ID,
	// inserting it first if absent. Keying on (name, external_id) keeps the
	// create flow idempotent when an admin retries a request that already
	// succeeded remotely.
	FindOrCreate(ctx context.Context, name string, externalID int) (*Tag, error)
	// FindByName returns the tag with the given name, or ErrNotFound.
	FindByName(ctx context.Context, name string) (*Tag, error)
	GetByID(ctx context.Context, id string) (*Tag, error)
	List(ctx context.Context, params PaginationParams) ([]*Tag, error)
	Count(ctx context.Context) (int, error)
	// UpdateName changes the tag's name only. Returns ErrNotFound if the tag
	// does not exist and ErrDuplicateName on a uniqueness violation.
	UpdateName(ctx context.Context, id, name string) (*Tag, error)
}

// TagService drives the tag lifecycle: a tag is persisted locally only after
// the remote segment has been created, and a local rename pushes the new name
// to the remote segment after the local commit.
type TagService interface {
	Create(ctx context.Context, name string) (*Tag, error)
	Rename(ctx context.Context, id, name string) (*Tag, error)
	GetByID(ctx context.Context, id string) (*Tag, error)
	List(ctx context.Context, params PaginationParams) ([]*Tag, int, error)
}
