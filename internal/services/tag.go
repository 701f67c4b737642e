package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"audiencesync/internal/domain"
)

type tagService struct {
	repo           domain.TagRepository
	list           domain.List
	mailer         domain.Mailer
	alertEmail     string
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewTagService wires the tag lifecycle. mailer and alertEmail are optional:
// when alertEmail is empty, divergence alerts are logged only.
func NewTagService(repo domain.TagRepository, list domain.List, mailer domain.Mailer, alertEmail string, logger *slog.Logger, timeout time.Duration) domain.TagService {
	return &tagService{
		repo:           repo,
		list:           list,
		mailer:         mailer,
		alertEmail:     alertEmail,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// Create pushes a segment to the remote platform first and persists the local
// tag only on success, because external_id cannot be set after the row
// exists. When the local save fails the just-created remote segment is
// deleted so it does not linger as an orphan.
func (s *tagService) Create(ctx context.Context, name string) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Pre-check uniqueness to avoid a remote call we know the local save
	// would reject afterwards.
	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return nil, fmt.Errorf("tag %q: %w", name, domain.ErrDuplicateName)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check tag name: %w", err)
	}

	segment, err := s.list.CreateTagSegment(ctx, name)
	if err != nil {
		// Surfaced to the admin boundary with the remote detail.
		return nil, err
	}

	tag, err := s.repo.FindOrCreate(ctx, segment.Name, segment.ID)
	if err != nil {
		s.logger.Error("remote segment created but local save failed, deleting remote segment",
			"tag", name, "external_id", segment.ID, "err", err)
		if derr := s.list.DeleteSegment(ctx, segment.ID); derr != nil {
			s.logger.Error("compensating segment delete failed, remote segment may be orphaned",
				"tag", name, "external_id", segment.ID, "err", derr)
			s.notifyOps(fmt.Sprintf("orphaned remote segment %d (%s)", segment.ID, name),
				fmt.Sprintf("Local save failed for tag %q and the compensating delete of remote segment %d also failed: %v", name, segment.ID, derr))
		}
		return nil, domain.ErrSaveFailed
	}
	return tag, nil
}

// Rename updates the local name and then pushes the rename to the remote
// segment as an explicit follow-up step. A remote failure is logged and
// alerted only; local and remote names stay divergent until reconciled by
// hand.
func (s *tagService) Rename(ctx context.Context, id, name string) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tag, err := s.repo.UpdateName(ctx, id, name)
	if err != nil {
		return nil, err
	}

	if err := s.list.RenameSegment(ctx, tag.ExternalID, tag.Name); err != nil {
		s.logger.Error("remote segment rename failed, remote record was not updated",
			"tag", tag.Name, "external_id", tag.ExternalID, "err", err)
		s.notifyOps(fmt.Sprintf("segment %d rename not propagated", tag.ExternalID),
			fmt.Sprintf("Tag %q was renamed locally but remote segment %d still carries the old name: %v", tag.Name, tag.ExternalID, err))
	}
	return tag, nil
}

func (s *tagService) GetByID(ctx context.Context, id string) (*domain.Tag, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.repo.GetByID(ctx, id)
}

func (s *tagService) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Tag, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	tags, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list tags: %w", err)
	}
	if tags == nil {
		tags = []*domain.Tag{}
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count tags: %w", err)
	}
	return tags, count, nil
}

// notifyOps sends a best-effort divergence alert. Failures are logged only;
// alerting must never affect the request outcome.
func (s *tagService) notifyOps(subject, text string) {
	if s.mailer == nil || s.alertEmail == "" {
		return
	}
	if err := s.mailer.Send(s.alertEmail, "[audiencesync] "+subject, "", text); err != nil {
		s.logger.Error("ops alert email failed", "subject", subject, "err", err)
	}
}
