package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"audiencesync/internal/domain"
)

// searchPageSize is the page size used when searching lists and segments by
// name. The remote API has no page-number parameter, so the offset is
// computed as pageSize * (page - 1).
const searchPageSize = 10

type listGateway struct {
	api         domain.MarketingAPI
	logger      *slog.Logger
	listName    string
	segmentName string

	// Memoized for the lifetime of the gateway instance; never invalidated.
	// One gateway serves all requests, so resolution is serialized: the
	// mutexes are held across the name search so concurrent callers share a
	// single lookup. listMu may be taken while segMu is held, never the
	// reverse.
	listMu    sync.Mutex
	listID    string
	segMu     sync.Mutex
	segmentID int
}

// NewListGateway returns a domain.List bound to the named mailing list and
// customer segment. listID may be passed when already known; otherwise it is
// resolved lazily by name search on first use.
func NewListGateway(api domain.MarketingAPI, logger *slog.Logger, listName, segmentName, listID string) domain.List {
	return &listGateway{
		api:         api,
		logger:      logger,
		listName:    listName,
		segmentName: segmentName,
		listID:      listID,
	}
}

// memberKey computes the remote platform's member addressing key:
// the lowercase hex MD5 digest of the lowercased email. This is the
// platform's documented addressing contract; any other scheme would miss
// members created by earlier syncs.
func memberKey(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

func (g *listGateway) Subscribe(ctx context.Context, email string, mergeFields map[string]any, opts domain.SubscribeOptions) {
	g.logger.Info("subscribing member", "email", email, "list", g.listName)

	listID, ok := g.resolveListID(ctx)
	if !ok {
		return
	}
	body := domain.MemberUpsert{
		EmailAddress: email,
		Status:       "subscribed",
		EmailType:    "html",
		MergeFields:  mergeFields,
		Interests:    opts.Interests,
	}
	if err := g.api.UpsertMember(ctx, listID, memberKey(email), body); err != nil {
		g.logger.Error("subscriber rejected", "email", email, "err", err, "raw_body", rawBody(err))
		return
	}
	if opts.Customer {
		if err := g.Segment(ctx, []string{email}); err != nil {
			g.logger.Error("adding subscriber to customer segment failed", "email", email, "err", err)
		}
	}
}

func (g *listGateway) Unsubscribe(ctx context.Context, email string) {
	g.logger.Info("unsubscribing member", "email", email, "list", g.listName)

	listID, ok := g.resolveListID(ctx)
	if !ok {
		return
	}
	body := domain.MemberUpsert{
		EmailAddress: email,
		Status:       "unsubscribed",
	}
	if err := g.api.UpdateMember(ctx, listID, memberKey(email), body); err != nil {
		g.logger.Error("subscriber unsubscribe failed", "email", email, "err", err, "raw_body", rawBody(err))
	}
}

func (g *listGateway) EmailForID(ctx context.Context, uniqueEmailID string) (string, bool) {
	g.logger.Info("looking up member email", "unique_email_id", uniqueEmailID, "list", g.listName)

	listID, ok := g.resolveListID(ctx)
	if !ok {
		return "", false
	}
	members, err := g.api.SearchMembersByUniqueID(ctx, listID, uniqueEmailID)
	if err != nil || len(members) == 0 {
		return "", false
	}
	return members[0].EmailAddress, true
}

func (g *listGateway) Info(ctx context.Context, email string) domain.MemberInfo {
	g.logger.Info("checking member info", "email", email, "list", g.listName)

	listID, ok := g.resolveListID(ctx)
	if !ok {
		return domain.MemberInfo{}
	}
	member, err := g.api.GetMember(ctx, listID, memberKey(email))
	if err != nil {
		return domain.MemberInfo{}
	}
	return domain.MemberInfo{
		Email:       member.EmailAddress,
		Status:      member.Status,
		MergeFields: member.MergeFields,
	}
}

func (g *listGateway) MergeVars(ctx context.Context) ([]string, error) {
	g.logger.Info("finding merge vars", "list", g.listName)

	listID, ok := g.resolveListID(ctx)
	if !ok {
		return nil, fmt.Errorf("list %q not found", g.listName)
	}
	fields, err := g.api.MergeFields(ctx, listID)
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		tags = append(tags, f.Tag)
	}
	return tags, nil
}

func (g *listGateway) AddMergeVar(ctx context.Context, tag, description string) error {
	g.logger.Info("adding merge var", "tag", tag, "list", g.listName)

	listID, ok := g.resolveListID(ctx)
	if !ok {
		return fmt.Errorf("list %q not found", g.listName)
	}
	_, err := g.api.CreateMergeField(ctx, listID, tag, description)
	return err
}

func (g *listGateway) Segment(ctx context.Context, emails []string) error {
	listID, ok := g.resolveListID(ctx)
	if !ok {
		return fmt.Errorf("list %q not found", g.listName)
	}
	segmentID, ok := g.resolveSegmentID(ctx)
	if !ok {
		return fmt.Errorf("segment %q not found", g.segmentName)
	}
	g.logger.Info("adding members to segment",
		"emails", emails, "segment", g.segmentName, "segment_id", segmentID, "list_id", listID)
	return g.api.AddSegmentMembers(ctx, listID, segmentID, emails)
}

// FindListID searches the account's lists for the given name. The needle is
// lowercased first, so only lists whose stored name is already lowercase can
// match; this mirrors how existing remote data was addressed.
func (g *listGateway) FindListID(ctx context.Context, name string) (string, bool) {
	list, ok := g.searchLists(ctx, strings.ToLower(name))
	if !ok {
		return "", false
	}
	return list.ID, true
}

func (g *listGateway) searchLists(ctx context.Context, name string) (domain.AudienceList, bool) {
	// The response carries no total_items, so fetch pages until a short or
	// empty page signals the end. Account list counts are bounded in
	// practice, so the walk terminates.
	for page := 1; ; page++ {
		offset := searchPageSize * (page - 1)
		lists, err := g.api.Lists(ctx, searchPageSize, offset)
		if err != nil {
			g.logger.Error("retrieving lists failed",
				"list_name", name, "page_size", searchPageSize, "page_number", page,
				"calculated_offset", offset, "err", err)
			return domain.AudienceList{}, false
		}
		if len(lists) == 0 {
			return domain.AudienceList{}, false
		}
		for _, list := range lists {
			if list.Name == name {
				return list, true
			}
		}
		if len(lists) < searchPageSize {
			// A short page means there is nothing further to fetch.
			return domain.AudienceList{}, false
		}
	}
}

// FindSegmentID searches the list's segments for the configured segment name,
// case-insensitively.
func (g *listGateway) FindSegmentID(ctx context.Context) (int, bool) {
	segment, ok := g.searchSegments(ctx, g.segmentName)
	if !ok {
		return 0, false
	}
	return segment.ID, true
}

func (g *listGateway) searchSegments(ctx context.Context, name string) (domain.Segment, bool) {
	listID, ok := g.resolveListID(ctx)
	if !ok {
		return domain.Segment{}, false
	}
	for page := 1; ; page++ {
		offset := searchPageSize * (page - 1)
		segments, err := g.api.Segments(ctx, listID, searchPageSize, offset)
		if err != nil {
			g.logger.Error("retrieving segments failed",
				"segment_name", name, "page_size", searchPageSize, "page_number", page,
				"calculated_offset", offset, "err", err)
			return domain.Segment{}, false
		}
		if len(segments) == 0 {
			return domain.Segment{}, false
		}
		for _, segment := range segments {
			if strings.EqualFold(segment.Name, name) {
				return segment, true
			}
		}
		if len(segments) < searchPageSize {
			return domain.Segment{}, false
		}
	}
}

func (g *listGateway) CreateTagSegment(ctx context.Context, name string) (*domain.Segment, error) {
	listID, ok := g.resolveListID(ctx)
	if !ok {
		return nil, fmt.Errorf("list %q not found", g.listName)
	}
	return g.api.CreateSegment(ctx, listID, name)
}

func (g *listGateway) RenameSegment(ctx context.Context, externalID int, name string) error {
	listID, ok := g.resolveListID(ctx)
	if !ok {
		return fmt.Errorf("list %q not found", g.listName)
	}
	_, err := g.api.UpdateSegment(ctx, listID, externalID, name)
	return err
}

func (g *listGateway) DeleteSegment(ctx context.Context, externalID int) error {
	listID, ok := g.resolveListID(ctx)
	if !ok {
		return fmt.Errorf("list %q not found", g.listName)
	}
	return g.api.DeleteSegment(ctx, listID, externalID)
}

func (g *listGateway) resolveListID(ctx context.Context) (string, bool) {
	g.listMu.Lock()
	defer g.listMu.Unlock()
	if g.listID != "" {
		return g.listID, true
	}
	id, ok := g.FindListID(ctx, g.listName)
	if !ok {
		return "", false
	}
	g.listID = id
	return id, true
}

// resolveSegmentID finds the configured customer segment, creating it when
// absent. On creation failure the id stays unmemoized so a later call
// retries.
func (g *listGateway) resolveSegmentID(ctx context.Context) (int, bool) {
	g.segMu.Lock()
	defer g.segMu.Unlock()
	if g.segmentID != 0 {
		return g.segmentID, true
	}
	if id, ok := g.FindSegmentID(ctx); ok {
		g.segmentID = id
		return id, true
	}
	return g.createSegment(ctx)
}

// createSegment is called with segMu held.
func (g *listGateway) createSegment(ctx context.Context) (int, bool) {
	listID, ok := g.resolveListID(ctx)
	if !ok {
		return 0, false
	}
	g.logger.Info("segment does not exist, attempting to create it", "segment_name", g.segmentName)
	segment, err := g.api.CreateSegment(ctx, listID, g.segmentName)
	if err != nil {
		g.logger.Error("creating segment failed", "segment_name", g.segmentName, "err", err)
		return 0, false
	}
	g.segmentID = segment.ID
	return segment.ID, true
}

// rawBody extracts the remote response body from an error when available.
func rawBody(err error) string {
	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.RawBody
	}
	return ""
}
