package service

import (
	"context"

	"github.com/propdesk/propdesk/internal/cache"
	"github.com/propdesk/propdesk/internal/model"
	appErr "github.com/propdesk/propdesk/internal/pkg/errors"
	"github.com/propdesk/propdesk/internal/pkg/timeutil"
	"github.com/propdesk/propdesk/internal/repo"
)

const (
	maxListLimit    = 100
	maxRecentDays   = 30
	maxRecentLimit  = 50
	defaultRecent   = 7
	defaultRecentN  = 20
	defaultMsgLimit = 50
)

// Caller is the verified identity handed in by the auth middleware.
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) isAdmin() bool {
	return c.Role == model.RoleAdmin
}

type PageResult struct {
	Items      []model.Conversation `json:"items"`
	Page       int                  `json:"page"`
	Total      int64                `json:"total"`
	TotalPages int                  `json:"total_pages"`
}

// SessionService owns conversation/message reads, ownership enforcement
// and the listing cache in front of them. Ownership is enforced on the
// direct store path; the cache only ever narrows what a caller can see
// because its keys are scoped by caller.
type SessionService struct {
	conversations *repo.ConversationRepo
	messages      *repo.MessageRepo
	listing       *cache.Listing
}

func NewSessionService(conversations *repo.ConversationRepo, messages *repo.MessageRepo, listing *cache.Listing) *SessionService {
	return &SessionService{
		conversations: conversations,
		messages:      messages,
		listing:       listing,
	}
}

type listParams struct {
	Owner string `json:"owner"`
	Admin bool   `json:"admin"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Days  int    `json:"days"`
}

// List returns one page of the caller's conversations, newest first.
// Admin callers see every owner.
func (s *SessionService) List(ctx context.Context, caller Caller, page, limit, days int) (*PageResult, error) {
	if page < 1 || limit < 1 || limit > maxListLimit || days < 0 {
		return nil, appErr.ErrInvalid
	}
	owner := caller.UserID
	if caller.isAdmin() {
		owner = ""
	}
	params := listParams{Owner: owner, Admin: caller.isAdmin(), Page: page, Limit: limit, Days: days}
	var cached PageResult
	if s.listing.Get(ctx, cache.ClassList, caller.UserID, params, &cached) {
		return &cached, nil
	}

	var minMtime int64
	if days > 0 {
		minMtime = timeutil.DaysAgoUnix(days)
	}
	items, total, err := s.conversations.ListPage(ctx, owner, minMtime, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	result := &PageResult{
		Items:      items,
		Page:       page,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
	s.listing.Set(ctx, cache.ClassList, caller.UserID, params, result)
	return result, nil
}

// Recent restricts the listing to conversations updated within the last
// days (capped at 30) and returns at most limit items (capped at 50).
func (s *SessionService) Recent(ctx context.Context, caller Caller, days, limit int) ([]model.Conversation, error) {
	if days < 0 || days > maxRecentDays || limit < 0 || limit > maxRecentLimit {
		return nil, appErr.ErrInvalid
	}
	if days == 0 {
		days = defaultRecent
	}
	if limit == 0 {
		limit = defaultRecentN
	}
	owner := caller.UserID
	if caller.isAdmin() {
		owner = ""
	}
	params := listParams{Owner: owner, Admin: caller.isAdmin(), Page: 1, Limit: limit, Days: days}
	var cached []model.Conversation
	if s.listing.Get(ctx, cache.ClassRecent, caller.UserID, params, &cached) {
		return cached, nil
	}
	items, _, err := s.conversations.ListPage(ctx, owner, timeutil.DaysAgoUnix(days), 0, limit)
	if err != nil {
		return nil, err
	}
	s.listing.Set(ctx, cache.ClassRecent, caller.UserID, params, items)
	return items, nil
}

func (s *SessionService) Get(ctx context.Context, caller Caller, convID string) (*model.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !caller.isAdmin() && conv.UserID != caller.UserID {
		// Hide the row's existence from other owners.
		return nil, appErr.ErrNotFound
	}
	return conv, nil
}

func (s *SessionService) ListMessages(ctx context.Context, caller Caller, convID string, limit int) ([]model.Message, error) {
	if limit < 0 || limit > maxListLimit {
		return nil, appErr.ErrInvalid
	}
	if limit == 0 {
		limit = defaultMsgLimit
	}
	if _, err := s.Get(ctx, caller, convID); err != nil {
		return nil, err
	}
	return s.messages.ListRecent(ctx, convID, limit)
}

func (s *SessionService) Delete(ctx context.Context, caller Caller, convID string) error {
	conv, err := s.Get(ctx, caller, convID)
	if err != nil {
		return err
	}
	if err := s.conversations.Delete(ctx, convID); err != nil {
		return err
	}
	s.listing.Invalidate(ctx, conv.UserID)
	if caller.UserID != conv.UserID {
		s.listing.Invalidate(ctx, caller.UserID)
	}
	return nil
}
