package authkeep

import (
	"context"
	"math"
	"strings"
	"time"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// HealthStatus is an on-demand cache health result.
type HealthStatus struct {
	CacheAvailable bool
	CacheLatency   time.Duration
}

// Health pings the cache and times the round trip.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil {
		return HealthStatus{}
	}
	start := time.Now()
	err := e.cache.Ping(ctx)
	return HealthStatus{
		CacheAvailable: err == nil,
		CacheLatency:   time.Since(start),
	}
}

// CurrentSession resolves the user's session pointer and reads the session, which
// renews its TTL. NotFound when the user has no live session.
func (e *Engine) CurrentSession(ctx context.Context, userID string) (*SessionInfo, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	sid, ok := e.sessions.CurrentID(ctx, userID)
	if !ok {
		return nil, NewError(KindNotFound, "Session not found")
	}
	sess, ok := e.sessions.Get(ctx, sid)
	if !ok {
		return nil, NewError(KindNotFound, "Session not found")
	}
	return &SessionInfo{
		SessionID:      sess.SessionID,
		UserID:         sess.UserID,
		Metadata:       sess.Metadata,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
	}, nil
}

// ListUsers returns one page of users. Page defaults to 1 and Limit to 10 (max 100).
func (e *Engine) ListUsers(ctx context.Context, q ListQuery) (*UserList, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	q = normalizeListQuery(q)

	rows, total, err := e.users.List(ctx, q)
	if err != nil {
		return nil, e.storeError(err, "")
	}

	totalPages := int(math.Ceil(float64(total) / float64(q.Limit)))
	return &UserList{
		Users:       listed(rows),
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: q.Page,
		HasNextPage: q.Page < totalPages,
		HasPrevPage: q.Page > 1,
	}, nil
}

// ExportUsers returns every user matching the search, role and status filters,
// newest first.
func (e *Engine) ExportUsers(ctx context.Context, q ListQuery) ([]ListedUser, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	q.Page, q.Limit = 0, 0
	q.SortBy, q.SortOrder = "createdAt", "desc"
	rows, _, err := e.users.List(ctx, normalizeListQuery(q))
	if err != nil {
		return nil, e.storeError(err, "")
	}
	return listed(rows), nil
}

// UserStats counts users by status, role and recent registration (30 days).
func (e *Engine) UserStats(ctx context.Context) (*UserStats, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	count := func(q ListQuery) (int64, error) {
		q.Page, q.Limit = 1, 1
		_, n, err := e.users.List(ctx, q)
		return n, err
	}

	var s UserStats
	var err error
	if s.TotalUsers, err = count(ListQuery{}); err != nil {
		return nil, e.storeError(err, "")
	}
	if s.ActiveUsers, err = count(ListQuery{Status: "active"}); err != nil {
		return nil, e.storeError(err, "")
	}
	if s.VerifiedUsers, err = count(ListQuery{Status: "verified"}); err != nil {
		return nil, e.storeError(err, "")
	}
	if s.AdminUsers, err = count(ListQuery{Role: string(RoleAdmin)}); err != nil {
		return nil, e.storeError(err, "")
	}
	if s.RecentRegistrations, err = count(ListQuery{CreatedAfter: e.now().AddDate(0, 0, -30)}); err != nil {
		return nil, e.storeError(err, "")
	}
	s.InactiveUsers = s.TotalUsers - s.ActiveUsers
	s.UnverifiedUsers = s.TotalUsers - s.VerifiedUsers
	s.RegularUsers = s.TotalUsers - s.AdminUsers
	return &s, nil
}

var sortableFields = map[string]bool{
	"fullname":  true,
	"username":  true,
	"email":     true,
	"role":      true,
	"createdAt": true,
	"lastLogin": true,
}

func normalizeListQuery(q ListQuery) ListQuery {
	q.Search = strings.TrimSpace(q.Search)
	if q.Role == "all" {
		q.Role = ""
	}
	if q.Status == "all" {
		q.Status = ""
	}
	if !sortableFields[q.SortBy] {
		q.SortBy = "createdAt"
	}
	if strings.EqualFold(q.SortOrder, "asc") {
		q.SortOrder = "asc"
	} else {
		q.SortOrder = "desc"
	}
	return q
}

func listed(rows []UserRecord) []ListedUser {
	out := make([]ListedUser, 0, len(rows))
	for i := range rows {
		u := ListedUser{Profile: *rows[i].Profile(), Status: "inactive", VerificationStatus: "unverified"}
		if rows[i].IsActive {
			u.Status = "active"
		}
		if rows[i].IsEmailVerified {
			u.VerificationStatus = "verified"
		}
		out = append(out, u)
	}
	return out
}
