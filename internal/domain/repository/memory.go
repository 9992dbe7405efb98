package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vcontest/internal/common"
	"vcontest/internal/common/security"
	"vcontest/internal/domain/model"
)

// MemoryStore keeps every repository in process. It backs STORAGE_BACKEND=memory
// and the service tests; state is lost on restart.
type MemoryStore struct {
	mu sync.RWMutex

	users    map[string]*model.User
	sessions map[string]model.Session // keyed by hex token hash
	contests map[string]*model.Contest
	problems map[string][]model.ContestProblem
	members  map[string]map[string]struct{} // contest id -> user ids
	rankings map[model.RankingKind]map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*model.User),
		sessions: make(map[string]model.Session),
		contests: make(map[string]*model.Contest),
		problems: make(map[string][]model.ContestProblem),
		members:  make(map[string]map[string]struct{}),
		rankings: make(map[model.RankingKind]map[string]int64),
	}
}

// Users, Sessions, Contests and Rankings expose the store through the repository interfaces.
func (m *MemoryStore) Users() UserRepository       { return memUsers{m} }
func (m *MemoryStore) Sessions() SessionRepository { return memSessions{m} }
func (m *MemoryStore) Contests() ContestRepository { return memContests{m} }
func (m *MemoryStore) Rankings() RankingRepository { return memRankings{m} }

// SetRankingValue plays the role of the ingestion jobs for the in-memory backend.
func (m *MemoryStore) SetRankingValue(kind model.RankingKind, userID string, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rankings[kind] == nil {
		m.rankings[kind] = make(map[string]int64)
	}
	m.rankings[kind][userID] = value
}

type memUsers struct{ m *MemoryStore }

func (r memUsers) EnsureUser(ctx context.Context, providerUserID int64) (*model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	id := InternalUserIDFor(providerUserID)
	u, ok := r.m.users[id]
	if !ok {
		u = &model.User{InternalUserID: id, ProviderUserID: providerUserID, CreatedAt: time.Now()}
		r.m.users[id] = u
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) FindByID(ctx context.Context, internalUserID string) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[internalUserID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) UpdateAtCoderUserID(ctx context.Context, internalUserID string, atcoderUserID *string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[internalUserID]
	if !ok {
		return common.ErrNotFound
	}
	if atcoderUserID == nil {
		u.AtCoderUserID = nil
	} else {
		handle := *atcoderUserID
		u.AtCoderUserID = &handle
	}
	return nil
}

type memSessions struct{ m *MemoryStore }

func (r memSessions) Create(ctx context.Context, s *model.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	key := fmt.Sprintf("%x", security.HashToken(s.Token))
	if _, ok := r.m.sessions[key]; ok {
		return fmt.Errorf("session token collision: %w", common.ErrConflict)
	}
	r.m.sessions[key] = model.Session{InternalUserID: s.InternalUserID, ExpiresAt: s.ExpiresAt}
	return nil
}

func (r memSessions) Find(ctx context.Context, token string, now time.Time) (*model.Session, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	s, ok := r.m.sessions[fmt.Sprintf("%x", security.HashToken(token))]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, common.ErrNotFound
	}
	s.Token = token
	return &s, nil
}

type memContests struct{ m *MemoryStore }

func (r memContests) Create(ctx context.Context, c *model.Contest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.contests[c.ID]; ok {
		return fmt.Errorf("contest %s already exists: %w", c.ID, common.ErrConflict)
	}
	cp := *c
	r.m.contests[c.ID] = &cp
	return nil
}

func (r memContests) Update(ctx context.Context, c *model.Contest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.contests[c.ID]
	if !ok || cur.OwnerUserID != c.OwnerUserID {
		return common.ErrNotFound
	}
	cur.Title = c.Title
	cur.Memo = c.Memo
	cur.StartEpochSecond = c.StartEpochSecond
	cur.DurationSecond = c.DurationSecond
	cur.PenaltySecond = c.PenaltySecond
	cur.Mode = c.Mode
	cur.IsPublic = c.IsPublic
	return nil
}

func (r memContests) FindByID(ctx context.Context, id string) (*model.Contest, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.contests[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r memContests) ListRecentPublic(ctx context.Context, limit int) ([]model.Contest, error) {
	contests := r.filter(func(c *model.Contest) bool { return c.IsPublic })
	if len(contests) > limit {
		contests = contests[:limit]
	}
	return contests, nil
}

func (r memContests) ListByOwner(ctx context.Context, ownerUserID string) ([]model.Contest, error) {
	return r.filter(func(c *model.Contest) bool { return c.OwnerUserID == ownerUserID }), nil
}

func (r memContests) ListJoinedBy(ctx context.Context, internalUserID string) ([]model.Contest, error) {
	return r.filter(func(c *model.Contest) bool {
		_, ok := r.m.members[c.ID][internalUserID]
		return ok
	}), nil
}

// filter returns matching contests newest first, ties broken by id.
func (r memContests) filter(keep func(*model.Contest) bool) []model.Contest {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []model.Contest{}
	for _, c := range r.m.contests {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r memContests) ListProblems(ctx context.Context, contestID string) ([]model.ContestProblem, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]model.ContestProblem, len(r.m.problems[contestID]))
	copy(out, r.m.problems[contestID])
	return out, nil
}

func (r memContests) ReplaceProblems(ctx context.Context, contestID string, problems []model.ContestProblem) error {
	seen := make(map[string]struct{}, len(problems))
	for _, p := range problems {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("problem %s listed twice: %w", p.ID, common.ErrValidation)
		}
		seen[p.ID] = struct{}{}
	}
	next := make([]model.ContestProblem, len(problems))
	copy(next, problems)

	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.problems[contestID] = next
	return nil
}

func (r memContests) ListParticipantHandles(ctx context.Context, contestID string) ([]string, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	handles := []string{}
	for userID := range r.m.members[contestID] {
		if u, ok := r.m.users[userID]; ok && u.AtCoderUserID != nil {
			handles = append(handles, *u.AtCoderUserID)
		}
	}
	sort.Strings(handles)
	return handles, nil
}

func (r memContests) AddParticipant(ctx context.Context, contestID, internalUserID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.contests[contestID]; !ok {
		return common.ErrNotFound
	}
	if r.m.members[contestID] == nil {
		r.m.members[contestID] = make(map[string]struct{})
	}
	r.m.members[contestID][internalUserID] = struct{}{}
	return nil
}

func (r memContests) RemoveParticipant(ctx context.Context, contestID, internalUserID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.members[contestID], internalUserID)
	return nil
}

type memRankings struct{ m *MemoryStore }

func (r memRankings) sorted(kind model.RankingKind) []model.RankingEntry {
	entries := make([]model.RankingEntry, 0, len(r.m.rankings[kind]))
	for userID, v := range r.m.rankings[kind] {
		entries = append(entries, model.RankingEntry{UserID: userID, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].UserID < entries[j].UserID
	})
	return entries
}

func (r memRankings) Range(ctx context.Context, kind model.RankingKind, offset, limit int) ([]model.RankingEntry, error) {
	if _, err := lookupRankingTable(kind); err != nil {
		return nil, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	entries := r.sorted(kind)
	if offset >= len(entries) || limit <= 0 {
		return []model.RankingEntry{}, nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

func (r memRankings) Value(ctx context.Context, kind model.RankingKind, userID string) (int64, error) {
	if _, err := lookupRankingTable(kind); err != nil {
		return 0, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	v, ok := r.m.rankings[kind][userID]
	if !ok {
		return 0, common.ErrNotFound
	}
	return v, nil
}

func (r memRankings) CountGreater(ctx context.Context, kind model.RankingKind, value int64) (int64, error) {
	if _, err := lookupRankingTable(kind); err != nil {
		return 0, err
	}
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var n int64
	for _, v := range r.m.rankings[kind] {
		if v > value {
			n++
		}
	}
	return n, nil
}
