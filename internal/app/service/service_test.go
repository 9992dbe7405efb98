package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vcontest/internal/domain/repository"
)

type fixture struct {
	store    *repository.MemoryStore
	contests *ContestService
	users    *UserService
	rankings *RankingService
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	v := NewValidator()
	f := &fixture{
		store:    store,
		contests: NewContestService(store.Contests(), v, 100, 1000),
		users:    NewUserService(store.Users(), v),
		rankings: NewRankingService(store.Rankings(), 1000),
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	// Each created contest is one second newer than the previous one.
	f.contests.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	return f
}

// user registers a provider id and optionally links an AtCoder handle.
func (f *fixture) user(t *testing.T, providerID int64, handle string) string {
	t.Helper()
	ctx := context.Background()
	u, err := f.store.Users().EnsureUser(ctx, providerID)
	require.NoError(t, err)
	if handle != "" {
		require.NoError(t, f.users.UpdateAtCoderUserID(ctx, u.InternalUserID, UpdateUserRequest{AtCoderUserID: handle}))
	}
	return u.InternalUserID
}

func boolPtr(b bool) *bool    { return &b }
func int64Ptr(i int64) *int64 { return &i }
func strPtr(s string) *string { return &s }
