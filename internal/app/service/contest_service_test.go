package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcontest/internal/common"
	"vcontest/internal/domain/model"
)

func TestContestService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, 0, "")

	resp, err := f.contests.Create(ctx, owner, CreateContestRequest{
		Title:            "contest title",
		Memo:             "contest memo",
		StartEpochSecond: 1,
		DurationSecond:   2,
		PenaltySecond:    300,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ContestID)

	detail, err := f.contests.Get(ctx, resp.ContestID)
	require.NoError(t, err)
	assert.Equal(t, model.Contest{
		ID:               resp.ContestID,
		OwnerUserID:      "0",
		Title:            "contest title",
		Memo:             "contest memo",
		StartEpochSecond: 1,
		DurationSecond:   2,
		PenaltySecond:    300,
		IsPublic:         true,
		CreatedAt:        detail.Info.CreatedAt,
	}, detail.Info)
	assert.Nil(t, detail.Info.Mode)
	assert.Empty(t, detail.Problems)
	assert.Empty(t, detail.Participants)
}

func TestContestService_CreateRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.contests.Create(context.Background(), "", CreateContestRequest{Title: "t"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestContestService_CreateValidatesInput(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, 0, "")

	tests := []struct {
		name string
		req  CreateContestRequest
	}{
		{"negative duration", CreateContestRequest{Title: "t", DurationSecond: -1}},
		{"negative penalty", CreateContestRequest{Title: "t", PenaltySecond: -5}},
		{"title too long", CreateContestRequest{Title: strings.Repeat("a", 256)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.contests.Create(context.Background(), owner, tt.req)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestContestService_TitleLengthBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, 0, "")

	// Titles must fit the VARCHAR(255) column on every backend.
	resp, err := f.contests.Create(ctx, owner, CreateContestRequest{Title: strings.Repeat("a", 255)})
	require.NoError(t, err)

	_, err = f.contests.Create(ctx, owner, CreateContestRequest{Title: strings.Repeat("a", 256)})
	assert.ErrorIs(t, err, common.ErrValidation)

	err = f.contests.Update(ctx, owner, UpdateContestRequest{
		ID:                   resp.ContestID,
		CreateContestRequest: CreateContestRequest{Title: strings.Repeat("b", 256)},
	})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestContestService_VisibilityToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, 0, "")

	resp, err := f.contests.Create(ctx, owner, CreateContestRequest{Title: "t", DurationSecond: 2})
	require.NoError(t, err)

	recent, err := f.contests.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, resp.ContestID, recent[0].ID)

	err = f.contests.Update(ctx, owner, UpdateContestRequest{
		ID:                   resp.ContestID,
		CreateContestRequest: CreateContestRequest{Title: "t", DurationSecond: 2, IsPublic: boolPtr(false)},
	})
	require.NoError(t, err)

	recent, err = f.contests.ListRecent(ctx)
	require.NoError(t, err)
	assert.Empty(t, recent)

	// Private contests stay reachable by id and in the owner's list.
	detail, err := f.contests.Get(ctx, resp.ContestID)
	require.NoError(t, err)
	assert.False(t, detail.Info.IsPublic)

	owned, err := f.contests.ListOwned(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func TestContestService_UpdateOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, 0, "")
	other := f.user(t, 1, "")

	resp, err := f.contests.Create(ctx, owner, CreateContestRequest{Title: "original"})
	require.NoError(t, err)

	update := func(caller, id string) error {
		return f.contests.Update(ctx, caller, UpdateContestRequest{
			ID:                   id,
			CreateContestRequest: CreateContestRequest{Title: "changed", Mode: strPtr("lockout")},
		})
	}

	assert.ErrorIs(t, update(other, resp.ContestID), common.ErrForbidden)
	assert.ErrorIs(t, update("", resp.ContestID), common.ErrUnauthorized)
	assert.ErrorIs(t, update(owner, "missing"), common.ErrNotFound)

	detail, err := f.contests.Get(ctx, resp.ContestID)
	require.NoError(t, err)
	assert.Equal(t, "original", detail.Info.Title)

	require.NoError(t, update(owner, resp.ContestID))
	detail, err = f.contests.Get(ctx, resp.ContestID)
	require.NoError(t, err)
	assert.Equal(t, "changed", detail.Info.Title)
	require.NotNil(t, detail.Info.Mode)
	assert.Equal(t, "lockout", *detail.Info.Mode)
}

func TestContestService_Membership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, 0, "")
	alice := f.user(t, 1, "alice")
	bob := f.user(t, 2, "bob")
	unlinked := f.user(t, 3, "")

	resp, err := f.contests.Create(ctx, owner, CreateContestRequest{Title: "t"})
	require.NoError(t, err)
	join := MembershipRequest{ContestID: resp.ContestID}

	require.NoError(t, f.contests.Join(ctx, bob, join))
	require.NoError(t, f.contests.Join(ctx, alice, join))
	require.NoError(t, f.contests.Join(ctx, alice, join))
	require.NoError(t, f.contests.Join(ctx, unlinked, join))

	detail, err := f.contests.Get(ctx, resp.ContestID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, detail.Participants)

	joined, err := f.contests.ListJoined(ctx, alice)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, resp.ContestID, joined[0].ID)

	require.NoError(t, f.contests.Leave(ctx, alice, join))
	require.NoError(t, f.contests.Leave(ctx, alice, join))

	detail, err = f.contests.Get(ctx, resp.ContestID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, detail.Participants)

	joined, err = f.contests.ListJoined(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, joined)
}

func TestContestService_JoinUnknownContest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, 1, "")

	assert.ErrorIs(t, f.contests.Join(ctx, u, MembershipRequest{ContestID: "missing"}), common.ErrNotFound)
	assert.NoError(t, f.contests.Leave(ctx, u, MembershipRequest{ContestID: "missing"}))
	assert.ErrorIs(t, f.contests.Join(ctx, u, MembershipRequest{}), common.ErrValidation)
}

func TestContestService_ReplaceProblems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, 0, "")
	other := f.user(t, 1, "")

	resp, err := f.contests.Create(ctx, owner, CreateContestRequest{Title: "t"})
	require.NoError(t, err)

	require.NoError(t, f.contests.ReplaceProblems(ctx, owner, ReplaceProblemsRequest{
		ContestID: resp.ContestID,
		Problems:  []ContestProblemRequest{{ID: "abc001_a"}},
	}))
	require.NoError(t, f.contests.ReplaceProblems(ctx, owner, ReplaceProblemsRequest{
		ContestID: resp.ContestID,
		Problems: []ContestProblemRequest{
			{ID: "abc001_b", Point: int64Ptr(100)},
			{ID: "abc001_a", Order: int64Ptr(2)},
		},
	}))

	detail, err := f.contests.Get(ctx, resp.ContestID)
	require.NoError(t, err)
	assert.Equal(t, []model.ContestProblem{
		{ID: "abc001_b", Point: int64Ptr(100)},
		{ID: "abc001_a", Order: int64Ptr(2)},
	}, detail.Problems)

	err = f.contests.ReplaceProblems(ctx, other, ReplaceProblemsRequest{ContestID: resp.ContestID})
	assert.ErrorIs(t, err, common.ErrForbidden)

	err = f.contests.ReplaceProblems(ctx, owner, ReplaceProblemsRequest{ContestID: "missing"})
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = f.contests.ReplaceProblems(ctx, owner, ReplaceProblemsRequest{
		ContestID: resp.ContestID,
		Problems:  []ContestProblemRequest{{ID: "x"}, {ID: "x"}},
	})
	assert.ErrorIs(t, err, common.ErrValidation)

	tooMany := make([]ContestProblemRequest, 101)
	for i := range tooMany {
		tooMany[i] = ContestProblemRequest{ID: fmt.Sprintf("p%d", i)}
	}
	err = f.contests.ReplaceProblems(ctx, owner, ReplaceProblemsRequest{ContestID: resp.ContestID, Problems: tooMany})
	assert.ErrorIs(t, err, common.ErrValidation)

	// Rejected requests leave the previous list intact.
	detail, err = f.contests.Get(ctx, resp.ContestID)
	require.NoError(t, err)
	assert.Len(t, detail.Problems, 2)

	require.NoError(t, f.contests.ReplaceProblems(ctx, owner, ReplaceProblemsRequest{ContestID: resp.ContestID}))
	detail, err = f.contests.Get(ctx, resp.ContestID)
	require.NoError(t, err)
	assert.Empty(t, detail.Problems)
}

func TestContestService_ListOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, 0, "")

	var ids []string
	for i := 0; i < 3; i++ {
		resp, err := f.contests.Create(ctx, owner, CreateContestRequest{Title: fmt.Sprintf("c%d", i)})
		require.NoError(t, err)
		ids = append(ids, resp.ContestID)
	}

	recent, err := f.contests.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{recent[0].ID, recent[1].ID, recent[2].ID})

	f.contests.recentLimit = 2
	recent, err = f.contests.ListRecent(ctx)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
