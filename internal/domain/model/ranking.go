package model

// RankingKind selects one of the externally maintained per-user counters.
type RankingKind string

const (
	RankingStreak        RankingKind = "streak"
	RankingAccepted      RankingKind = "ac"
	RankingRatedPointSum RankingKind = "rated_point_sum"
)

// ValueField is the JSON key under which ranking pages report the counter.
func (k RankingKind) ValueField() string {
	switch k {
	case RankingAccepted:
		return "problem_count"
	case RankingRatedPointSum:
		return "point_sum"
	default:
		return "count"
	}
}

type RankingEntry struct {
	UserID string
	Value  int64
}

type UserRank struct {
	Count int64 `json:"count"`
	Rank  int64 `json:"rank"`
}
