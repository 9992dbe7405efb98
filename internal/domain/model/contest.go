package model

import "time"

type Contest struct {
	ID               string    `json:"id"`
	OwnerUserID      string    `json:"owner_user_id"`
	Title            string    `json:"title"`
	Memo             string    `json:"memo"`
	StartEpochSecond int64     `json:"start_epoch_second"`
	DurationSecond   int64     `json:"duration_second"`
	PenaltySecond    int64     `json:"penalty_second"`
	Mode             *string   `json:"mode"`
	IsPublic         bool      `json:"is_public"`
	CreatedAt        time.Time `json:"-"`
}

// ContestProblem is one entry of a contest's problem set. Point and Order are
// serialised as null when unset.
type ContestProblem struct {
	ID    string `json:"id"`
	Point *int64 `json:"point"`
	Order *int64 `json:"order"`
}

// ContestDetail is the public view returned by a lookup by id.
type ContestDetail struct {
	Info         Contest          `json:"info"`
	Problems     []ContestProblem `json:"problems"`
	Participants []string         `json:"participants"`
}
