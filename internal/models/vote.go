package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Vote target and type values. The votes table is the ledger of record;
// upvote/downvote sets on questions and answers are derived from it at read
// time, never stored.
const (
	TargetQuestion = "question"
	TargetAnswer   = "answer"

	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Vote model - one row per (user, target) pair, flipped in place on change
type Vote struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	UserID     int       `gorm:"uniqueIndex:idx_votes_user_target" json:"user_id"`
	TargetType string    `gorm:"uniqueIndex:idx_votes_user_target" json:"target_type"`
	TargetID   int       `gorm:"uniqueIndex:idx_votes_user_target" json:"target_id"`
	VoteType   string    `json:"vote_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type VoteRequest struct {
	VoteType string `json:"vote_type"`
}

func (r VoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.VoteType, validation.Required, validation.In(VoteUp, VoteDown)),
	)
}
