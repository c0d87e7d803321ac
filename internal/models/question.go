package models

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Question statuses. Status is a pure classification tag and does not gate
// any behavior.
const (
	StatusOpen      = "open"
	StatusClosed    = "closed"
	StatusDuplicate = "duplicate"
)

type Question struct {
	ID               int        `gorm:"primaryKey" json:"id"`
	Title            string     `gorm:"not null" json:"title"`
	Content          string     `gorm:"not null" json:"content"`
	Tags             []string   `gorm:"serializer:json" json:"tags"`
	AuthorID         int        `json:"author_id"`
	Author           User       `gorm:"foreignKey:AuthorID" json:"author"`
	Views            int        `gorm:"default:0" json:"views"`
	IsAnswered       bool       `gorm:"default:false" json:"is_answered"`
	AcceptedAnswerID *int       `json:"accepted_answer_id"`
	Status           string     `gorm:"default:open" json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type CreateQuestionRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (r CreateQuestionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(10, 300)),
		validation.Field(&r.Content, validation.Required, validation.Length(20, 0)),
		validation.Field(&r.Tags, validation.Each(validation.Length(1, 35))),
	)
}

type UpdateQuestionRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (r UpdateQuestionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Length(10, 300)),
		validation.Field(&r.Content, validation.Length(20, 0)),
		validation.Field(&r.Tags, validation.Each(validation.Length(1, 35))),
	)
}

// NormalizeTags trims and lowercases tags the way the store expects them.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
