package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type Answer struct {
	ID          int            `gorm:"primaryKey" json:"id"`
	Content     string         `gorm:"not null" json:"content"`
	AuthorID    int            `json:"author_id"`
	Author      User           `gorm:"foreignKey:AuthorID" json:"author"`
	QuestionID  int            `gorm:"index" json:"question_id"`
	Question    Question       `gorm:"foreignKey:QuestionID" json:"-"`
	IsAccepted  bool           `gorm:"default:false" json:"is_accepted"`
	IsEdited    bool           `gorm:"default:false" json:"is_edited"`
	EditedAt    *time.Time     `json:"edited_at"`
	EditHistory []EditSnapshot `gorm:"serializer:json" json:"edit_history"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// EditSnapshot preserves the previous content of an answer before an edit.
type EditSnapshot struct {
	Content  string    `json:"content"`
	EditedAt time.Time `json:"edited_at"`
}

type AnswerRequest struct {
	Content string `json:"content"`
}

func (r AnswerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.Required, validation.Length(10, 0)),
	)
}
