package handlers

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackitdev/stackit/backend/internal/models"
)

// pageSize is the fixed page size for every paginated listing.
const pageSize = 10

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Question *QuestionHandler
	Answer   *AnswerHandler
	Vote     *VoteHandler
	User     *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(db),
		Question: NewQuestionHandler(db),
		Answer:   NewAnswerHandler(db),
		Vote:     NewVoteHandler(db),
		User:     NewUserHandler(db),
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// pathID parses a numeric path parameter. Ids must never reach the database
// unparsed: GORM treats a non-numeric primary-key condition as raw SQL.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	return id, err == nil
}

// escapeLike quotes LIKE metacharacters in user input so they match
// literally instead of acting as wildcards.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// voteSets derives the upvoter and downvoter id lists for a target from the
// vote ledger. The ledger is the only source of truth; nothing is cached on
// the target rows.
func voteSets(db *gorm.DB, targetType string, targetID int) ([]int, []int) {
	up, down := []int{}, []int{}
	db.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ? AND vote_type = ?", targetType, targetID, models.VoteUp).
		Order("created_at asc").
		Pluck("user_id", &up)
	db.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ? AND vote_type = ?", targetType, targetID, models.VoteDown).
		Order("created_at asc").
		Pluck("user_id", &down)
	return up, down
}

func questionResponse(db *gorm.DB, q models.Question) gin.H {
	up, down := voteSets(db, models.TargetQuestion, q.ID)

	var answerCount int64
	db.Model(&models.Answer{}).Where("question_id = ?", q.ID).Count(&answerCount)

	return gin.H{
		"id":                 q.ID,
		"title":              q.Title,
		"content":            q.Content,
		"tags":               q.Tags,
		"author_id":          q.AuthorID,
		"author":             q.Author,
		"views":              q.Views,
		"is_answered":        q.IsAnswered,
		"accepted_answer_id": q.AcceptedAnswerID,
		"status":             q.Status,
		"upvotes":            up,
		"downvotes":          down,
		"vote_count":         len(up) - len(down),
		"answer_count":       answerCount,
		"created_at":         q.CreatedAt,
		"updated_at":         q.UpdatedAt,
	}
}

func answerResponse(db *gorm.DB, a models.Answer) gin.H {
	up, down := voteSets(db, models.TargetAnswer, a.ID)

	return gin.H{
		"id":           a.ID,
		"content":      a.Content,
		"author_id":    a.AuthorID,
		"author":       a.Author,
		"question_id":  a.QuestionID,
		"is_accepted":  a.IsAccepted,
		"is_edited":    a.IsEdited,
		"edited_at":    a.EditedAt,
		"edit_history": a.EditHistory,
		"upvotes":      up,
		"downvotes":    down,
		"vote_count":   len(up) - len(down),
		"created_at":   a.CreatedAt,
		"updated_at":   a.UpdatedAt,
	}
}

// sortedAnswerResponses lists a question's answers in display order:
// accepted answers first, then vote count descending, then oldest first.
func sortedAnswerResponses(db *gorm.DB, questionID int) ([]gin.H, error) {
	var answers []models.Answer
	if err := db.Where("question_id = ?", questionID).Preload("Author").Find(&answers).Error; err != nil {
		return nil, err
	}

	type ranked struct {
		answer models.Answer
		up     []int
		down   []int
	}
	items := make([]ranked, 0, len(answers))
	for _, a := range answers {
		up, down := voteSets(db, models.TargetAnswer, a.ID)
		items = append(items, ranked{answer: a, up: up, down: down})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.answer.IsAccepted != b.answer.IsAccepted {
			return a.answer.IsAccepted
		}
		av := len(a.up) - len(a.down)
		bv := len(b.up) - len(b.down)
		if av != bv {
			return av > bv
		}
		return a.answer.CreatedAt.Before(b.answer.CreatedAt)
	})

	responses := []gin.H{}
	for _, item := range items {
		responses = append(responses, gin.H{
			"id":           item.answer.ID,
			"content":      item.answer.Content,
			"author_id":    item.answer.AuthorID,
			"author":       item.answer.Author,
			"question_id":  item.answer.QuestionID,
			"is_accepted":  item.answer.IsAccepted,
			"is_edited":    item.answer.IsEdited,
			"edited_at":    item.answer.EditedAt,
			"edit_history": item.answer.EditHistory,
			"upvotes":      item.up,
			"downvotes":    item.down,
			"vote_count":   len(item.up) - len(item.down),
			"created_at":   item.answer.CreatedAt,
			"updated_at":   item.answer.UpdatedAt,
		})
	}
	return responses, nil
}
