package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackitdev/stackit/backend/internal/models"
)

type AnswerHandler struct {
	db *gorm.DB
}

func NewAnswerHandler(db *gorm.DB) *AnswerHandler {
	return &AnswerHandler{db: db}
}

var errNotAuthorized = errors.New("not authorized")

// CreateAnswer posts an answer to a question. A user may answer a given
// question at most once.
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.AnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := input.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	questionID, ok := pathID(c, "questionId")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var existing models.Answer
	err := h.db.Where("question_id = ? AND author_id = ?", question.ID, userID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You have already answered this question"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("look up existing answer for user %d on question %d: %v", userID, question.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create answer"})
		return
	}

	answer := models.Answer{
		Content:    input.Content,
		AuthorID:   userID,
		QuestionID: question.ID,
	}

	if err := h.db.Create(&answer).Error; err != nil {
		log.Printf("create answer: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create answer"})
		return
	}

	h.db.Preload("Author").First(&answer, answer.ID)
	c.JSON(http.StatusCreated, answerResponse(h.db, answer))
}

// UpdateAnswer edits an answer's content, snapshotting the previous content
// into the edit history (author or admin).
func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	answerID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.AnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := input.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, answerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	if !canModerate(h.db, userID, answer.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this answer"})
		return
	}

	if answer.Content != input.Content {
		now := time.Now().UTC()
		answer.EditHistory = append(answer.EditHistory, models.EditSnapshot{
			Content:  answer.Content,
			EditedAt: now,
		})
		answer.IsEdited = true
		answer.EditedAt = &now
	}
	answer.Content = input.Content

	if err := h.db.Save(&answer).Error; err != nil {
		log.Printf("update answer %d: %v", answer.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update answer"})
		return
	}

	h.db.Preload("Author").First(&answer, answer.ID)
	c.JSON(http.StatusOK, answerResponse(h.db, answer))
}

// DeleteAnswer removes an answer and its votes (author or admin). Deleting
// the accepted answer resets the parent question in the same transaction.
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	answerID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, answerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	if !canModerate(h.db, userID, answer.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this answer"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if answer.IsAccepted {
			err := tx.Model(&models.Question{}).
				Where("id = ?", answer.QuestionID).
				Updates(map[string]interface{}{
					"is_answered":        false,
					"accepted_answer_id": nil,
				}).Error
			if err != nil {
				return err
			}
		}
		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetAnswer, answer.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&answer).Error
	})
	if err != nil {
		log.Printf("delete answer %d: %v", answer.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete answer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer removed"})
}

// AcceptAnswer marks an answer as the question's accepted solution (question
// author or admin). Runs as one transaction: any other accepted answer on the
// question is unset, the target answer is flagged and the question updated,
// so at most one answer per question is ever accepted.
func (h *AnswerHandler) AcceptAnswer(c *gin.Context) {
	answerID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var answer models.Answer
	if err := h.db.First(&answer, answerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var question models.Question
		if err := tx.First(&question, answer.QuestionID).Error; err != nil {
			return err
		}

		if !canModerate(tx, userID, question.AuthorID) {
			return errNotAuthorized
		}

		err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND id <> ?", question.ID, answer.ID).
			Update("is_accepted", false).Error
		if err != nil {
			return err
		}

		if err := tx.Model(&answer).Update("is_accepted", true).Error; err != nil {
			return err
		}

		return tx.Model(&question).Updates(map[string]interface{}{
			"is_answered":        true,
			"accepted_answer_id": answer.ID,
		}).Error
	})
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	case errors.Is(err, errNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to accept this answer"})
		return
	case err != nil:
		log.Printf("accept answer %d: %v", answer.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept answer"})
		return
	}

	h.db.Preload("Author").First(&answer, answer.ID)
	c.JSON(http.StatusOK, answerResponse(h.db, answer))
}

// GetAnswersByQuestion lists a question's answers: accepted first, then by
// vote count, oldest first on ties.
func (h *AnswerHandler) GetAnswersByQuestion(c *gin.Context) {
	questionID, ok := pathID(c, "questionId")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	answers, err := sortedAnswerResponses(h.db, questionID)
	if err != nil {
		log.Printf("fetch answers for question %d: %v", questionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	c.JSON(http.StatusOK, answers)
}

// GetUserAnswers lists a user's answers, newest first, paginated.
func (h *AnswerHandler) GetUserAnswers(c *gin.Context) {
	authorID, ok := pathID(c, "userId")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("pageNumber", "1"))
	if page < 1 {
		page = 1
	}

	var total int64
	if err := h.db.Model(&models.Answer{}).Where("author_id = ?", authorID).Count(&total).Error; err != nil {
		log.Printf("count answers for user %d: %v", authorID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	var answers []models.Answer
	err := h.db.Where("author_id = ?", authorID).
		Preload("Author").
		Preload("Question").
		Order("created_at desc").
		Limit(pageSize).
		Offset(pageSize * (page - 1)).
		Find(&answers).Error
	if err != nil {
		log.Printf("fetch answers for user %d: %v", authorID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	responses := []gin.H{}
	for _, a := range answers {
		resp := answerResponse(h.db, a)
		resp["question_title"] = a.Question.Title
		responses = append(responses, resp)
	}

	pages := int((total + pageSize - 1) / pageSize)
	c.JSON(http.StatusOK, gin.H{
		"answers": responses,
		"page":    page,
		"pages":   pages,
		"total":   total,
	})
}
