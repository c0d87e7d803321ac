package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackitdev/stackit/backend/internal/models"
)

type VoteHandler struct {
	db *gorm.DB
}

func NewVoteHandler(db *gorm.DB) *VoteHandler {
	return &VoteHandler{db: db}
}

// VoteQuestion casts, toggles or changes the caller's vote on a question
func (h *VoteHandler) VoteQuestion(c *gin.Context) {
	h.castVote(c, models.TargetQuestion)
}

// VoteAnswer casts, toggles or changes the caller's vote on an answer
func (h *VoteHandler) VoteAnswer(c *gin.Context) {
	h.castVote(c, models.TargetAnswer)
}

// castVote is the voting state machine. The ledger row for
// (user, target type, target id) decides the outcome:
// none yet — create one; same vote type — toggle off; different — flip it.
func (h *VoteHandler) castVote(c *gin.Context, targetType string) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote type"})
		return
	}
	if err := input.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote type"})
		return
	}

	targetID, ok := pathID(c, "id")

	// Resolve the target and its author; self-voting is disallowed.
	var target struct {
		ID       int
		AuthorID int
	}
	var err error
	if !ok {
		err = gorm.ErrRecordNotFound
	} else {
		switch targetType {
		case models.TargetQuestion:
			var question models.Question
			if err = h.db.First(&question, targetID).Error; err == nil {
				target.ID, target.AuthorID = question.ID, question.AuthorID
			}
		case models.TargetAnswer:
			var answer models.Answer
			if err = h.db.First(&answer, targetID).Error; err == nil {
				target.ID, target.AuthorID = answer.ID, answer.AuthorID
			}
		}
	}
	if err != nil {
		if targetType == models.TargetQuestion {
			c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		} else {
			c.JSON(http.StatusNotFound, gin.H{"error": "Answer not found"})
		}
		return
	}

	if target.AuthorID == userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot vote on your own " + targetType})
		return
	}

	var existing models.Vote
	err = h.db.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, target.ID).
		First(&existing).Error

	if err == nil {
		if existing.VoteType == input.VoteType {
			// Same vote - remove it (toggle)
			if err := h.db.Delete(&existing).Error; err != nil {
				log.Printf("remove vote %d: %v", existing.ID, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Vote removed"})
			return
		}
		// Different vote - flip it in place
		existing.VoteType = input.VoteType
		if err := h.db.Save(&existing).Error; err != nil {
			log.Printf("update vote %d: %v", existing.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Vote updated"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("look up vote for user %d on %s %d: %v", userID, targetType, target.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
		return
	}

	vote := models.Vote{
		UserID:     userID,
		TargetType: targetType,
		TargetID:   target.ID,
		VoteType:   input.VoteType,
	}

	if err := h.db.Create(&vote).Error; err != nil {
		log.Printf("create vote for user %d on %s %d: %v", userID, targetType, target.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vote added"})
}

// GetUserVotes returns the caller's voting history, newest first. Each entry
// carries a summary of the voted target so the history is readable on its own.
func (h *VoteHandler) GetUserVotes(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var votes []models.Vote
	if err := h.db.Where("user_id = ?", userID).Order("created_at desc").Find(&votes).Error; err != nil {
		log.Printf("fetch votes for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch votes"})
		return
	}

	responses := []gin.H{}
	for _, v := range votes {
		resp := gin.H{
			"id":          v.ID,
			"user_id":     v.UserID,
			"target_type": v.TargetType,
			"target_id":   v.TargetID,
			"vote_type":   v.VoteType,
			"created_at":  v.CreatedAt,
		}
		switch v.TargetType {
		case models.TargetQuestion:
			var question models.Question
			if err := h.db.Select("id", "title").First(&question, v.TargetID).Error; err == nil {
				resp["target"] = gin.H{"id": question.ID, "title": question.Title}
			}
		case models.TargetAnswer:
			var answer models.Answer
			if err := h.db.Preload("Question").First(&answer, v.TargetID).Error; err == nil {
				resp["target"] = gin.H{
					"id":             answer.ID,
					"content":        answer.Content,
					"question_id":    answer.QuestionID,
					"question_title": answer.Question.Title,
				}
			}
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, responses)
}
