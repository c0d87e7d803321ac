package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackitdev/stackit/backend/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetUserProfile returns a user's public profile with their questions and
// activity counts.
func (h *UserHandler) GetUserProfile(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var questions []models.Question
	err := h.db.Where("author_id = ?", user.ID).
		Preload("Author").
		Order("created_at desc").
		Find(&questions).Error
	if err != nil {
		log.Printf("fetch questions for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	responses := []gin.H{}
	for _, q := range questions {
		responses = append(responses, questionResponse(h.db, q))
	}

	var answerCount int64
	h.db.Model(&models.Answer{}).Where("author_id = ?", user.ID).Count(&answerCount)

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"bio":        user.Bio,
			"avatar":     user.Avatar,
			"reputation": user.Reputation,
			"created_at": user.CreatedAt,
		},
		"questions":      responses,
		"question_count": len(responses),
		"answer_count":   answerCount,
	})
}
