package handlers

import (
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stackitdev/stackit/backend/internal/models"
)

type QuestionHandler struct {
	db *gorm.DB
}

func NewQuestionHandler(db *gorm.DB) *QuestionHandler {
	return &QuestionHandler{db: db}
}

// GetQuestions returns a page of questions, newest first, optionally filtered
// by a case-insensitive keyword over title/content and an exact tag match.
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("pageNumber", "1"))
	if page < 1 {
		page = 1
	}

	keyword := c.Query("keyword")
	tag := c.Query("tag")

	filter := func(db *gorm.DB) *gorm.DB {
		if keyword != "" {
			pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
			db = db.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`, pattern, pattern)
		}
		if tag != "" {
			// Tags are stored as a JSON array of lowercase strings.
			db = db.Where(`tags LIKE ? ESCAPE '\'`, `%"`+escapeLike(strings.ToLower(tag))+`"%`)
		}
		return db
	}

	var total int64
	if err := h.db.Model(&models.Question{}).Scopes(filter).Count(&total).Error; err != nil {
		log.Printf("count questions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	var questions []models.Question
	err := h.db.Scopes(filter).
		Preload("Author").
		Order("created_at desc").
		Limit(pageSize).
		Offset(pageSize * (page - 1)).
		Find(&questions).Error
	if err != nil {
		log.Printf("fetch questions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	responses := []gin.H{}
	for _, q := range questions {
		responses = append(responses, questionResponse(h.db, q))
	}

	pages := int((total + pageSize - 1) / pageSize)
	c.JSON(http.StatusOK, gin.H{
		"questions": responses,
		"page":      page,
		"pages":     pages,
		"total":     total,
	})
}

// GetTrendingQuestions returns the top 10 questions by views, vote count
// breaking ties.
func (h *QuestionHandler) GetTrendingQuestions(c *gin.Context) {
	var questions []models.Question
	if err := h.db.Preload("Author").Find(&questions).Error; err != nil {
		log.Printf("fetch trending questions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	type ranked struct {
		question models.Question
		votes    int
	}
	items := make([]ranked, 0, len(questions))
	for _, q := range questions {
		up, down := voteSets(h.db, models.TargetQuestion, q.ID)
		items = append(items, ranked{question: q, votes: len(up) - len(down)})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].question.Views != items[j].question.Views {
			return items[i].question.Views > items[j].question.Views
		}
		return items[i].votes > items[j].votes
	})

	if len(items) > 10 {
		items = items[:10]
	}

	responses := []gin.H{}
	for _, item := range items {
		responses = append(responses, questionResponse(h.db, item.question))
	}

	c.JSON(http.StatusOK, responses)
}

// GetUnansweredQuestions returns the 10 newest questions without an accepted
// answer.
func (h *QuestionHandler) GetUnansweredQuestions(c *gin.Context) {
	var questions []models.Question
	err := h.db.Where("is_answered = ?", false).
		Preload("Author").
		Order("created_at desc").
		Limit(10).
		Find(&questions).Error
	if err != nil {
		log.Printf("fetch unanswered questions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	responses := []gin.H{}
	for _, q := range questions {
		responses = append(responses, questionResponse(h.db, q))
	}

	c.JSON(http.StatusOK, responses)
}

// GetQuestion returns a single question with its answers and bumps the view
// counter. This is the one read with a side effect.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var question models.Question
	if err := h.db.Preload("Author").First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	// Atomic increment so concurrent reads don't lose counts.
	if err := h.db.Model(&question).UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		log.Printf("increment views for question %d: %v", question.ID, err)
	} else {
		question.Views++
	}

	answers, err := sortedAnswerResponses(h.db, question.ID)
	if err != nil {
		log.Printf("fetch answers for question %d: %v", question.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch answers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question": questionResponse(h.db, question),
		"answers":  answers,
	})
}

// CreateQuestion creates a new question (PROTECTED - requires authentication)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := input.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question := models.Question{
		Title:    strings.TrimSpace(input.Title),
		Content:  input.Content,
		Tags:     models.NormalizeTags(input.Tags),
		AuthorID: userID,
		Status:   models.StatusOpen,
	}

	if err := h.db.Create(&question).Error; err != nil {
		log.Printf("create question: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create question"})
		return
	}

	h.db.Preload("Author").First(&question, question.ID)
	c.JSON(http.StatusCreated, questionResponse(h.db, question))
}

// UpdateQuestion updates a question's title/content/tags (author or admin)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	questionID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := input.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	if !canModerate(h.db, userID, question.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this question"})
		return
	}

	if input.Title != "" {
		question.Title = strings.TrimSpace(input.Title)
	}
	if input.Content != "" {
		question.Content = input.Content
	}
	if input.Tags != nil {
		question.Tags = models.NormalizeTags(input.Tags)
	}

	if err := h.db.Save(&question).Error; err != nil {
		log.Printf("update question %d: %v", question.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update question"})
		return
	}

	h.db.Preload("Author").First(&question, question.ID)
	c.JSON(http.StatusOK, questionResponse(h.db, question))
}

// DeleteQuestion deletes a question together with its answers and every vote
// on the question or its answers (author or admin).
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	questionID, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	userID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var question models.Question
	if err := h.db.First(&question, questionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	if !canModerate(h.db, userID, question.AuthorID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this question"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var answerIDs []int
		if err := tx.Model(&models.Answer{}).Where("question_id = ?", question.ID).Pluck("id", &answerIDs).Error; err != nil {
			return err
		}
		if len(answerIDs) > 0 {
			if err := tx.Where("target_type = ? AND target_id IN ?", models.TargetAnswer, answerIDs).Delete(&models.Vote{}).Error; err != nil {
				return err
			}
			if err := tx.Where("question_id = ?", question.ID).Delete(&models.Answer{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("target_type = ? AND target_id = ?", models.TargetQuestion, question.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
	if err != nil {
		log.Printf("delete question %d: %v", question.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete question"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Question removed"})
}
