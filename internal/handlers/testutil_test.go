package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stackitdev/stackit/backend/internal/database"
	"github.com/stackitdev/stackit/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB opens a fresh in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open test database")

	require.NoError(t, database.Migrate(db), "migrate test database")

	return db
}

// newTestRouter mirrors the server's route table, with authentication
// replaced by an X-Test-User header so tests can act as any user.
func newTestRouter(db *gorm.DB) *gin.Engine {
	h := NewHandler(db)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if v := c.GetHeader("X-Test-User"); v != "" {
			id, _ := strconv.Atoi(v)
			c.Set("user_id", id)
		}
	})

	api := r.Group("/api")
	{
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.GET("/auth/me", h.Auth.GetMe)

		api.GET("/questions", h.Question.GetQuestions)
		api.GET("/questions/trending", h.Question.GetTrendingQuestions)
		api.GET("/questions/unanswered", h.Question.GetUnansweredQuestions)
		api.GET("/questions/:id", h.Question.GetQuestion)
		api.POST("/questions", h.Question.CreateQuestion)
		api.PUT("/questions/:id", h.Question.UpdateQuestion)
		api.DELETE("/questions/:id", h.Question.DeleteQuestion)

		api.GET("/answers/question/:questionId", h.Answer.GetAnswersByQuestion)
		api.GET("/answers/user/:userId", h.Answer.GetUserAnswers)
		api.POST("/answers/:questionId", h.Answer.CreateAnswer)
		api.PUT("/answers/:id", h.Answer.UpdateAnswer)
		api.PUT("/answers/:id/accept", h.Answer.AcceptAnswer)
		api.DELETE("/answers/:id", h.Answer.DeleteAnswer)

		api.POST("/votes/question/:id", h.Vote.VoteQuestion)
		api.POST("/votes/answer/:id", h.Vote.VoteAnswer)
		api.GET("/votes/user", h.Vote.GetUserVotes)

		api.GET("/users/:id", h.User.GetUserProfile)
	}

	return r
}

// doRequest performs a JSON request against the test router. userID 0 means
// anonymous.
func doRequest(t *testing.T, r *gin.Engine, method, path string, body interface{}, userID int) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "marshal request body")
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-Test-User", strconv.Itoa(userID))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "decode response body")
	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "decode response list")
	return body
}

func createTestUser(t *testing.T, db *gorm.DB, username string, admin bool) models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed-password",
		IsAdmin:  admin,
	}
	require.NoError(t, db.Create(&user).Error, "create test user")
	return user
}

func createTestQuestion(t *testing.T, db *gorm.DB, author models.User, title string, createdAt time.Time) models.Question {
	t.Helper()

	question := models.Question{
		Title:     title,
		Content:   "This is test question content long enough for validation.",
		Tags:      []string{"go", "testing"},
		AuthorID:  author.ID,
		Status:    models.StatusOpen,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(&question).Error, "create test question")
	return question
}

func createTestAnswer(t *testing.T, db *gorm.DB, author models.User, question models.Question, createdAt time.Time) models.Answer {
	t.Helper()

	answer := models.Answer{
		Content:    "This is a test answer with enough content.",
		AuthorID:   author.ID,
		QuestionID: question.ID,
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Create(&answer).Error, "create test answer")
	return answer
}

func countVotes(t *testing.T, db *gorm.DB, targetType string, targetID int) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Count(&n).Error)
	return n
}

func voteBody(voteType string) map[string]string {
	return map[string]string{"vote_type": voteType}
}
