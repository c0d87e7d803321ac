package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackitdev/stackit/backend/internal/models"
)

func TestVoteQuestionToggleOff(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	author := createTestUser(t, db, "alice", false)
	voter := createTestUser(t, db, "bob", false)
	question := createTestQuestion(t, db, author, "How do I test gin handlers?", time.Now())

	path := fmt.Sprintf("/api/votes/question/%d", question.ID)

	w := doRequest(t, r, "POST", path, voteBody(models.VoteUp), voter.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vote added", decodeBody(t, w)["message"])
	assert.EqualValues(t, 1, countVotes(t, db, models.TargetQuestion, question.ID))

	up, down := voteSets(db, models.TargetQuestion, question.ID)
	assert.Equal(t, []int{voter.ID}, up)
	assert.Empty(t, down)

	// Same vote again toggles it off entirely.
	w = doRequest(t, r, "POST", path, voteBody(models.VoteUp), voter.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vote removed", decodeBody(t, w)["message"])
	assert.EqualValues(t, 0, countVotes(t, db, models.TargetQuestion, question.ID))

	up, down = voteSets(db, models.TargetQuestion, question.ID)
	assert.Empty(t, up)
	assert.Empty(t, down)
}

func TestVoteQuestionChangeType(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	author := createTestUser(t, db, "alice", false)
	voter := createTestUser(t, db, "bob", false)
	question := createTestQuestion(t, db, author, "How do I change a vote type?", time.Now())

	path := fmt.Sprintf("/api/votes/question/%d", question.ID)

	w := doRequest(t, r, "POST", path, voteBody(models.VoteUp), voter.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, "POST", path, voteBody(models.VoteDown), voter.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vote updated", decodeBody(t, w)["message"])

	// Exactly one ledger row, now a downvote.
	var votes []models.Vote
	require.NoError(t, db.Where("target_type = ? AND target_id = ?", models.TargetQuestion, question.ID).Find(&votes).Error)
	require.Len(t, votes, 1)
	assert.Equal(t, models.VoteDown, votes[0].VoteType)

	up, down := voteSets(db, models.TargetQuestion, question.ID)
	assert.Empty(t, up)
	assert.Equal(t, []int{voter.ID}, down)
}

func TestVoteOwnTargetForbidden(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	author := createTestUser(t, db, "alice", false)
	question := createTestQuestion(t, db, author, "Can I vote on my own question?", time.Now())
	answer := createTestAnswer(t, db, author, question, time.Now())

	w := doRequest(t, r, "POST", fmt.Sprintf("/api/votes/question/%d", question.ID), voteBody(models.VoteUp), author.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, r, "POST", fmt.Sprintf("/api/votes/answer/%d", answer.ID), voteBody(models.VoteDown), author.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.EqualValues(t, 0, countVotes(t, db, models.TargetQuestion, question.ID))
	assert.EqualValues(t, 0, countVotes(t, db, models.TargetAnswer, answer.ID))
}

func TestVoteInvalidType(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	author := createTestUser(t, db, "alice", false)
	voter := createTestUser(t, db, "bob", false)
	question := createTestQuestion(t, db, author, "What counts as a valid vote?", time.Now())

	w := doRequest(t, r, "POST", fmt.Sprintf("/api/votes/question/%d", question.ID), voteBody("sideways"), voter.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, r, "POST", fmt.Sprintf("/api/votes/question/%d", question.ID), map[string]string{}, voter.ID)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoteTargetNotFound(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	voter := createTestUser(t, db, "bob", false)

	w := doRequest(t, r, "POST", "/api/votes/question/9999", voteBody(models.VoteUp), voter.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, "POST", "/api/votes/answer/9999", voteBody(models.VoteUp), voter.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVoteRejectsNonNumericTargetID(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	author := createTestUser(t, db, "alice", false)
	voter := createTestUser(t, db, "bob", false)
	question := createTestQuestion(t, db, author, "Are ids validated before lookup?", time.Now())
	answer := createTestAnswer(t, db, author, question, time.Now())

	// A path segment shaped like a SQL expression must not resolve any row.
	w := doRequest(t, r, "POST", fmt.Sprintf("/api/votes/question/%d%%20OR%%201=1", question.ID), voteBody(models.VoteUp), voter.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.EqualValues(t, 0, countVotes(t, db, models.TargetQuestion, question.ID))

	w = doRequest(t, r, "POST", fmt.Sprintf("/api/votes/answer/%d%%20OR%%201=1", answer.ID), voteBody(models.VoteUp), voter.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.EqualValues(t, 0, countVotes(t, db, models.TargetAnswer, answer.ID))

	w = doRequest(t, r, "POST", "/api/votes/question/abc", voteBody(models.VoteUp), voter.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVoteRequiresAuth(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	author := createTestUser(t, db, "alice", false)
	question := createTestQuestion(t, db, author, "Is anonymous voting allowed?", time.Now())

	w := doRequest(t, r, "POST", fmt.Sprintf("/api/votes/question/%d", question.ID), voteBody(models.VoteUp), 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVoteAnswerToggle(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	author := createTestUser(t, db, "alice", false)
	answerer := createTestUser(t, db, "bob", false)
	voter := createTestUser(t, db, "carol", false)
	question := createTestQuestion(t, db, author, "Do answer votes toggle too?", time.Now())
	answer := createTestAnswer(t, db, answerer, question, time.Now())

	path := fmt.Sprintf("/api/votes/answer/%d", answer.ID)

	w := doRequest(t, r, "POST", path, voteBody(models.VoteDown), voter.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vote added", decodeBody(t, w)["message"])

	up, down := voteSets(db, models.TargetAnswer, answer.ID)
	assert.Empty(t, up)
	assert.Equal(t, []int{voter.ID}, down)

	w = doRequest(t, r, "POST", path, voteBody(models.VoteDown), voter.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vote removed", decodeBody(t, w)["message"])
	assert.EqualValues(t, 0, countVotes(t, db, models.TargetAnswer, answer.ID))
}

func TestGetUserVotes(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	author := createTestUser(t, db, "alice", false)
	voter := createTestUser(t, db, "bob", false)
	question := createTestQuestion(t, db, author, "What does my vote history show?", time.Now())
	answer := createTestAnswer(t, db, author, question, time.Now())

	w := doRequest(t, r, "POST", fmt.Sprintf("/api/votes/question/%d", question.ID), voteBody(models.VoteUp), voter.ID)
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, r, "POST", fmt.Sprintf("/api/votes/answer/%d", answer.ID), voteBody(models.VoteDown), voter.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, "GET", "/api/votes/user", nil, voter.ID)
	require.Equal(t, http.StatusOK, w.Code)

	votes := decodeList(t, w)
	require.Len(t, votes, 2)
	for _, v := range votes {
		assert.EqualValues(t, voter.ID, v["user_id"])
		require.NotNil(t, v["target"])
	}

	// Each entry carries its target's summary, answers with the question title.
	answerVote := votes[0]
	if answerVote["target_type"] != models.TargetAnswer {
		answerVote = votes[1]
	}
	target := answerVote["target"].(map[string]interface{})
	assert.EqualValues(t, answer.ID, target["id"])
	assert.Equal(t, question.Title, target["question_title"])

	// Another user's history is empty.
	w = doRequest(t, r, "GET", "/api/votes/user", nil, author.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeList(t, w), 0)
}
