package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackitdev/stackit/backend/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	register := map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "s3cretpass",
	}

	w := doRequest(t, r, "POST", "/api/auth/register", register, 0)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeBody(t, w)
	assert.NotEmpty(t, resp["token"])

	// Password is stored hashed, never returned.
	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)
	assert.NotEqual(t, "s3cretpass", user.Password)

	// Duplicate username is rejected.
	w = doRequest(t, r, "POST", "/api/auth/register", register, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Login with the right password.
	w = doRequest(t, r, "POST", "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "s3cretpass",
	}, 0)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decodeBody(t, w)["token"])

	// And with the wrong one.
	w = doRequest(t, r, "POST", "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrongpass",
	}, 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	// Missing email.
	w := doRequest(t, r, "POST", "/api/auth/register", map[string]string{
		"username": "alice",
		"password": "s3cretpass",
	}, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Password too short.
	w = doRequest(t, r, "POST", "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "abc",
	}, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMe(t *testing.T) {
	db := setupTestDB(t)
	r := newTestRouter(db)

	user := createTestUser(t, db, "alice", false)

	w := doRequest(t, r, "GET", "/api/auth/me", nil, user.ID)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, "alice", resp["username"])
	assert.EqualValues(t, user.ID, resp["id"])

	w = doRequest(t, r, "GET", "/api/auth/me", nil, 0)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
