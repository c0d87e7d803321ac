package handlers

import (
	"gorm.io/gorm"

	"github.com/stackitdev/stackit/backend/internal/models"
)

// canModerate is the single authorization check for mutating a resource:
// the resource's author, or an administrator. Every handler that guards an
// update or delete goes through here.
func canModerate(db *gorm.DB, userID, authorID int) bool {
	if userID == authorID {
		return true
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return false
	}
	return user.IsAdmin
}
