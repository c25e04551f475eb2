package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrEmailTaken = errors.New("this email is registered to another account")

// UserService keeps a local row for every user the external auth service vouches for.
// Reviews, comments and linked accounts reference that row.
type UserService struct {
	db    *gorm.DB
	known sync.Map // user id -> struct{}
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// EnsureUser creates the account for a session user the first time it is seen.
// An existing row is left as it is.
func (s *UserService) EnsureUser(ctx context.Context, id uint, email, role string) error {
	if _, ok := s.known.Load(id); ok {
		return nil
	}
	if role != models.RoleAdmin {
		role = models.RoleUser
	}

	user := models.User{ID: id, Email: email, Role: role, IsActive: true}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
	if result.Error != nil {
		return fmt.Errorf("failed to provision user: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Either the row exists already or the email belongs to a different id.
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to fetch user: %w", err)
		}
		if count == 0 {
			return ErrEmailTaken
		}
	} else {
		logger.WithFields(logrus.Fields{"user_id": id}).Info("provisioned user from session")
	}

	s.known.Store(id, struct{}{})
	return nil
}
