package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
	"gorm.io/gorm"
)

const (
	DefaultLaunchLimit = 50
	DefaultTodayLimit  = 20
	MaxLaunchLimit     = 100
	launchDateLayout   = "2006-01-02"
)

// LaunchService manages launches and coordinates upvotes on them. Every upvote row
// change and its counter update commit together.
type LaunchService struct {
	db        *gorm.DB
	publisher events.Publisher
	now       func() time.Time
}

func NewLaunchService(db *gorm.DB, publisher events.Publisher) *LaunchService {
	return &LaunchService{db: db, publisher: publisher, now: time.Now}
}

func findLaunch(db *gorm.DB, launchID uint) (*models.Launch, error) {
	var launch models.Launch
	if err := db.First(&launch, launchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Launch")
		}
		return nil, fmt.Errorf("failed to fetch launch: %w", err)
	}
	return &launch, nil
}

type LaunchFilter struct {
	Status   string `form:"status"`
	Featured bool   `form:"featured"`
	Date     string `form:"date"`
	Limit    int    `form:"limit"`
}

type CreateLaunchRequest struct {
	ProductID   uint   `json:"product_id" binding:"required"`
	Title       string `json:"title" binding:"required,max=200"`
	Tagline     string `json:"tagline" binding:"required,max=300"`
	Description string `json:"description" binding:"max=10000"`
	Status      string `json:"status"`
}

// UpdateLaunchRequest only touches the fields that are present. Featured is admin only.
type UpdateLaunchRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Tagline     *string `json:"tagline" binding:"omitempty,max=300"`
	Description *string `json:"description" binding:"omitempty,max=10000"`
	Status      *string `json:"status"`
	Featured    *bool   `json:"featured"`
}

type TodayFeed struct {
	Date     string          `json:"date"`
	Count    int             `json:"count"`
	Launches []models.Launch `json:"launches"`
}

func parseLaunchStatus(raw string) (models.LaunchStatus, error) {
	status := models.LaunchStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", invalid("status", "Status must be one of DRAFT, SCHEDULED, LIVE, COMPLETED, CANCELLED")
	}
	return status, nil
}

// dayBounds is the UTC day containing t, as a half-open interval.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := t.UTC().Truncate(24 * time.Hour)
	return start, start.Add(24 * time.Hour)
}

// ListLaunches returns launches in one status, most upvoted first.
func (s *LaunchService) ListLaunches(ctx context.Context, filter LaunchFilter) ([]models.Launch, error) {
	status := models.LaunchLive
	if filter.Status != "" {
		parsed, err := parseLaunchStatus(filter.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, filter.Status)
		}
		status = parsed
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultLaunchLimit
	}
	if filter.Limit > MaxLaunchLimit {
		filter.Limit = MaxLaunchLimit
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	query := s.db.WithContext(ctx).Where("status = ?", status)
	if filter.Featured {
		query = query.Where("featured = ?", true)
	}
	if filter.Date != "" {
		day, err := time.Parse(launchDateLayout, filter.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidFilter)
		}
		start, end := dayBounds(day)
		query = query.Where("launched_at >= ? AND launched_at < ?", start, end)
	}

	return s.findRanked(query, filter.Limit)
}

// TodayLaunches is the live feed for the current UTC day.
func (s *LaunchService) TodayLaunches(ctx context.Context, limit int) (*TodayFeed, error) {
	if limit <= 0 {
		limit = DefaultTodayLimit
	}
	if limit > MaxLaunchLimit {
		limit = MaxLaunchLimit
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	start, end := dayBounds(s.now())
	launches, err := s.findRanked(s.db.WithContext(ctx).
		Where("status = ? AND launched_at >= ? AND launched_at < ?", models.LaunchLive, start, end), limit)
	if err != nil {
		return nil, err
	}

	return &TodayFeed{
		Date:     start.Format(launchDateLayout),
		Count:    len(launches),
		Launches: launches,
	}, nil
}

func (s *LaunchService) findRanked(query *gorm.DB, limit int) ([]models.Launch, error) {
	launches := []models.Launch{}
	if err := query.Preload("Product").
		Order("upvote_count DESC").
		Order("launched_at DESC").
		Limit(limit).
		Find(&launches).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch launches: %v", ErrDatabaseQuery, err)
	}
	return launches, nil
}

// GetLaunch returns the launch with its product and counts the view.
func (s *LaunchService) GetLaunch(ctx context.Context, launchID uint) (*models.Launch, error) {
	db := s.db.WithContext(ctx)
	if _, err := findLaunch(db, launchID); err != nil {
		return nil, err
	}
	if err := adjustCounter(db, "view_count", launchID, 1); err != nil {
		return nil, err
	}

	var launch models.Launch
	if err := db.Preload("Product").First(&launch, launchID).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch launch: %w", err)
	}
	return &launch, nil
}

// CreateLaunch adds a launch for an existing product, made by makerID. Launches start as
// drafts unless a status is given; going live stamps launched_at.
func (s *LaunchService) CreateLaunch(ctx context.Context, makerID uint, req CreateLaunchRequest) (*models.Launch, error) {
	var details []utils.FieldError
	title := utils.SanitizeString(req.Title)
	tagline := utils.SanitizeString(req.Tagline)
	if title == "" {
		details = append(details, utils.FieldError{Field: "title", Message: "Title is required"})
	}
	if tagline == "" {
		details = append(details, utils.FieldError{Field: "tagline", Message: "Tagline is required"})
	}
	status := models.LaunchDraft
	if req.Status != "" {
		parsed, err := parseLaunchStatus(req.Status)
		if err != nil {
			var verr *ValidationError
			errors.As(err, &verr)
			details = append(details, verr.Details...)
		}
		status = parsed
	}
	if len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}

	var product models.Product
	if err := s.db.WithContext(ctx).Select("id").First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Product")
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	launch := models.Launch{
		ProductID:   req.ProductID,
		MakerID:     makerID,
		Title:       title,
		Tagline:     tagline,
		Description: utils.SanitizeString(req.Description),
		Status:      status,
	}
	if status == models.LaunchLive {
		now := s.now().UTC()
		launch.LaunchedAt = &now
	}
	if err := s.db.WithContext(ctx).Create(&launch).Error; err != nil {
		return nil, fmt.Errorf("failed to create launch: %w", err)
	}

	publish(ctx, s.publisher, events.LaunchCreated, launchKey(launch.ID), map[string]any{
		"launch_id":  launch.ID,
		"product_id": launch.ProductID,
		"maker_id":   makerID,
		"status":     launch.Status,
	})

	return s.reload(ctx, launch.ID)
}

// UpdateLaunch is allowed for the launch's maker and for admins.
func (s *LaunchService) UpdateLaunch(ctx context.Context, launchID, actorID uint, isAdmin bool, req UpdateLaunchRequest) (*models.Launch, error) {
	launch, err := findLaunch(s.db.WithContext(ctx), launchID)
	if err != nil {
		return nil, err
	}
	if launch.MakerID != actorID && !isAdmin {
		return nil, ErrForbidden
	}
	if req.Featured != nil && !isAdmin {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := utils.SanitizeString(*req.Title)
		if title == "" {
			return nil, invalid("title", "Title is required")
		}
		updates["title"] = title
	}
	if req.Tagline != nil {
		tagline := utils.SanitizeString(*req.Tagline)
		if tagline == "" {
			return nil, invalid("tagline", "Tagline is required")
		}
		updates["tagline"] = tagline
	}
	if req.Description != nil {
		updates["description"] = utils.SanitizeString(*req.Description)
	}
	if req.Status != nil {
		status, err := parseLaunchStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		updates["status"] = status
		if status == models.LaunchLive && launch.LaunchedAt == nil {
			updates["launched_at"] = s.now().UTC()
		}
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(launch).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update launch: %w", err)
		}
	}

	return s.reload(ctx, launchID)
}

// DeleteLaunch removes the launch with its upvotes and comments. Maker or admin only.
func (s *LaunchService) DeleteLaunch(ctx context.Context, launchID, actorID uint, isAdmin bool) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	launch, err := findLaunch(tx, launchID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if launch.MakerID != actorID && !isAdmin {
		tx.Rollback()
		return ErrForbidden
	}

	if err := deleteLaunches(tx, []uint{launchID}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	publish(ctx, s.publisher, events.LaunchDeleted, launchKey(launchID), map[string]any{
		"launch_id": launchID,
		"actor_id":  actorID,
	})
	return nil
}

// deleteLaunches removes launches and everything that hangs off them.
func deleteLaunches(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where("launch_id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	if err := tx.Where("launch_id IN ?", ids).Delete(&models.Upvote{}).Error; err != nil {
		return fmt.Errorf("failed to delete upvotes: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.Launch{}).Error; err != nil {
		return fmt.Errorf("failed to delete launches: %w", err)
	}
	return nil
}

func (s *LaunchService) reload(ctx context.Context, launchID uint) (*models.Launch, error) {
	var launch models.Launch
	if err := s.db.WithContext(ctx).Preload("Product").First(&launch, launchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Launch")
		}
		return nil, fmt.Errorf("failed to fetch launch: %w", err)
	}
	return &launch, nil
}

// adjustCounter applies delta in SQL so concurrent writers never lose an update.
func adjustCounter(tx *gorm.DB, column string, launchID uint, delta int) error {
	if err := tx.Model(&models.Launch{}).
		Where("id = ?", launchID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error; err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

func launchKey(id uint) string {
	return "launch-" + strconv.FormatUint(uint64(id), 10)
}
