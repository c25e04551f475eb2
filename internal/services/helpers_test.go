package services

import (
	"context"
	"sync"
	"testing"

	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) has(eventType string) bool {
	for _, t := range p.types() {
		if t == eventType {
			return true
		}
	}
	return false
}

func seedReview(t *testing.T, db *gorm.DB, productID, authorID uint, content string, rating int) *models.Review {
	t.Helper()
	r := &models.Review{
		ProductID: productID,
		AuthorID:  authorID,
		Rating:    rating,
		Content:   content,
		Status:    models.ReviewPending,
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("seed review: %v", err)
	}
	return r
}

func seedComment(t *testing.T, db *gorm.DB, launchID, userID uint, parentID *uint, content string) *models.Comment {
	t.Helper()
	c := &models.Comment{LaunchID: launchID, UserID: userID, ParentID: parentID, Content: content}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return c
}

func reloadReview(t *testing.T, db *gorm.DB, id uint) *models.Review {
	t.Helper()
	var r models.Review
	if err := db.First(&r, id).Error; err != nil {
		t.Fatalf("reload review: %v", err)
	}
	return &r
}

func reloadLaunch(t *testing.T, db *gorm.DB, id uint) *models.Launch {
	t.Helper()
	var l models.Launch
	if err := db.First(&l, id).Error; err != nil {
		t.Fatalf("reload launch: %v", err)
	}
	return &l
}

func uintPtr(v uint) *uint { return &v }
