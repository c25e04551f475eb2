package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	QueryTimeout    = 30 * time.Second
)

var (
	ErrInvalidFilter = errors.New("invalid filter parameters")
	ErrDatabaseQuery = errors.New("database query failed")
	ErrSlugTaken     = errors.New("slug already exists")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type ProductService struct {
	db        *gorm.DB
	publisher events.Publisher
}

func NewProductService(db *gorm.DB, publisher events.Publisher) *ProductService {
	if db == nil {
		panic("database connection cannot be nil")
	}
	return &ProductService{
		db:        db,
		publisher: publisher,
	}
}

type ProductFilter struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

type ProductResponse struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Pages    int              `json:"pages"`
}

// ValidateAndNormalize validates and normalizes filter parameters
func (f *ProductFilter) ValidateAndNormalize() error {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)

	if len(f.Search) > 255 {
		return fmt.Errorf("%w: search term too long", ErrInvalidFilter)
	}
	if len(f.Category) > 100 {
		return fmt.Errorf("%w: category too long", ErrInvalidFilter)
	}

	return nil
}

// GetProducts lists active products with filtering and pagination
func (s *ProductService) GetProducts(ctx context.Context, filter ProductFilter) (*ProductResponse, error) {
	if err := filter.ValidateAndNormalize(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	var products []models.Product
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)
	query = s.applyFilters(query, filter).Session(&gorm.Session{})

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to count products: %v", ErrDatabaseQuery, err)
	}

	if total == 0 {
		return &ProductResponse{
			Products: []models.Product{},
			Total:    0,
			Page:     filter.Page,
			Limit:    filter.Limit,
			Pages:    0,
		}, nil
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Offset(offset).
		Limit(filter.Limit).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to fetch products: %v", ErrDatabaseQuery, err)
	}

	pages := int(total) / filter.Limit
	if int(total)%filter.Limit > 0 {
		pages++
	}

	return &ProductResponse{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
		Pages:    pages,
	}, nil
}

// GetProductBySlug retrieves a single active product
func (s *ProductService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, notFound("Product")
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	var product models.Product
	if err := s.db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Product")
		}
		return nil, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}

	return &product, nil
}

func (s *ProductService) applyFilters(query *gorm.DB, filter ProductFilter) *gorm.DB {
	if filter.Category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}

	if filter.Search != "" {
		searchTerm := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(vendor) LIKE ?",
			searchTerm, searchTerm, searchTerm,
		)
	}

	return query
}

type CreateProductRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Slug        string `json:"slug" binding:"required,max=100"`
	Description string `json:"description" binding:"max=10000"`
	Category    string `json:"category" binding:"max=100"`
	Vendor      string `json:"vendor" binding:"max=200"`
	Website     string `json:"website" binding:"omitempty,url"`
}

// UpdateProductRequest changes only the fields that are present. The slug is fixed.
type UpdateProductRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=10000"`
	Category    *string `json:"category" binding:"omitempty,max=100"`
	Vendor      *string `json:"vendor" binding:"omitempty,max=200"`
	Website     *string `json:"website" binding:"omitempty,url"`
	IsActive    *bool   `json:"is_active"`
}

// CreateProduct adds an active product. Slugs are lowercased and must be unique.
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	name := utils.SanitizeString(req.Name)
	if name == "" {
		return nil, invalid("name", "Name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, invalid("slug", "Slug may only contain lowercase letters, digits and single hyphens")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to check slug: %v", ErrDatabaseQuery, err)
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	product := models.Product{
		Name:        name,
		Slug:        slug,
		Description: utils.SanitizeString(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Vendor:      utils.SanitizeString(req.Vendor),
		Website:     strings.TrimSpace(req.Website),
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	publish(ctx, s.publisher, events.ProductCreated, productKey(product.ID), map[string]any{
		"product_id": product.ID,
		"slug":       product.Slug,
		"category":   product.Category,
	})
	return &product, nil
}

// UpdateProduct edits a product by slug, whether or not it is active.
func (s *ProductService) UpdateProduct(ctx context.Context, slug string, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.findAnyBySlug(s.db.WithContext(ctx), slug)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := utils.SanitizeString(*req.Name)
		if name == "" {
			return nil, invalid("name", "Name is required")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = utils.SanitizeString(*req.Description)
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Vendor != nil {
		updates["vendor"] = utils.SanitizeString(*req.Vendor)
	}
	if req.Website != nil {
		updates["website"] = strings.TrimSpace(*req.Website)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return s.findAnyBySlug(s.db.WithContext(ctx), product.Slug)
}

// DeleteProduct removes a product with its reviews, launches and everything under them.
func (s *ProductService) DeleteProduct(ctx context.Context, slug string) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	product, err := s.findAnyBySlug(tx, slug)
	if err != nil {
		tx.Rollback()
		return err
	}

	var launchIDs []uint
	if err := tx.Model(&models.Launch{}).Where("product_id = ?", product.ID).Pluck("id", &launchIDs).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to fetch launches: %w", err)
	}
	if err := deleteLaunches(tx, launchIDs); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Where("product_id = ?", product.ID).Delete(&models.Review{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	if err := tx.Delete(product).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *ProductService) findAnyBySlug(db *gorm.DB, slug string) (*models.Product, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, notFound("Product")
	}
	var product models.Product
	if err := db.Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Product")
		}
		return nil, fmt.Errorf("%w: failed to fetch product: %v", ErrDatabaseQuery, err)
	}
	return &product, nil
}

func productKey(id uint) string {
	return "product-" + strconv.FormatUint(uint64(id), 10)
}
