package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"inquirydesk/internal/model"
)

// StatusCount is the number of inquiries sharing one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// InquiryFilter narrows a listing. Zero fields impose no constraint and a
// zero Limit returns every matching row.
type InquiryFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// InquiryRepository defines inquiry persistence operations.
type InquiryRepository interface {
	Create(ctx context.Context, inquiry *model.Inquiry) error
	FindByID(ctx context.Context, id uint) (*model.Inquiry, error)
	FindByIDWithNotes(ctx context.Context, id uint) (*model.Inquiry, error)
	List(ctx context.Context, filter InquiryFilter) (inquiries []model.Inquiry, total int64, err error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	AddNote(ctx context.Context, note *model.InquiryNote) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	// WithTransaction runs fn with a repository bound to one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo InquiryRepository) error) error
}

type inquiryRepository struct {
	db *gorm.DB
}

// NewInquiryRepository builds a GORM-backed repository.
func NewInquiryRepository(db *gorm.DB) InquiryRepository {
	return &inquiryRepository{db: db}
}

func (r *inquiryRepository) Create(ctx context.Context, inquiry *model.Inquiry) error {
	return r.db.WithContext(ctx).Create(inquiry).Error
}

func (r *inquiryRepository) FindByID(ctx context.Context, id uint) (*model.Inquiry, error) {
	var inquiry model.Inquiry
	if err := r.db.WithContext(ctx).First(&inquiry, id).Error; err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// FindByIDWithNotes loads an inquiry and its notes, newest note first.
func (r *inquiryRepository) FindByIDWithNotes(ctx context.Context, id uint) (*model.Inquiry, error) {
	var inquiry model.Inquiry
	err := r.db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Order("id DESC")
		}).
		First(&inquiry, id).Error
	if err != nil {
		return nil, err
	}
	return &inquiry, nil
}

// List returns the inquiries matching filter, most recent first, and the
// number of matches before Limit and Offset apply. Ties on created_at are
// broken by id so pages do not overlap.
func (r *inquiryRepository) List(ctx context.Context, filter InquiryFilter) ([]model.Inquiry, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	inquiries := make([]model.Inquiry, 0)
	page := r.filtered(ctx, filter).Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		page = page.Offset(filter.Offset)
	}
	if err := page.Find(&inquiries).Error; err != nil {
		return nil, 0, err
	}
	return inquiries, total, nil
}

// filtered starts a fresh chain for each query; GORM chains are not safe to
// reuse once finished.
func (r *inquiryRepository) filtered(ctx context.Context, filter InquiryFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Inquiry{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	return query
}

func (r *inquiryRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&model.Inquiry{ID: id}).Update("status", status).Error
}

func (r *inquiryRepository) AddNote(ctx context.Context, note *model.InquiryNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

// Delete removes the inquiry and its notes. Notes are deleted explicitly so
// the behaviour does not depend on the backend enforcing foreign keys.
func (r *inquiryRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("inquiry_id = ?", id).Delete(&model.InquiryNote{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.Inquiry{}, id).Error
}

func (r *inquiryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Inquiry{}).Count(&n).Error
	return n, err
}

func (r *inquiryRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Inquiry{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

func (r *inquiryRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	counts := make([]StatusCount, 0)
	err := r.db.WithContext(ctx).Model(&model.Inquiry{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *inquiryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo InquiryRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &inquiryRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
