package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"inquirydesk/internal/cache"
	apperrors "inquirydesk/internal/errors"
	"inquirydesk/internal/events"
	"inquirydesk/internal/metrics"
	"inquirydesk/internal/model"
	"inquirydesk/internal/repository"
)

const (
	inquiryCacheTTL = 5 * time.Minute
	statsWindow     = 7 * 24 * time.Hour
)

// UpdateInquiryInput carries the admin changes to one inquiry.
// A nil Status leaves the status untouched; an empty Note adds no note.
type UpdateInquiryInput struct {
	Status *string
	Note   string
}

// InquiryStats summarises the inquiry table for the admin dashboard.
type InquiryStats struct {
	Total        int64                    `json:"total"`
	NewLast7Days int64                    `json:"new_last_7_days"`
	ByStatus     []repository.StatusCount `json:"by_status"`
	GeneratedAt  time.Time                `json:"generated_at"`
}

// InquiryPage is one page of a filtered listing. Total counts every match.
type InquiryPage struct {
	Inquiries []model.Inquiry
	Total     int64
	Limit     int
	Offset    int
}

// InquiryService handles inquiry submission and administration.
type InquiryService interface {
	Submit(ctx context.Context, inquiry *model.Inquiry) (*model.Inquiry, error)
	List(ctx context.Context, filter repository.InquiryFilter) (*InquiryPage, error)
	Export(ctx context.Context, filter repository.InquiryFilter) ([]model.Inquiry, error)
	Get(ctx context.Context, id uint) (*model.Inquiry, error)
	Update(ctx context.Context, id uint, input UpdateInquiryInput) error
	Delete(ctx context.Context, id uint) error
	Stats(ctx context.Context) (*InquiryStats, error)
}

type inquiryService struct {
	repo      repository.InquiryRepository
	cache     *cache.Client
	publisher events.Publisher
	now       func() time.Time
}

// NewInquiryService creates a new inquiry service.
func NewInquiryService(repo repository.InquiryRepository, cache *cache.Client, publisher events.Publisher) InquiryService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &inquiryService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *inquiryService) cacheKey(id uint) string {
	return fmt.Sprintf("inquiry:%d", id)
}

// Submit stores a new inquiry. Name and email must be present.
func (s *inquiryService) Submit(ctx context.Context, inquiry *model.Inquiry) (*model.Inquiry, error) {
	inquiry.Name = strings.TrimSpace(inquiry.Name)
	inquiry.Email = strings.TrimSpace(inquiry.Email)
	if inquiry.Name == "" || inquiry.Email == "" {
		return nil, apperrors.BadRequest("Name and email are required")
	}
	// The store assigns id, status defaults and timestamps.
	inquiry.ID = 0
	inquiry.Notes = nil

	if err := s.repo.Create(ctx, inquiry); err != nil {
		log.Printf("[INQUIRY] Submit failed: %v", err)
		return nil, dbError("create inquiry", err)
	}

	log.Printf("[INQUIRY] Submitted: id=%d email=%s type=%s", inquiry.ID, inquiry.Email, inquiry.InquiryType)
	metrics.RecordInquirySubmission()
	s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeInquiryCreated,
		InquiryID:  inquiry.ID,
		Status:     inquiry.Status,
		Email:      inquiry.Email,
		OccurredAt: s.now().UTC(),
	})
	return inquiry, nil
}

// List returns the inquiries matching filter, most recent first. The zero
// filter lists everything.
func (s *inquiryService) List(ctx context.Context, filter repository.InquiryFilter) (*InquiryPage, error) {
	inquiries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, dbError("list inquiries", err)
	}
	return &InquiryPage{
		Inquiries: inquiries,
		Total:     total,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}, nil
}

// Export returns every inquiry matching filter for download. Paging fields
// are ignored.
func (s *inquiryService) Export(ctx context.Context, filter repository.InquiryFilter) ([]model.Inquiry, error) {
	filter.Limit, filter.Offset = 0, 0
	inquiries, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, dbError("export inquiries", err)
	}
	log.Printf("[INQUIRY] Exported %d inquiries", len(inquiries))
	return inquiries, nil
}

// Get returns one inquiry with its notes, served from cache when possible.
// The cache version is read before the database so a concurrent Update or
// Delete that bumps it keeps this read from caching what it saw.
func (s *inquiryService) Get(ctx context.Context, id uint) (*model.Inquiry, error) {
	key := s.cacheKey(id)
	var cached model.Inquiry
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}
	version, cacheable := s.cache.Version(ctx, key)

	inquiry, err := s.repo.FindByIDWithNotes(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInquiryNotFound
		}
		return nil, dbError("get inquiry", err)
	}

	if cacheable {
		s.cache.SetJSONIfVersion(ctx, key, version, inquiry, inquiryCacheTTL)
	}
	return inquiry, nil
}

// Update changes the status and/or appends a note inside one transaction.
// A missing inquiry is reported as ErrInquiryNotFound and nothing is written.
func (s *inquiryService) Update(ctx context.Context, id uint, input UpdateInquiryInput) error {
	note := strings.TrimSpace(input.Note)
	var status string

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.InquiryRepository) error {
		current, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		status = current.Status
		if input.Status != nil {
			if err := repo.UpdateStatus(ctx, id, *input.Status); err != nil {
				return err
			}
			status = *input.Status
		}
		if note != "" {
			if err := repo.AddNote(ctx, &model.InquiryNote{InquiryID: id, Note: note}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInquiryNotFound
		}
		log.Printf("[INQUIRY] Update failed: id=%d: %v", id, err)
		return dbError("update inquiry", err)
	}

	s.cache.Bump(ctx, s.cacheKey(id))
	if input.Status == nil && note == "" {
		return nil
	}

	log.Printf("[INQUIRY] Updated: id=%d status=%s note_added=%v", id, status, note != "")
	metrics.RecordInquiryMutation("update")
	s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeInquiryUpdated,
		InquiryID:  id,
		Status:     status,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// Delete removes an inquiry and its notes.
func (s *inquiryService) Delete(ctx context.Context, id uint) error {
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.InquiryRepository) error {
		if _, err := repo.FindByID(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInquiryNotFound
		}
		log.Printf("[INQUIRY] Delete failed: id=%d: %v", id, err)
		return dbError("delete inquiry", err)
	}

	s.cache.Bump(ctx, s.cacheKey(id))
	log.Printf("[INQUIRY] Deleted: id=%d", id)
	metrics.RecordInquiryMutation("delete")
	s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeInquiryDeleted,
		InquiryID:  id,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

// Stats counts inquiries overall, per status and over the last seven days.
func (s *inquiryService) Stats(ctx context.Context) (*InquiryStats, error) {
	now := s.now().UTC()

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, dbError("count inquiries", err)
	}
	recent, err := s.repo.CountSince(ctx, now.Add(-statsWindow))
	if err != nil {
		return nil, dbError("count recent inquiries", err)
	}
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, dbError("count inquiries by status", err)
	}

	return &InquiryStats{
		Total:        total,
		NewLast7Days: recent,
		ByStatus:     byStatus,
		GeneratedAt:  now,
	}, nil
}

func dbError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrDatabase, err)
}
