package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pawnics/pawnics-api/internal/models"
	appErrors "github.com/pawnics/pawnics-api/pkg/errors"
)

const reportListCacheKeyPrefix = "reports:list:"

type reportStore interface {
	Create(ctx context.Context, report *models.LostFoundReport) error
	FindByID(ctx context.Context, id string) (*models.LostFoundReport, error)
	List(ctx context.Context, filter models.ReportFilter) ([]models.LostFoundReport, int, error)
	ListByReporter(ctx context.Context, reporterID string) ([]models.LostFoundReport, error)
	Update(ctx context.Context, report *models.LostFoundReport) error
	Delete(ctx context.Context, id string) error
}

type reportMessageCascader interface {
	DeleteByReport(ctx context.Context, reportID string) (int64, error)
}

type reportListPage struct {
	Reports []models.LostFoundReport `json:"reports"`
	Total   int                      `json:"total"`
}

// LostFoundService manages lost/found pet reports.
type LostFoundService struct {
	repo      reportStore
	messages  reportMessageCascader
	cache     summaryCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLostFoundService builds a LostFoundService with sane defaults. Cache is
// optional.
func NewLostFoundService(repo reportStore, messages reportMessageCascader, cache summaryCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *LostFoundService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &LostFoundService{repo: repo, messages: messages, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// Create files a new report for the caller.
func (s *LostFoundService) Create(ctx context.Context, reporterID string, req models.CreateReportRequest, photoPath string) (*models.LostFoundReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	report := &models.LostFoundReport{
		ReporterID:  reporterID,
		Type:        req.Type,
		PetName:     req.PetName,
		PetType:     req.PetType,
		Breed:       req.Breed,
		Color:       req.Color,
		Description: req.Description,
		Photo:       photoPath,
		Contact:     models.Contact{Name: req.ContactName, Phone: req.Phone, Email: req.Email},
		Location:    models.Location{Lat: req.Lat, Lng: req.Lng, Address: req.Address},
		Status:      models.ReportStatusActive,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}

	s.invalidateListings(ctx)
	return report, nil
}

// List returns reports matching the filter with pagination metadata. Pages
// are cached per filter combination.
func (s *LostFoundService) List(ctx context.Context, filter models.ReportFilter) ([]models.LostFoundReport, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}

	cacheKey := fmt.Sprintf("%s%s:%s:%s:%s:%d:%d",
		reportListCacheKeyPrefix, filter.Type, filter.PetType, filter.Breed, filter.Status, filter.Page, filter.Limit)

	if s.cache != nil {
		var page reportListPage
		if err := s.cache.Get(ctx, cacheKey, &page); err == nil {
			return page.Reports, s.pagination(filter, page.Total), nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("report listing cache read failed", zap.Error(err))
		}
	}

	reports, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, reportListPage{Reports: reports, Total: total}, s.cacheTTL); err != nil {
			s.logger.Warn("report listing cache write failed", zap.Error(err))
		}
	}
	return reports, s.pagination(filter, total), nil
}

// Get returns one report.
func (s *LostFoundService) Get(ctx context.Context, id string) (*models.LostFoundReport, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch report")
	}
	return report, nil
}

// ListMine returns the caller's reports.
func (s *LostFoundService) ListMine(ctx context.Context, reporterID string) ([]models.LostFoundReport, error) {
	reports, err := s.repo.ListByReporter(ctx, reporterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// Update applies partial changes to a report filed by the caller.
func (s *LostFoundService) Update(ctx context.Context, id, callerID string, req models.UpdateReportRequest, photoPath string) (*models.LostFoundReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.ReporterID != callerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the reporter may update this report")
	}

	if req.PetName != nil {
		report.PetName = *req.PetName
	}
	if req.PetType != nil {
		report.PetType = *req.PetType
	}
	if req.Breed != nil {
		report.Breed = *req.Breed
	}
	if req.Color != nil {
		report.Color = *req.Color
	}
	if req.Description != nil {
		report.Description = *req.Description
	}
	if req.ContactName != nil {
		report.Contact.Name = *req.ContactName
	}
	if req.Phone != nil {
		report.Contact.Phone = *req.Phone
	}
	if req.Email != nil {
		report.Contact.Email = *req.Email
	}
	if req.Lat != nil {
		report.Location.Lat = *req.Lat
	}
	if req.Lng != nil {
		report.Location.Lng = *req.Lng
	}
	if req.Address != nil {
		report.Location.Address = *req.Address
	}
	if req.Status != nil {
		report.Status = *req.Status
	}
	if photoPath != "" {
		report.Photo = photoPath
	}

	if err := s.repo.Update(ctx, report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}

	s.invalidateListings(ctx)
	return report, nil
}

// Resolve marks a report resolved.
func (s *LostFoundService) Resolve(ctx context.Context, id, callerID string) (*models.LostFoundReport, error) {
	status := models.ReportStatusResolved
	return s.Update(ctx, id, callerID, models.UpdateReportRequest{Status: &status}, "")
}

// Delete removes a report filed by the caller together with its messages.
func (s *LostFoundService) Delete(ctx context.Context, id, callerID string) error {
	report, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if report.ReporterID != callerID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the reporter may delete this report")
	}

	if s.messages != nil {
		if _, err := s.messages.DeleteByReport(ctx, id); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report")
	}

	s.invalidateListings(ctx)
	return nil
}

func (s *LostFoundService) pagination(filter models.ReportFilter, total int) *models.Pagination {
	return &models.Pagination{Page: filter.Page, PageSize: filter.Limit, TotalCount: total}
}

func (s *LostFoundService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, reportListCacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("report listing cache invalidation failed", zap.Error(err))
	}
}
