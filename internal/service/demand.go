package service

import (
	"context"
	"errors"
	"strings"

	"github.com/chaabi-dev/demandhub/internal/models"
	"github.com/chaabi-dev/demandhub/internal/workflow"
)

// ErrForbidden is returned when the caller's role or ownership does
// not permit the operation.
var ErrForbidden = errors.New("operation not permitted")

// DemandRepository defines the persistence operations required by the
// demand service.
type DemandRepository interface {
	// Create inserts a demand with its articles and returns the stored record.
	Create(ctx context.Context, d models.Demand) (models.Demand, error)
	// List fetches demands matching the filters, newest first.
	List(ctx context.Context, filters models.DemandFilters) ([]models.Demand, error)
	// GetByID fetches a demand; the error wraps sql.ErrNoRows when absent.
	GetByID(ctx context.Context, id int64) (*models.Demand, error)
	// Update replaces a demand's editable fields and articles.
	Update(ctx context.Context, d models.Demand) (models.Demand, error)
	// UpdateStatus writes a new status and rejection comment.
	UpdateStatus(ctx context.Context, id int64, status models.Status, comment string) error
	// SoftDelete marks a demand deleted.
	SoftDelete(ctx context.Context, id int64) error
}

// DemandService implements demand management on top of a DemandRepository,
// enforcing ownership, role, and workflow rules. It is the system of
// record for status transitions: every transition is re-validated here
// against the stored demand, never against a client-cached copy.
type DemandService struct {
	repo DemandRepository
}

// NewDemandService constructs a DemandService with the provided repository.
func NewDemandService(repo DemandRepository) *DemandService {
	return &DemandService{repo: repo}
}

// Create validates and stores a new pending demand on behalf of identity.
// Only agents create demands. fileName and fileURL describe an already
// stored attachment; both empty means none.
func (s *DemandService) Create(ctx context.Context, identity models.Identity, req models.CreateDemandRequest, fileName, fileURL string) (models.Demand, error) {
	if identity.Role != models.RoleAgent {
		return models.Demand{}, ErrForbidden
	}
	if err := validateDemand(req); err != nil {
		return models.Demand{}, err
	}
	return s.repo.Create(ctx, models.Demand{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Articles:    req.Articles,
		FileName:    fileName,
		FileURL:     fileURL,
		Status:      models.StatusPending,
		CreatedBy:   identity.Email,
	})
}

// List fetches demands matching the filters.
func (s *DemandService) List(ctx context.Context, filters models.DemandFilters) ([]models.Demand, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches a single demand.
func (s *DemandService) Get(ctx context.Context, id int64) (*models.Demand, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces the editable fields of a pending demand. Only the
// creating agent may edit, and only while the demand is pending.
func (s *DemandService) Update(ctx context.Context, identity models.Identity, id int64, req models.CreateDemandRequest, fileName, fileURL string) (models.Demand, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.Demand{}, err
	}
	if current.CreatedBy != identity.Email {
		return models.Demand{}, ErrForbidden
	}
	if current.Status != models.StatusPending {
		return models.Demand{}, &workflow.InvalidTransitionError{From: current.Status, To: current.Status}
	}
	if err := validateDemand(req); err != nil {
		return models.Demand{}, err
	}
	updated := *current
	updated.Title = strings.TrimSpace(req.Title)
	updated.Description = strings.TrimSpace(req.Description)
	updated.Articles = req.Articles
	if fileName != "" {
		updated.FileName = fileName
		updated.FileURL = fileURL
	}
	return s.repo.Update(ctx, updated)
}

// UpdateStatus applies an approve or reject transition to the stored
// demand. Only responsables may transition. The workflow rules run
// against the repository's copy, so a demand already decided by a
// concurrent call fails with *workflow.InvalidTransitionError.
func (s *DemandService) UpdateStatus(ctx context.Context, identity models.Identity, id int64, status models.Status, comment string) (*models.Demand, error) {
	if identity.Role != models.RoleResponsable {
		return nil, ErrForbidden
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var next models.Demand
	switch status {
	case models.StatusApproved:
		next, err = workflow.Approve(*current)
	case models.StatusRejected:
		next, err = workflow.Reject(*current, comment)
	default:
		err = &workflow.InvalidTransitionError{From: current.Status, To: status}
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, next.Status, next.RejectionComment); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a demand. The creating agent may delete their own;
// responsables may delete any.
func (s *DemandService) Delete(ctx context.Context, identity models.Identity, id int64) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if identity.Role != models.RoleResponsable && current.CreatedBy != identity.Email {
		return ErrForbidden
	}
	return s.repo.SoftDelete(ctx, id)
}

// validateDemand checks the submit-time constraints on a demand payload.
func validateDemand(req models.CreateDemandRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return &workflow.ValidationError{Field: "title", Message: "must not be empty"}
	}
	if len(req.Articles) == 0 {
		return &workflow.ValidationError{Field: "articles", Message: "at least one article is required"}
	}
	for _, a := range req.Articles {
		if strings.TrimSpace(a.Name) == "" {
			return &workflow.ValidationError{Field: "articles", Message: "article name must not be empty"}
		}
		if a.Quantity < 1 {
			return &workflow.ValidationError{Field: "articles", Message: "quantity must be at least 1"}
		}
		if a.Price < 0.01 {
			return &workflow.ValidationError{Field: "articles", Message: "price must be at least 0.01"}
		}
	}
	return nil
}
