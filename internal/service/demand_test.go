package service

import (
	"context"
	"errors"
	"testing"

	"github.com/chaabi-dev/demandhub/internal/models"
	"github.com/chaabi-dev/demandhub/internal/workflow"
)

type mockDemandRepo struct {
	CreateFunc       func(ctx context.Context, d models.Demand) (models.Demand, error)
	ListFunc         func(ctx context.Context, filters models.DemandFilters) ([]models.Demand, error)
	GetByIDFunc      func(ctx context.Context, id int64) (*models.Demand, error)
	UpdateFunc       func(ctx context.Context, d models.Demand) (models.Demand, error)
	UpdateStatusFunc func(ctx context.Context, id int64, status models.Status, comment string) error
	SoftDeleteFunc   func(ctx context.Context, id int64) error
}

func (m *mockDemandRepo) Create(ctx context.Context, d models.Demand) (models.Demand, error) {
	return m.CreateFunc(ctx, d)
}
func (m *mockDemandRepo) List(ctx context.Context, filters models.DemandFilters) ([]models.Demand, error) {
	return m.ListFunc(ctx, filters)
}
func (m *mockDemandRepo) GetByID(ctx context.Context, id int64) (*models.Demand, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockDemandRepo) Update(ctx context.Context, d models.Demand) (models.Demand, error) {
	return m.UpdateFunc(ctx, d)
}
func (m *mockDemandRepo) UpdateStatus(ctx context.Context, id int64, status models.Status, comment string) error {
	return m.UpdateStatusFunc(ctx, id, status, comment)
}
func (m *mockDemandRepo) SoftDelete(ctx context.Context, id int64) error {
	return m.SoftDeleteFunc(ctx, id)
}

var (
	agentIdentity = models.Identity{ID: "1", Email: "agent@chaabi.com", Role: models.RoleAgent}
	respIdentity  = models.Identity{ID: "2", Email: "resp@chaabi.com", Role: models.RoleResponsable}
)

func validRequest() models.CreateDemandRequest {
	return models.CreateDemandRequest{
		Title:       "Toner",
		Description: "For the printer",
		Articles:    []models.Article{{Name: "Cartridge", Quantity: 3, Price: 49.90}},
	}
}

func TestCreate_AgentOnly(t *testing.T) {
	svc := NewDemandService(&mockDemandRepo{})

	_, err := svc.Create(context.Background(), respIdentity, validRequest(), "", "")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v; want ErrForbidden", err)
	}
}

func TestCreate_SetsOwnerAndPending(t *testing.T) {
	repo := &mockDemandRepo{
		CreateFunc: func(ctx context.Context, d models.Demand) (models.Demand, error) {
			if d.CreatedBy != "agent@chaabi.com" {
				t.Errorf("CreatedBy = %q; want agent@chaabi.com", d.CreatedBy)
			}
			if d.Status != models.StatusPending {
				t.Errorf("Status = %q; want pending", d.Status)
			}
			d.ID = 7
			return d, nil
		},
	}
	svc := NewDemandService(repo)

	got, err := svc.Create(context.Background(), agentIdentity, validRequest(), "quote.pdf", "/api/v1/files/abc")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if got.ID != 7 {
		t.Errorf("ID = %d; want 7", got.ID)
	}
	if got.FileName != "quote.pdf" {
		t.Errorf("FileName = %q; want quote.pdf", got.FileName)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewDemandService(&mockDemandRepo{})

	cases := []struct {
		name  string
		mod   func(*models.CreateDemandRequest)
		field string
	}{
		{"empty title", func(r *models.CreateDemandRequest) { r.Title = "  " }, "title"},
		{"no articles", func(r *models.CreateDemandRequest) { r.Articles = nil }, "articles"},
		{"zero quantity", func(r *models.CreateDemandRequest) { r.Articles[0].Quantity = 0 }, "articles"},
		{"free price", func(r *models.CreateDemandRequest) { r.Articles[0].Price = 0 }, "articles"},
		{"unnamed article", func(r *models.CreateDemandRequest) { r.Articles[0].Name = "" }, "articles"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mod(&req)
			_, err := svc.Create(context.Background(), agentIdentity, req, "", "")
			var verr *workflow.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v; want ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Errorf("field = %q; want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestUpdateStatus_ResponsableOnly(t *testing.T) {
	svc := NewDemandService(&mockDemandRepo{})

	_, err := svc.UpdateStatus(context.Background(), agentIdentity, 1, models.StatusApproved, "")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v; want ErrForbidden", err)
	}
}

func TestUpdateStatus_ApprovePending(t *testing.T) {
	stored := models.Demand{ID: 1, Status: models.StatusPending, CreatedBy: "agent@chaabi.com"}
	repo := &mockDemandRepo{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Demand, error) {
			d := stored
			return &d, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int64, status models.Status, comment string) error {
			if status != models.StatusApproved {
				t.Errorf("status = %q; want approved", status)
			}
			if comment != "" {
				t.Errorf("comment = %q; want empty on approve", comment)
			}
			stored.Status = status
			stored.RejectionComment = comment
			return nil
		},
	}
	svc := NewDemandService(repo)

	got, err := svc.UpdateStatus(context.Background(), respIdentity, 1, models.StatusApproved, "")
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("Status = %q; want approved", got.Status)
	}
}

func TestUpdateStatus_RejectRequiresComment(t *testing.T) {
	repo := &mockDemandRepo{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Demand, error) {
			return &models.Demand{ID: 1, Status: models.StatusPending}, nil
		},
	}
	svc := NewDemandService(repo)

	_, err := svc.UpdateStatus(context.Background(), respIdentity, 1, models.StatusRejected, "too short")
	var verr *workflow.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v; want ValidationError", err)
	}
}

func TestUpdateStatus_AlreadyDecided(t *testing.T) {
	repo := &mockDemandRepo{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Demand, error) {
			return &models.Demand{ID: 1, Status: models.StatusApproved}, nil
		},
	}
	svc := NewDemandService(repo)

	_, err := svc.UpdateStatus(context.Background(), respIdentity, 1, models.StatusRejected, "Budget constraints prevent approval")
	var invalid *workflow.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v; want InvalidTransitionError", err)
	}
}

func TestUpdateStatus_BackToPendingRejected(t *testing.T) {
	repo := &mockDemandRepo{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Demand, error) {
			return &models.Demand{ID: 1, Status: models.StatusPending}, nil
		},
	}
	svc := NewDemandService(repo)

	_, err := svc.UpdateStatus(context.Background(), respIdentity, 1, models.StatusPending, "")
	var invalid *workflow.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v; want InvalidTransitionError", err)
	}
}

func TestUpdate_CreatorOnlyWhilePending(t *testing.T) {
	repo := &mockDemandRepo{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Demand, error) {
			return &models.Demand{ID: 1, Status: models.StatusPending, CreatedBy: "other@chaabi.com"}, nil
		},
	}
	svc := NewDemandService(repo)

	_, err := svc.Update(context.Background(), agentIdentity, 1, validRequest(), "", "")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v; want ErrForbidden", err)
	}
}

func TestUpdate_RejectedDemandLocked(t *testing.T) {
	repo := &mockDemandRepo{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Demand, error) {
			return &models.Demand{ID: 1, Status: models.StatusRejected, CreatedBy: agentIdentity.Email}, nil
		},
	}
	svc := NewDemandService(repo)

	_, err := svc.Update(context.Background(), agentIdentity, 1, validRequest(), "", "")
	var invalid *workflow.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %v; want InvalidTransitionError", err)
	}
}

func TestDelete_OwnershipRules(t *testing.T) {
	deleted := 0
	repo := &mockDemandRepo{
		GetByIDFunc: func(ctx context.Context, id int64) (*models.Demand, error) {
			return &models.Demand{ID: id, CreatedBy: "agent@chaabi.com", Status: models.StatusPending}, nil
		},
		SoftDeleteFunc: func(ctx context.Context, id int64) error {
			deleted++
			return nil
		},
	}
	svc := NewDemandService(repo)

	if err := svc.Delete(context.Background(), agentIdentity, 1); err != nil {
		t.Errorf("creator delete failed: %v", err)
	}
	if err := svc.Delete(context.Background(), respIdentity, 1); err != nil {
		t.Errorf("responsable delete failed: %v", err)
	}

	other := models.Identity{ID: "3", Email: "someone@chaabi.com", Role: models.RoleAgent}
	if err := svc.Delete(context.Background(), other, 1); !errors.Is(err, ErrForbidden) {
		t.Errorf("error = %v; want ErrForbidden", err)
	}
	if deleted != 2 {
		t.Errorf("SoftDelete calls = %d; want 2", deleted)
	}
}
