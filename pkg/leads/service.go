package leads

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"

	"github.com/leadgridhq/leadgrid/pkg/domain"
	"github.com/leadgridhq/leadgrid/pkg/filters"
	"github.com/leadgridhq/leadgrid/pkg/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	exportCap    = 10000
)

// sortable whitelists the fields a client may sort by. Anything else falls
// back to the default createdAt descending.
var sortable = map[string]bool{
	"firstName":      true,
	"lastName":       true,
	"email":          true,
	"company":        true,
	"city":           true,
	"state":          true,
	"status":         true,
	"source":         true,
	"score":          true,
	"leadValue":      true,
	"lastActivityAt": true,
	"createdAt":      true,
	"updatedAt":      true,
}

// Service handles lead querying and lifecycle rules.
type Service struct {
	store Store
}

// NewService creates a new lead service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// SearchRequest is a page request over a compiled filter specification.
type SearchRequest struct {
	Spec    *filters.Spec
	Page    int64
	Limit   int64
	SortBy  string
	SortDir string
}

// Search retrieves one page of leads plus the total matching count. Count and
// fetch run concurrently against the same specification; the total may drift
// under concurrent writes, which is accepted.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*models.LeadListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := clampLimit(req.Limit)
	skip := (page - 1) * limit

	leads, total, err := s.fetchPage(ctx, req.Spec, PageOptions{
		Skip:  skip,
		Limit: limit,
		Sort:  sortSpec(req.SortBy, req.SortDir),
	})
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &models.LeadListResponse{
		Data:       leads,
		Page:       int(page),
		Limit:      int(limit),
		Total:      total,
		TotalPages: int(totalPages),
	}, nil
}

// GridRows serves the virtualized-grid datasource: a row window plus the
// end-of-set marker.
func (s *Service) GridRows(ctx context.Context, spec *filters.Spec, startRow, endRow int64, sortBy, sortDir string) (*models.GridRowsResponse, error) {
	if startRow < 0 {
		startRow = 0
	}
	limit := clampLimit(endRow - startRow)

	leads, total, err := s.fetchPage(ctx, spec, PageOptions{
		Skip:  startRow,
		Limit: limit,
		Sort:  sortSpec(sortBy, sortDir),
	})
	if err != nil {
		return nil, err
	}

	lastRow := int64(models.UnknownLastRow)
	if startRow+int64(len(leads)) >= total {
		lastRow = startRow + int64(len(leads))
	}
	return &models.GridRowsResponse{
		Data:    leads,
		LastRow: lastRow,
		Total:   total,
	}, nil
}

func (s *Service) fetchPage(ctx context.Context, spec *filters.Spec, page PageOptions) ([]models.Lead, int64, error) {
	var (
		leads []models.Lead
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, err = s.store.Find(gctx, spec, page)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(gctx, spec)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, domain.NewInternalError(err)
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	return leads, total, nil
}

// Export retrieves every matching lead for a spreadsheet download, capped so
// a runaway filter cannot pull the whole collection into memory. The second
// return reports whether rows beyond the cap were cut off.
func (s *Service) Export(ctx context.Context, spec *filters.Spec, sortBy, sortDir string) ([]models.Lead, bool, error) {
	// fetch one past the cap to tell a full export from a truncated one
	leads, err := s.store.Find(ctx, spec, PageOptions{
		Limit: exportCap + 1,
		Sort:  sortSpec(sortBy, sortDir),
	})
	if err != nil {
		return nil, false, domain.NewInternalError(err)
	}
	if len(leads) > exportCap {
		return leads[:exportCap], true, nil
	}
	return leads, false, nil
}

// Create inserts a lead owned by the caller. The (owner, email) pre-check
// only improves the error message; a concurrent create slipping past it is
// caught by the unique index and surfaced as the same conflict.
func (s *Service) Create(ctx context.Context, owner bson.ObjectID, req *models.CreateLeadRequest) (*models.Lead, error) {
	value := req.Value()
	if value == nil {
		return nil, domain.NewValidationError([]domain.FieldError{
			{Field: "lead_value", Message: "Lead value is required"},
		})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.store.FindByEmail(ctx, owner, email, bson.ObjectID{})
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if existing != nil {
		return nil, domain.NewConflictError("A lead with this email already exists")
	}

	lead := &models.Lead{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          email,
		Phone:          req.Phone,
		Company:        req.Company,
		City:           req.City,
		State:          req.State,
		Source:         req.Source,
		Status:         req.Status,
		Score:          *req.Score,
		LeadValue:      *value,
		LastActivityAt: req.LastActivityAt,
		CreatedBy:      owner,
	}
	if lead.Status == "" {
		lead.Status = "new"
	}
	if req.IsQualified != nil {
		lead.IsQualified = *req.IsQualified
	}

	if err := s.store.Insert(ctx, lead); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, domain.NewConflictError("A lead with this email already exists for this user")
		}
		return nil, domain.NewInternalError(err)
	}
	return lead, nil
}

// Get loads one lead scoped to (id, owner). A foreign record returns the same
// not-found as a missing one.
func (s *Service) Get(ctx context.Context, id, owner bson.ObjectID) (*models.Lead, error) {
	lead, err := s.store.Get(ctx, id, owner)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	if lead == nil {
		return nil, domain.NewNotFoundError("Lead")
	}
	return lead, nil
}

// Update replaces every value field of a lead. Ownership and creation time
// never change, whatever the payload claims.
func (s *Service) Update(ctx context.Context, id, owner bson.ObjectID, req *models.CreateLeadRequest) (*models.Lead, error) {
	value := req.Value()
	if value == nil {
		return nil, domain.NewValidationError([]domain.FieldError{
			{Field: "lead_value", Message: "Lead value is required"},
		})
	}

	lead, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != lead.Email {
		if err := s.checkEmailFree(ctx, owner, email, id); err != nil {
			return nil, err
		}
	}

	lead.FirstName = req.FirstName
	lead.LastName = req.LastName
	lead.Email = email
	lead.Phone = req.Phone
	lead.Company = req.Company
	lead.City = req.City
	lead.State = req.State
	lead.Source = req.Source
	if req.Status != "" {
		lead.Status = req.Status
	}
	lead.Score = *req.Score
	lead.LeadValue = *value
	lead.LastActivityAt = req.LastActivityAt
	if req.IsQualified != nil {
		lead.IsQualified = *req.IsQualified
	}

	return s.save(ctx, lead)
}

// Patch applies only the fields present in the payload. Applying the same
// patch twice yields the same record state.
func (s *Service) Patch(ctx context.Context, id, owner bson.ObjectID, req *models.UpdateLeadRequest) (*models.Lead, error) {
	lead, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != lead.Email {
			if err := s.checkEmailFree(ctx, owner, email, id); err != nil {
				return nil, err
			}
		}
		lead.Email = email
	}
	if req.FirstName != nil {
		lead.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		lead.LastName = *req.LastName
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Company != nil {
		lead.Company = *req.Company
	}
	if req.City != nil {
		lead.City = *req.City
	}
	if req.State != nil {
		lead.State = *req.State
	}
	if req.Source != nil {
		lead.Source = *req.Source
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}
	if req.Score != nil {
		lead.Score = *req.Score
	}
	if v := req.Value(); v != nil {
		lead.LeadValue = *v
	}
	if req.LastActivityAt != nil {
		lead.LastActivityAt = req.LastActivityAt
	}
	if req.IsQualified != nil {
		lead.IsQualified = *req.IsQualified
	}

	return s.save(ctx, lead)
}

// Delete removes a lead and returns its prior state for confirmation.
func (s *Service) Delete(ctx context.Context, id, owner bson.ObjectID) (*models.Lead, error) {
	lead, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, id, owner); err != nil {
		return nil, domain.NewInternalError(err)
	}
	return lead, nil
}

func (s *Service) checkEmailFree(ctx context.Context, owner bson.ObjectID, email string, exclude bson.ObjectID) error {
	existing, err := s.store.FindByEmail(ctx, owner, email, exclude)
	if err != nil {
		return domain.NewInternalError(err)
	}
	if existing != nil {
		return domain.NewConflictError("A lead with this email already exists")
	}
	return nil
}

func (s *Service) save(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	if err := s.store.Replace(ctx, lead); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, domain.NewConflictError("A lead with this email already exists for this user")
		}
		return nil, domain.NewInternalError(err)
	}
	return lead, nil
}

func clampLimit(limit int64) int64 {
	if limit < 1 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func sortSpec(sortBy, sortDir string) bson.D {
	field := filters.CanonicalFieldName(sortBy)
	if !sortable[field] {
		field = "createdAt"
		sortDir = "desc"
	}
	dir := -1
	if sortDir == "asc" {
		dir = 1
	}
	return bson.D{{Key: field, Value: dir}}
}
