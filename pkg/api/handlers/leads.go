package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/leadgridhq/leadgrid/config"
	apierrors "github.com/leadgridhq/leadgrid/pkg/api/errors"
	"github.com/leadgridhq/leadgrid/pkg/api/middleware"
	"github.com/leadgridhq/leadgrid/pkg/domain"
	"github.com/leadgridhq/leadgrid/pkg/filters"
	"github.com/leadgridhq/leadgrid/pkg/leads"
	"github.com/leadgridhq/leadgrid/pkg/metrics"
	"github.com/leadgridhq/leadgrid/pkg/models"
)

// LeadHandler handles lead querying and lifecycle endpoints.
type LeadHandler struct {
	leads     *leads.Service
	config    *config.Config
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewLeadHandler creates a new lead handler.
func NewLeadHandler(leadService *leads.Service, cfg *config.Config, m *metrics.Metrics) *LeadHandler {
	return &LeadHandler{
		leads:     leadService,
		config:    cfg,
		metrics:   m,
		validator: newValidator(),
	}
}

// allRecords reports whether the caller may drop the owner scope. Never
// granted in production, whatever the flag or parameter says.
func (h *LeadHandler) allRecords(scope string) bool {
	return scope == "all" && h.config.AllowAllLeads && !h.config.IsProduction()
}

// List serves paginated, filtered leads.
func (h *LeadHandler) List(c echo.Context) error {
	owner, ok := middleware.OwnerID(c)
	if !ok {
		return apierrors.Unauthorized(c, "Not authorized, token failed")
	}
	params := c.QueryParams()

	spec, err := filters.Compile(params, owner, h.allRecords(params.Get("scope")))
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	h.metrics.LeadsSearched.Inc()
	resp, err := h.leads.Search(ctx, leads.SearchRequest{
		Spec:    spec,
		Page:    parseInt64(params.Get("page")),
		Limit:   parseInt64(params.Get("limit")),
		SortBy:  params.Get("sortBy"),
		SortDir: params.Get("sortDir"),
	})
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

type gridQueryRequest struct {
	StartRow    int64                   `json:"startRow"`
	EndRow      int64                   `json:"endRow"`
	FilterModel filters.GridFilterModel `json:"filterModel"`
	Filters     filters.PanelState      `json:"filters"`
	SortModel   []sortModelEntry        `json:"sortModel"`
	Scope       string                  `json:"scope"`
}

type sortModelEntry struct {
	ColID string `json:"colId"`
	Sort  string `json:"sort"`
}

// Query serves the virtualized grid: it merges the grid filter model with the
// dashboard filter panel (panel wins) and returns a row window plus the
// end-of-set marker.
func (h *LeadHandler) Query(c echo.Context) error {
	owner, ok := middleware.OwnerID(c)
	if !ok {
		return apierrors.Unauthorized(c, "Not authorized, token failed")
	}

	var req gridQueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}

	merged := filters.Merge(req.FilterModel.Params(), req.Filters.Params())
	spec, err := filters.Compile(merged, owner, h.allRecords(req.Scope))
	if err != nil {
		return apierrors.Respond(c, err)
	}

	var sortBy, sortDir string
	if len(req.SortModel) > 0 {
		sortBy = req.SortModel[0].ColID
		sortDir = req.SortModel[0].Sort
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	h.metrics.LeadsSearched.Inc()
	resp, err := h.leads.GridRows(ctx, spec, req.StartRow, req.EndRow, sortBy, sortDir)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Create inserts a new lead owned by the caller.
func (h *LeadHandler) Create(c echo.Context) error {
	owner, ok := middleware.OwnerID(c)
	if !ok {
		return apierrors.Unauthorized(c, "Not authorized, token failed")
	}

	var req models.CreateLeadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.Validation(c, validationFields(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	lead, err := h.leads.Create(ctx, owner, &req)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	h.metrics.LeadsCreated.Inc()

	return c.JSON(http.StatusCreated, models.LeadResponse{
		Message: "Lead created successfully",
		Lead:    lead,
	})
}

// Get returns a single lead.
func (h *LeadHandler) Get(c echo.Context) error {
	owner, ok := middleware.OwnerID(c)
	if !ok {
		return apierrors.Unauthorized(c, "Not authorized, token failed")
	}
	id, err := leadID(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	lead, err := h.leads.Get(ctx, id, owner)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, models.LeadResponse{Lead: lead})
}

// Update replaces every value field of a lead.
func (h *LeadHandler) Update(c echo.Context) error {
	owner, ok := middleware.OwnerID(c)
	if !ok {
		return apierrors.Unauthorized(c, "Not authorized, token failed")
	}
	id, err := leadID(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	var req models.CreateLeadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.Validation(c, validationFields(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	lead, err := h.leads.Update(ctx, id, owner, &req)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, models.LeadResponse{
		Message: "Lead updated successfully",
		Lead:    lead,
	})
}

// Patch applies a partial update.
func (h *LeadHandler) Patch(c echo.Context) error {
	owner, ok := middleware.OwnerID(c)
	if !ok {
		return apierrors.Unauthorized(c, "Not authorized, token failed")
	}
	id, err := leadID(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	var req models.UpdateLeadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.Validation(c, validationFields(err))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	lead, err := h.leads.Patch(ctx, id, owner, &req)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, models.LeadResponse{
		Message: "Lead updated successfully",
		Lead:    lead,
	})
}

// Delete removes a lead and returns its prior state.
func (h *LeadHandler) Delete(c echo.Context) error {
	owner, ok := middleware.OwnerID(c)
	if !ok {
		return apierrors.Unauthorized(c, "Not authorized, token failed")
	}
	id, err := leadID(c)
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	lead, err := h.leads.Delete(ctx, id, owner)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	h.metrics.LeadsDeleted.Inc()

	return c.JSON(http.StatusOK, models.DeleteLeadResponse{
		Message:     "Lead deleted successfully",
		DeletedLead: lead,
	})
}

// Export streams the filtered leads as a spreadsheet.
func (h *LeadHandler) Export(c echo.Context) error {
	owner, ok := middleware.OwnerID(c)
	if !ok {
		return apierrors.Unauthorized(c, "Not authorized, token failed")
	}
	params := c.QueryParams()

	spec, err := filters.Compile(params, owner, h.allRecords(params.Get("scope")))
	if err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	rows, truncated, err := h.leads.Export(ctx, spec, params.Get("sortBy"), params.Get("sortDir"))
	if err != nil {
		return apierrors.Respond(c, err)
	}

	buf, err := buildWorkbook(rows)
	if err != nil {
		return apierrors.Respond(c, domain.NewInternalError(err))
	}
	h.metrics.LeadsExported.Inc()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="leads.xlsx"`)
	if truncated {
		c.Response().Header().Set("X-Export-Truncated", "true")
	}
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf)
}

var exportHeaders = []string{
	"First Name", "Last Name", "Email", "Phone", "Company", "City", "State",
	"Source", "Status", "Score", "Lead Value", "Qualified", "Last Activity", "Created At",
}

func buildWorkbook(rows []models.Lead) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Leads"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	for i, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}
	for r, lead := range rows {
		lastActivity := ""
		if lead.LastActivityAt != nil {
			lastActivity = lead.LastActivityAt.UTC().Format(time.RFC3339)
		}
		values := []any{
			lead.FirstName, lead.LastName, lead.Email, lead.Phone, lead.Company,
			lead.City, lead.State, lead.Source, lead.Status, lead.Score,
			lead.LeadValue, lead.IsQualified, lastActivity,
			lead.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// leadID parses the path id. A malformed id gets the same not-found as a
// missing record, never a parse error that confirms id syntax.
func leadID(c echo.Context) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return bson.ObjectID{}, domain.NewNotFoundError("Lead")
	}
	return id, nil
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
