// backend-go/internal/api/handlers/plan_handler.go
package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reorden/backend-go/internal/domain"
	"github.com/reorden/backend-go/internal/service"
	"github.com/rs/zerolog/log"
)

type PlanHandler struct {
	planService *service.PlanService
	uploadDir   string
}

func NewPlanHandler(planService *service.PlanService, uploadDir string) *PlanHandler {
	return &PlanHandler{planService: planService, uploadDir: uploadDir}
}

// planResponse is the full payload the dashboard renders from one upload:
// the plan itself, the outlets found in the sales file, the rows that failed
// to parse, and the sales ranking.
type planResponse struct {
	Plan       *domain.ReorderPlan `json:"plan"`
	Outlets    []string            `json:"outlets,omitempty"`
	RowErrors  []domain.RowError   `json:"row_errors,omitempty"`
	TopSellers []domain.TopSeller  `json:"top_sellers,omitempty"`
	NoMatches  bool                `json:"no_matches"`
}

// ComputeFromUpload accepts the two dataset files as multipart form fields
// ("sales", "purchases") plus the plan parameters, and responds with the
// computed plan. A strict join that matches nothing is not an error: the
// response carries the empty plan with no_matches set.
func (h *PlanHandler) ComputeFromUpload(c *gin.Context) {
	salesFile, err := c.FormFile("sales")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing sales file"})
		return
	}
	purchasesFile, err := c.FormFile("purchases")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing purchases file"})
		return
	}

	req, ok := h.parsePlanParams(c)
	if !ok {
		return
	}

	salesR, err := h.saveAndOpen(c, salesFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read sales file"})
		return
	}
	defer salesR.Close()

	purchasesR, err := h.saveAndOpen(c, purchasesFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read purchases file"})
		return
	}
	defer purchasesR.Close()

	datasets, err := h.planService.LoadDatasets(salesR, purchasesR)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	req.Sales = datasets.Sales
	req.Purchases = datasets.Purchases

	plan, err := h.planService.ComputePlan(c.Request.Context(), req)
	if err != nil && !errors.Is(err, domain.ErrNoMatchingProducts) {
		h.planError(c, err)
		return
	}

	c.JSON(http.StatusOK, planResponse{
		Plan:       plan,
		Outlets:    datasets.Outlets,
		RowErrors:  datasets.RowErrors,
		TopSellers: h.planService.TopSellers(datasets.Sales, req.Outlet, 0),
		NoMatches:  errors.Is(err, domain.ErrNoMatchingProducts),
	})
}

// Recompute takes a full plan request as JSON, typically the original
// datasets plus manual line edits, and responds with the derived plan.
func (h *PlanHandler) Recompute(c *gin.Context) {
	var req domain.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan request"})
		return
	}

	plan, err := h.planService.ComputePlan(c.Request.Context(), req)
	if err != nil && !errors.Is(err, domain.ErrNoMatchingProducts) {
		h.planError(c, err)
		return
	}

	c.JSON(http.StatusOK, planResponse{
		Plan:      plan,
		NoMatches: errors.Is(err, domain.ErrNoMatchingProducts),
	})
}

// Export computes the plan for the given JSON request and streams the CSV
// back as an attachment.
func (h *PlanHandler) Export(c *gin.Context) {
	var req domain.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan request"})
		return
	}

	plan, err := h.planService.ComputePlan(c.Request.Context(), req)
	if err != nil && !errors.Is(err, domain.ErrNoMatchingProducts) {
		h.planError(c, err)
		return
	}

	path, err := h.planService.ExportPlan(c.Request.Context(), plan, req.Outlet)
	if err != nil {
		log.Error().Err(err).Msg("failed to export plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export plan"})
		return
	}

	c.FileAttachment(path, filepath.Base(path))
}

// History returns recent plan runs, newest first.
func (h *PlanHandler) History(c *gin.Context) {
	outlet := strings.TrimSpace(c.Query("outlet"))
	limit := 20
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 {
		limit = v
	}

	runs, err := h.planService.History(c.Request.Context(), outlet, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list plan history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list plan history"})
		return
	}

	c.JSON(http.StatusOK, runs)
}

// PurgeCache drops every cached plan.
func (h *PlanHandler) PurgeCache(c *gin.Context) {
	if err := h.planService.InvalidateCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purge plan cache"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "plan cache purged"})
}

func (h *PlanHandler) parsePlanParams(c *gin.Context) (domain.PlanRequest, bool) {
	req := domain.PlanRequest{
		Outlet:   strings.TrimSpace(c.PostForm("outlet")),
		JoinMode: strings.TrimSpace(c.PostForm("join_mode")),
	}

	start, err := time.Parse("2006-01-02", c.PostForm("window_start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window_start, want YYYY-MM-DD"})
		return req, false
	}
	end, err := time.Parse("2006-01-02", c.PostForm("window_end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window_end, want YYYY-MM-DD"})
		return req, false
	}
	req.WindowStart = start
	req.WindowEnd = end

	if v := c.PostForm("reference_period_days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference_period_days"})
			return req, false
		}
		req.ReferencePeriodDays = days
	}
	if v := c.PostForm("include_zero_quantity"); v != "" {
		include := v == "true" || v == "1"
		req.IncludeZeroQuantity = &include
	}

	return req, true
}

// planError maps computation failures to status codes: bad input is the
// client's problem, everything else is ours.
func (h *PlanHandler) planError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrUnknownOutlet),
		errors.Is(err, domain.ErrMissingJoinKey),
		errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("plan computation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "plan computation failed"})
	}
}

func (h *PlanHandler) saveAndOpen(c *gin.Context, file *multipart.FileHeader) (*os.File, error) {
	path := filepath.Join(h.uploadDir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(file.Filename)))
	if err := c.SaveUploadedFile(file, path); err != nil {
		log.Error().Err(err).Str("filename", file.Filename).Msg("failed to save uploaded file")
		return nil, err
	}
	return os.Open(path)
}
