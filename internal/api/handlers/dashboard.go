package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/liquidity-lens/internal/dataset"
	"github.com/irfndi/liquidity-lens/internal/middleware"
	"github.com/irfndi/liquidity-lens/internal/services"
	"github.com/irfndi/liquidity-lens/internal/utils"
)

// DashboardServiceInterface defines the dashboard operations the handlers depend on
type DashboardServiceInterface interface {
	ListDashboards() []services.DashboardSummary
	Series(ctx context.Context, version string, req services.SeriesRequest) (*services.SeriesResponse, error)
	LagProfile(ctx context.Context, version string) (*services.LagProfileResponse, error)
	Tables(version string) (map[string]json.RawMessage, error)
	WalkForward(version string) (*services.WalkForwardSummary, error)
	Criteria(version string) (*services.CriteriaResponse, error)
}

// DashboardHandler serves the recompute endpoints
type DashboardHandler struct {
	service DashboardServiceInterface
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// ListDashboards returns every loaded dataset version
// @Summary List dashboards
// @Description List loaded dataset versions with record counts, date range and lag bounds
// @Tags dashboards
// @Produce json
// @Success 200 {array} services.DashboardSummary
// @Router /api/v1/dashboards [get]
func (h *DashboardHandler) ListDashboards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.service.ListDashboards(),
	})
}

// GetSeries recomputes the chart-ready series
// @Summary Recompute series
// @Description Shift, clip, smooth and blend the signal, then segment regimes and score it against price
// @Tags dashboards
// @Param version path string true "Dataset version (v1, v2)"
// @Param lag query int false "Lag in months (default: dataset optimal lag)"
// @Param smoothing query int false "EMA window for the tactical band (default: 6)"
// @Param blend query bool false "Blend structural with smoothed tactical (v2 only)"
// @Produce json
// @Success 200 {object} services.SeriesResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/dashboards/{version}/series [get]
func (h *DashboardHandler) GetSeries(c *gin.Context) {
	req, err := parseSeriesRequest(c)
	if err != nil {
		respondError(c, err)
		return
	}

	version := c.Param("version")
	resp, err := h.service.Series(c.Request.Context(), version, req)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.AddSpanAttribute(c, "dashboard.lag", resp.Params.Lag)
	middleware.AddSpanAttribute(c, "dashboard.blend", resp.Params.BlendEnabled)
	middleware.AddSpanAttribute(c, "cache.hit", resp.Cached)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
	})
}

// GetLagProfile sweeps every lag for the version
// @Summary Lag profile
// @Description Correlation and directional accuracy for every lag from 0 to the version maximum
// @Tags dashboards
// @Param version path string true "Dataset version (v1, v2)"
// @Produce json
// @Success 200 {object} services.LagProfileResponse
// @Router /api/v1/dashboards/{version}/lag-profile [get]
func (h *DashboardHandler) GetLagProfile(c *gin.Context) {
	resp, err := h.service.LagProfile(c.Request.Context(), c.Param("version"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
	})
}

// GetTables returns the precomputed tables untouched
// @Summary Precomputed tables
// @Tags dashboards
// @Param version path string true "Dataset version (v1, v2)"
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/dashboards/{version}/tables [get]
func (h *DashboardHandler) GetTables(c *gin.Context) {
	tables, err := h.service.Tables(c.Param("version"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tables,
	})
}

// GetWalkForward returns the walk-forward summary
// @Summary Walk-forward summary
// @Description Cumulative out-of-sample correlation, rolling mean and window dispersion (v1 only)
// @Tags dashboards
// @Param version path string true "Dataset version"
// @Produce json
// @Success 200 {object} services.WalkForwardSummary
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/dashboards/{version}/walk-forward [get]
func (h *DashboardHandler) GetWalkForward(c *gin.Context) {
	summary, err := h.service.WalkForward(c.Param("version"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

// GetCriteria returns the success criteria summary
// @Summary Success criteria
// @Tags dashboards
// @Param version path string true "Dataset version"
// @Produce json
// @Success 200 {object} services.CriteriaResponse
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/dashboards/{version}/criteria [get]
func (h *DashboardHandler) GetCriteria(c *gin.Context) {
	resp, err := h.service.Criteria(c.Param("version"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
	})
}

func parseSeriesRequest(c *gin.Context) (services.SeriesRequest, error) {
	var req services.SeriesRequest
	if raw := c.Query("lag"); raw != "" {
		lag, err := strconv.Atoi(raw)
		if err != nil {
			return req, utils.NewFieldError("lag", "must be an integer, got %q", raw)
		}
		req.Lag = &lag
	}
	if raw := c.Query("smoothing"); raw != "" {
		smoothing, err := strconv.Atoi(raw)
		if err != nil {
			return req, utils.NewFieldError("smoothing", "must be an integer, got %q", raw)
		}
		req.Smoothing = &smoothing
	}
	if raw := c.Query("blend"); raw != "" {
		blend, err := strconv.ParseBool(raw)
		if err != nil {
			return req, utils.NewFieldError("blend", "must be a boolean, got %q", raw)
		}
		req.Blend = blend
	}
	return req, nil
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var ve *utils.ValidationError
	switch {
	case errors.As(err, &ve):
		body := gin.H{"success": false, "error": ve.Error()}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, dataset.ErrUnknownVersion), errors.Is(err, services.ErrNotSupported):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	default:
		_ = c.Error(err)
		middleware.RecordError(c, err, "dashboard request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}
