package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/liquidity-lens/internal/analytics"
	"github.com/irfndi/liquidity-lens/internal/dataset"
	"github.com/irfndi/liquidity-lens/internal/services"
	"github.com/irfndi/liquidity-lens/internal/utils"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) ListDashboards() []services.DashboardSummary {
	args := m.Called()
	return args.Get(0).([]services.DashboardSummary)
}

func (m *MockDashboardService) Series(ctx context.Context, version string, req services.SeriesRequest) (*services.SeriesResponse, error) {
	args := m.Called(ctx, version, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SeriesResponse), args.Error(1)
}

func (m *MockDashboardService) LagProfile(ctx context.Context, version string) (*services.LagProfileResponse, error) {
	args := m.Called(ctx, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LagProfileResponse), args.Error(1)
}

func (m *MockDashboardService) Tables(version string) (map[string]json.RawMessage, error) {
	args := m.Called(version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]json.RawMessage), args.Error(1)
}

func (m *MockDashboardService) WalkForward(version string) (*services.WalkForwardSummary, error) {
	args := m.Called(version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WalkForwardSummary), args.Error(1)
}

func (m *MockDashboardService) Criteria(version string) (*services.CriteriaResponse, error) {
	args := m.Called(version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CriteriaResponse), args.Error(1)
}

func dashboardRouter(svc DashboardServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDashboardHandler(svc)
	router := gin.New()
	router.GET("/api/v1/dashboards", h.ListDashboards)
	router.GET("/api/v1/dashboards/:version/series", h.GetSeries)
	router.GET("/api/v1/dashboards/:version/lag-profile", h.GetLagProfile)
	router.GET("/api/v1/dashboards/:version/tables", h.GetTables)
	router.GET("/api/v1/dashboards/:version/walk-forward", h.GetWalkForward)
	router.GET("/api/v1/dashboards/:version/criteria", h.GetCriteria)
	return router
}

func serve(router *gin.Engine, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestDashboardHandler_ListDashboards(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("ListDashboards").Return([]services.DashboardSummary{
		{Version: "v1", Records: 120, DefaultLag: 6, MaxLag: 12},
	})

	w, body := serve(dashboardRouter(svc), "/api/v1/dashboards")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "v1", data[0].(map[string]interface{})["version"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetSeries(t *testing.T) {
	lag, smoothing := 7, 4
	result := &analytics.Result{Params: analytics.Params{Lag: 7, Smoothing: 4, BlendEnabled: true}}

	svc := &MockDashboardService{}
	svc.On("Series", mock.Anything, "v2", services.SeriesRequest{Lag: &lag, Smoothing: &smoothing, Blend: true}).
		Return(&services.SeriesResponse{Version: "v2", Cached: true, Result: result}, nil)

	w, body := serve(dashboardRouter(svc), "/api/v1/dashboards/v2/series?lag=7&smoothing=4&blend=true")

	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["cached"])
	params := data["params"].(map[string]interface{})
	assert.Equal(t, float64(7), params["lag"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_GetSeries_Errors(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		serviceErr   error
		expectedCode int
		field        string
	}{
		{"non-integer lag", "/api/v1/dashboards/v1/series?lag=abc", nil, http.StatusBadRequest, "lag"},
		{"non-integer smoothing", "/api/v1/dashboards/v2/series?smoothing=1.5", nil, http.StatusBadRequest, "smoothing"},
		{"bad blend flag", "/api/v1/dashboards/v2/series?blend=maybe", nil, http.StatusBadRequest, "blend"},
		{"lag above max", "/api/v1/dashboards/v1/series?lag=99", utils.NewFieldError("lag", "must be between 0 and 12, got 99"), http.StatusBadRequest, "lag"},
		{"unknown version", "/api/v1/dashboards/v9/series", fmt.Errorf("dataset v9: %w", dataset.ErrUnknownVersion), http.StatusNotFound, ""},
		{"internal failure", "/api/v1/dashboards/v1/series", errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockDashboardService{}
			if tt.serviceErr != nil {
				svc.On("Series", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.serviceErr)
			}

			w, body := serve(dashboardRouter(svc), tt.target)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, false, body["success"])
			if tt.field != "" {
				assert.Equal(t, tt.field, body["field"])
			}
			if tt.serviceErr == nil {
				svc.AssertNotCalled(t, "Series", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDashboardHandler_GetLagProfile(t *testing.T) {
	svc := &MockDashboardService{}
	best := analytics.LagPoint{Lag: 6, Correlation: 0.61}
	svc.On("LagProfile", mock.Anything, "v1").Return(&services.LagProfileResponse{
		Version: "v1",
		Points:  []analytics.LagPoint{{Lag: 0, Correlation: 0.1}, best},
		Best:    &best,
	}, nil)

	w, body := serve(dashboardRouter(svc), "/api/v1/dashboards/v1/lag-profile")

	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["points"], 2)
	assert.Equal(t, float64(6), data["best"].(map[string]interface{})["lag"])
}

func TestDashboardHandler_GetTables(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("Tables", "v2").Return(map[string]json.RawMessage{"cpcv": json.RawMessage(`{"paths":[1,2]}`)}, nil)
	svc.On("Tables", "v3").Return(nil, dataset.ErrUnknownVersion)

	router := dashboardRouter(svc)
	w, body := serve(router, "/api/v1/dashboards/v2/tables")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"paths": []interface{}{float64(1), float64(2)}},
		body["data"].(map[string]interface{})["cpcv"])

	w, _ = serve(router, "/api/v1/dashboards/v3/tables")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardHandler_GetWalkForward(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("WalkForward", "v1").Return(&services.WalkForwardSummary{NWindows: 4, Positive: 3}, nil)
	svc.On("WalkForward", "v2").Return(nil, fmt.Errorf("walk-forward: %w", services.ErrNotSupported))

	router := dashboardRouter(svc)
	w, body := serve(router, "/api/v1/dashboards/v1/walk-forward")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), body["data"].(map[string]interface{})["positive_windows"])

	w, body = serve(router, "/api/v1/dashboards/v2/walk-forward")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, body["error"], "not available")
}

func TestDashboardHandler_GetCriteria(t *testing.T) {
	svc := &MockDashboardService{}
	svc.On("Criteria", "v2").Return(&services.CriteriaResponse{Passed: 3, Total: 4, PassRate: 0.75}, nil)
	svc.On("Criteria", "v1").Return(nil, fmt.Errorf("criteria: %w", services.ErrNotSupported))

	router := dashboardRouter(svc)
	w, body := serve(router, "/api/v1/dashboards/v2/criteria")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.75, body["data"].(map[string]interface{})["pass_rate"])

	w, _ = serve(router, "/api/v1/dashboards/v1/criteria")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
