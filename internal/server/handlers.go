package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Measum-Shah/Github-Profile-Analyzer/internal/errors"
	"github.com/Measum-Shah/Github-Profile-Analyzer/internal/types"
)

// handleAnalyze godoc
// @Summary      Analyze a GitHub profile
// @Description  Fetches the public profile, repositories and recent events of a user and scores them on five dimensions.
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body      types.AnalyzeRequest  true  "User to analyze"
// @Success      200      {object}  analysis.AnalysisResult
// @Failure      400      {object}  apperrors.ErrorResponse
// @Failure      404      {object}  apperrors.ErrorResponse
// @Failure      415      {object}  apperrors.ErrorResponse
// @Failure      429      {object}  apperrors.ErrorResponse
// @Failure      502      {object}  apperrors.ErrorResponse
// @Failure      504      {object}  apperrors.ErrorResponse
// @Router       /analyze [post]
func (s *Server) handleAnalyze(c *gin.Context) {
	var req types.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidationError("request body must be a JSON object with a username", err.Error()))
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), req.Username)
	if err != nil {
		appErr := apperrors.ToAppError(err)
		apperrors.LogError(c, appErr)
		apperrors.Respond(c, appErr)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleHealth godoc
// @Summary      Health check
// @Description  Reports uptime, request counters and the state of the GitHub client. Returns 503 while the GitHub circuit breaker is open.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (s *Server) handleHealth(c *gin.Context) {
	status, code := "ok", http.StatusOK

	resp := gin.H{
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"version":        Version,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"metrics":        s.metrics.GetStats(),
	}

	if s.github != nil {
		stats := s.github.Stats()
		resp["github"] = stats
		if stats["circuit_breaker_state"] == "open" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	resp["status"] = status
	c.JSON(code, resp)
}
