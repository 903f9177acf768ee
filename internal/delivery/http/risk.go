package http

import (
	"net/http"

	"golang-backtest/internal/dto"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupRisk(base *echo.Group) {
	riskGroup := base.Group("/risk")
	riskGroup.POST("/portfolio", h.assessPortfolio)
	riskGroup.POST("/position-size", h.positionSize)
	riskGroup.POST("/correlation", h.correlation)
}

func (h *HttpAPIHandler) assessPortfolio(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.PortfolioAssessRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	assessment, err := h.service.RiskService.AssessPortfolio(ctx, req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, assessment)
}

func (h *HttpAPIHandler) positionSize(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.PositionSizeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	resp, err := h.service.RiskService.PositionSize(ctx, req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *HttpAPIHandler) correlation(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.CorrelationRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	resp, err := h.service.RiskService.Correlation(ctx, req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}
