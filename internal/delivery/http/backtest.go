package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang-backtest/internal/backtest"
	"golang-backtest/internal/dto"
	"golang-backtest/internal/export"
	"golang-backtest/internal/model"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func (h *HttpAPIHandler) SetupBacktest(base *echo.Group) {
	backtestGroup := base.Group("/backtest")
	backtestGroup.POST("", h.runBacktest)
	backtestGroup.POST("/sweep", h.runSweep)
	backtestGroup.GET("/runs", h.listRuns)
	backtestGroup.GET("/runs/:id", h.getRun)
	backtestGroup.GET("/runs/:id/trades.csv", h.exportTrades)
}

func (h *HttpAPIHandler) runBacktest(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.BacktestRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.service.BacktestService.Run(ctx, req)
	if err != nil {
		return backtestErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *HttpAPIHandler) runSweep(c echo.Context) error {
	ctx := c.Request().Context()

	req := new(dto.SweepRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	result, err := h.service.SweepService.Sweep(ctx, req)
	if err != nil {
		return backtestErrorResponse(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *HttpAPIHandler) listRuns(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, err := h.service.BacktestService.ListRuns(ctx, model.ListBacktestRunParam{
		Symbol:   c.QueryParam("symbol"),
		Strategy: c.QueryParam("strategy"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
	}

	return c.JSON(http.StatusOK, runs)
}

func (h *HttpAPIHandler) getRun(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid run id"})
	}

	run, err := h.service.BacktestService.GetRun(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load run"})
	}

	return c.JSON(http.StatusOK, run)
}

func (h *HttpAPIHandler) exportTrades(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid run id"})
	}

	run, err := h.service.BacktestService.GetRun(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load run"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=backtest_%d_trades.csv", run.ID))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)

	return export.WriteTradesCSVFromJSON(c.Response(), run.Trades)
}

// backtestErrorResponse maps engine errors to status codes: bad inputs are
// the caller's fault, strategy failures are unprocessable, the rest is ours.
func backtestErrorResponse(c echo.Context, err error) error {
	var cfgErr *backtest.ConfigurationError
	var dataErr *backtest.InsufficientDataError
	var stratErr *backtest.StrategyError

	switch {
	case errors.As(err, &cfgErr), errors.As(err, &dataErr):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &stratErr):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
