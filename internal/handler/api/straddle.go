package api

import (
	"errors"

	"DarkPull/internal/domain/models"
	"DarkPull/internal/usecase"
	xhttp "DarkPull/pkg/http"
	applogger "DarkPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

func (h *Handler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.backtester.Backtest(c.Request().Context(), usecase.BacktestInput{
		Ticker:           req.Ticker,
		StrikePrice:      req.StrikePrice,
		TotalPremium:     req.TotalPremium,
		CurrentPrice:     req.CurrentPrice,
		DaysToExpiration: req.DaysToExpiration,
		LookbackDays:     req.LookbackDays,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// RunPipeline runs one screen, backtest and notify pass. A failed stage
// still answers 200 with success=false and whatever the other stages produced.
func (h *Handler) RunPipeline(c echo.Context) error {
	req := &models.PipelineRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := h.date(req.Date)
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.pipeline.Run(c.Request().Context(), usecase.RunOptions{
		Date:       date,
		MaxTickers: req.MaxTickers,
		MinValue:   req.MinValue,
		Notify:     req.Notify,
	})
	if err != nil && !errors.Is(err, models.ErrPartialPipelineFailure) {
		return h.fail(c, err)
	}
	if err != nil {
		h.logger.Warn("pipeline finished with failures",
			applogger.String("run_id", res.Summary.RunID),
			applogger.String("failed_step", res.FailedStep),
		)
	}
	return xhttp.SuccessResponse(c, res)
}
