package api

import (
	"DarkPull/internal/domain/models"
	xhttp "DarkPull/pkg/http"

	"github.com/labstack/echo/v4"
)

// Screen returns the date's tickers whose dark-pool volume clears the
// criteria, ranked by ratio. Thresholds missing from the query fall back to
// the configured ones; an explicit 0 disables that filter.
func (h *Handler) Screen(c echo.Context) error {
	req := &models.ScreenRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := h.date(req.Date)
	if err != nil {
		return h.fail(c, err)
	}

	criteria := h.screener.Criteria()
	query := c.QueryParams()
	if query.Has("min_ratio") {
		criteria.MinRatio = req.MinRatio
	}
	if query.Has("min_price") {
		criteria.MinPrice = req.MinPrice
	}
	if query.Has("min_value") {
		criteria.MinTotalValue = req.MinValue
	}
	if req.Limit > 0 {
		criteria.MaxResults = req.Limit
	}

	res, err := h.screener.Screen(c.Request().Context(), date, criteria, !req.NoSignals)
	if err != nil {
		return h.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Baseline(c echo.Context) error {
	req := &models.BaselineRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := h.date(req.Date)
	if err != nil {
		return h.fail(c, err)
	}
	res, err := h.screener.Baseline(c.Request().Context(), req.Ticker, date, req.Window)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Ingest pulls the date's trades for the given tickers from the provider and
// merges their dark-pool stats into the store. Per-ticker failures are
// reported in the body.
func (h *Handler) Ingest(c echo.Context) error {
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := h.date(req.Date)
	if err != nil {
		return h.fail(c, err)
	}
	report, err := h.ingestor.IngestDate(c.Request().Context(), date, req.Tickers)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}
