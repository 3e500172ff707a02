package api

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/c-johnson06/optionSentinel/internal/cache"
	"github.com/c-johnson06/optionSentinel/internal/domain/models"
	xhttp "github.com/c-johnson06/optionSentinel/pkg/http"
	"github.com/c-johnson06/optionSentinel/pkg/logger"
	"github.com/c-johnson06/optionSentinel/pkg/util"
)

// MarketData is the upstream surface the REST handlers expose.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetExpirations(ctx context.Context, symbol string) ([]string, error)
	GetChain(ctx context.Context, symbol, expiration string) ([]models.Contract, error)
	Search(ctx context.Context, query string) ([]models.Security, error)
	GetHistory(ctx context.Context, symbol string, start time.Time) ([]models.HistoryBar, error)
}

// Scanner is the on-demand scan entry point.
type Scanner interface {
	ScanAll(ctx context.Context, tickers []string) []models.ScoredSignal
}

// Handler serves the REST surface consumed by the presentation layer.
type Handler struct {
	log      *logger.Logger
	market   MarketData
	scanner  Scanner
	cache    *cache.TTLCache
	defaults []string
	clock    util.Clock
}

func NewHandler(log *logger.Logger, market MarketData, scanner Scanner, c *cache.TTLCache, defaults []string, clock util.Clock) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if clock == nil {
		clock = util.SystemClock{}
	}
	return &Handler{
		log:      log,
		market:   market,
		scanner:  scanner,
		cache:    c,
		defaults: defaults,
		clock:    clock,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/quote/:ticker", h.Quote)
	e.GET("/history/:ticker", h.History)
	e.GET("/options/expirations/:ticker", h.Expirations)
	e.GET("/options/chain/:ticker/:expiration", h.Chain)
	e.GET("/search", h.Search)
	e.GET("/flow", h.Flow)
	e.GET("/cache/stats", h.CacheStats)
	e.GET("/healthz", h.Health)
}

func (h *Handler) Quote(c echo.Context) error {
	ticker := strings.ToUpper(c.Param("ticker"))

	q, err := h.market.GetQuote(c.Request().Context(), ticker)
	if err != nil {
		h.log.Error("quote fetch failed", logger.String("ticker", ticker), logger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if q == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("unknown symbol %s", ticker))
	}
	return xhttp.SuccessResponse(c, q)
}

// HistoryRequest bounds the supported history windows.
type HistoryRequest struct {
	Range string `query:"range" default:"1M" validate:"oneof=1W 1M 3M"`
}

func (h *Handler) History(c echo.Context) error {
	ticker := strings.ToUpper(c.Param("ticker"))

	req := &HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := h.clock.Now()
	var start time.Time
	switch req.Range {
	case "1W":
		start = now.AddDate(0, 0, -7)
	case "3M":
		start = now.AddDate(0, -3, 0)
	default:
		start = now.AddDate(0, -1, 0)
	}

	bars, err := h.market.GetHistory(c.Request().Context(), ticker, start)
	if err != nil {
		h.log.Error("history fetch failed", logger.String("ticker", ticker), logger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, bars)
}

func (h *Handler) Expirations(c echo.Context) error {
	ticker := strings.ToUpper(c.Param("ticker"))

	dates, err := h.market.GetExpirations(c.Request().Context(), ticker)
	if err != nil {
		h.log.Error("expirations fetch failed", logger.String("ticker", ticker), logger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, dates)
}

func (h *Handler) Chain(c echo.Context) error {
	ticker := strings.ToUpper(c.Param("ticker"))
	expiration := c.Param("expiration")

	contracts, err := h.market.GetChain(c.Request().Context(), ticker, expiration)
	if err != nil {
		h.log.Error("chain fetch failed",
			logger.String("ticker", ticker),
			logger.String("expiration", expiration),
			logger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, contracts)
}

func (h *Handler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if len(q) < 2 {
		return xhttp.SuccessResponse(c, []models.Security{})
	}

	secs, err := h.market.Search(c.Request().Context(), q)
	if err != nil {
		h.log.Error("search failed", logger.String("q", q), logger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	// only stocks and ETFs are tradeable here
	out := make([]models.Security, 0, len(secs))
	for _, s := range secs {
		switch strings.ToLower(s.Type) {
		case "stock", "etf":
			out = append(out, s)
		}
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *Handler) Flow(c echo.Context) error {
	tickers := h.defaults
	if raw := c.QueryParam("tickers"); raw != "" {
		tickers = util.SplitSymbols(raw)
	}

	signals := h.scanner.ScanAll(c.Request().Context(), tickers)
	return xhttp.SuccessResponse(c, signals)
}

func (h *Handler) CacheStats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.cache.Stats())
}

func (h *Handler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
