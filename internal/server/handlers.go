package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/bot"
	"github.com/aman-zulfiqar/raydium-sniper/internal/snipelist"
	"github.com/aman-zulfiqar/raydium-sniper/internal/storage"
	"github.com/gagliardetto/solana-go"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// PositionReader is the engine's read side
type PositionReader interface {
	Positions() []bot.Position
	Position(mint solana.PublicKey) (bot.Position, error)
}

// SnipeListStore is the writable snipe list backend
type SnipeListStore interface {
	Add(ctx context.Context, mint string) (*snipelist.Entry, error)
	Remove(ctx context.Context, mint string) error
	List(ctx context.Context) ([]*snipelist.Entry, error)
}

// Refresher reloads the in-memory snipe list after a write
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Engine    PositionReader     // Position snapshots
	Trades    storage.TradeCache // Redis-backed trade journal (optional)
	SnipeList SnipeListStore     // Redis-backed snipe list (optional)
	Refresher Refresher          // In-memory snipe list (optional)
	DevMode   bool               // Enable detailed error responses in development
	Logger    *logrus.Logger     // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) log() *logrus.Logger {
	if h.Logger == nil {
		h.Logger = logrus.New()
	}
	return h.Logger
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true, Positions: len(h.Engine.Positions())})
}

// Positions returns every tracked position, including the bounded history of
// closed and abandoned ones
func (h *Handlers) Positions(c echo.Context) error {
	items := h.Engine.Positions()
	if state := strings.TrimSpace(c.QueryParam("state")); state != "" {
		filtered := items[:0]
		for _, p := range items {
			if p.State.String() == state {
				filtered = append(filtered, p)
			}
		}
		items = filtered
	}
	return c.JSON(http.StatusOK, PositionsResponse{Items: items})
}

// Position returns a single position by base mint
func (h *Handlers) Position(c echo.Context) error {
	mint, err := snipelist.ValidateMint(c.Param("mint"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": err.Error()})
	}

	p, err := h.Engine.Position(mint)
	if err != nil {
		if errors.Is(err, bot.ErrPositionNotFound) {
			return h.err(c, http.StatusNotFound, "position not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get position", nil)
	}
	return c.JSON(http.StatusOK, p)
}

// RecentTrades returns the most recent journaled trades with optional limit parameter
// Accepts limit query parameter (default: 50, range: 1-200)
func (h *Handlers) RecentTrades(c echo.Context) error {
	if h.Trades == nil {
		return h.err(c, http.StatusServiceUnavailable, "trade journal is not configured", nil)
	}

	limitStr := c.QueryParam("limit")
	limit := 50
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Trades.GetRecentTrades(ctx, int64(limit))
	if err != nil {
		h.log().WithError(err).Error("failed to get recent trades")
		return h.err(c, http.StatusInternalServerError, "failed to get trades", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// TradesStream relays live trades as server-sent events until the client
// disconnects
func (h *Handlers) TradesStream(c echo.Context) error {
	if h.Trades == nil {
		return h.err(c, http.StatusServiceUnavailable, "trade journal is not configured", nil)
	}

	ctx := c.Request().Context()
	trades, err := h.Trades.SubscribeTrades(ctx)
	if err != nil {
		h.log().WithError(err).Error("failed to subscribe to trades")
		return h.err(c, http.StatusInternalServerError, "failed to subscribe", nil)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case trade, ok := <-trades:
			if !ok {
				return nil
			}
			data, err := json.Marshal(trade)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "event: trade\ndata: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

// SnipeListList returns every mint on the snipe list
func (h *Handlers) SnipeListList(c echo.Context) error {
	if h.SnipeList == nil {
		return h.err(c, http.StatusNotFound, "snipe list is not redis-backed", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.SnipeList.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list snipe list", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// SnipeListAdd validates and adds a mint, then reloads the in-memory list
func (h *Handlers) SnipeListAdd(c echo.Context) error {
	if h.SnipeList == nil {
		return h.err(c, http.StatusNotFound, "snipe list is not redis-backed", nil)
	}

	var req SnipeListAddRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if _, err := snipelist.ValidateMint(req.Mint); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	entry, err := h.SnipeList.Add(ctx, strings.TrimSpace(req.Mint))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to add mint", nil)
	}
	h.refresh(ctx)
	return c.JSON(http.StatusCreated, entry)
}

// SnipeListDelete removes a mint
// Returns 204 No Content on successful deletion
func (h *Handlers) SnipeListDelete(c echo.Context) error {
	if h.SnipeList == nil {
		return h.err(c, http.StatusNotFound, "snipe list is not redis-backed", nil)
	}

	mint := c.Param("mint")
	if _, err := snipelist.ValidateMint(mint); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.SnipeList.Remove(ctx, mint); err != nil {
		if errors.Is(err, snipelist.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "mint not in snipe list", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to remove mint", nil)
	}
	h.refresh(ctx)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) refresh(ctx context.Context) {
	if h.Refresher == nil {
		return
	}
	if err := h.Refresher.Refresh(ctx); err != nil {
		h.log().WithError(err).Warn("snipe list refresh after write failed")
	}
}
