package server

import "github.com/aman-zulfiqar/raydium-sniper/internal/bot"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK        bool `json:"ok"`
	Positions int  `json:"positions"`
}

// PositionsResponse lists tracked positions, newest first
type PositionsResponse struct {
	Items []bot.Position `json:"items"`
}

// SnipeListAddRequest adds a mint to the snipe list
type SnipeListAddRequest struct {
	Mint string `json:"mint"`
}
