package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	defaultReportsLimit = 50
	maxReportsLimit     = 500
)

// reportEntry is one row of the reports listing.
type reportEntry struct {
	ID        uint    `json:"id"`
	Category  string  `json:"category"`
	WhatIsIt  string  `json:"whatIsIt"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
	Priority  int     `json:"priority"`
}

type reportsResponse struct {
	Success bool          `json:"success"`
	Reports []reportEntry `json:"reports"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

// ListReports returns the most recently persisted reports, newest first.
// Optional query parameters: limit (default 50, capped) and offset.
func (c *Controller) ListReports(ctx echo.Context) error {
	limit := queryInt(ctx, "limit", defaultReportsLimit)
	if limit < 1 || limit > maxReportsLimit {
		limit = defaultReportsLimit
	}
	offset := queryInt(ctx, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	reports, err := c.DS.GetRecent(limit, offset)
	if err != nil {
		c.logger.Error("Failed to list reports", "error", err)
		return c.errorJSON(ctx, http.StatusInternalServerError, "Server error: failed to list reports")
	}

	entries := make([]reportEntry, 0, len(reports))
	for _, r := range reports {
		entries = append(entries, reportEntry{
			ID:        r.ID,
			Category:  r.Category,
			WhatIsIt:  r.WhatIsIt,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Timestamp: r.Timestamp,
			Priority:  r.Priority,
		})
	}

	return ctx.JSON(http.StatusOK, reportsResponse{
		Success: true,
		Reports: entries,
		Limit:   limit,
		Offset:  offset,
	})
}

func queryInt(ctx echo.Context, name string, fallback int) int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
