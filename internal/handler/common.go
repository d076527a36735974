// Package handler exposes the HTTP layer: request binding, validation
// and translation of repository/service errors into JSON responses.
// Handlers stay thin; all transactional logic lives in internal/service
// and internal/repository.
package handler

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// currentUserID reads the authenticated user ID placed in context by
// the JWT middleware. JWT numeric claims decode as float64; tokens
// issued by other stacks may carry the subject as a string.
func currentUserID(c echo.Context) (uint64, bool) {
    switch v := c.Get("user_id").(type) {
    case float64:
        return uint64(v), true
    case uint64:
        return v, true
    case string:
        if n, err := strconv.ParseUint(v, 10, 64); err == nil {
            return n, true
        }
    }
    return 0, false
}

// currentRole reads the role claim placed in context by the JWT
// middleware.
func currentRole(c echo.Context) string {
    if s, ok := c.Get("role").(string); ok {
        return s
    }
    return ""
}

// pathID parses the :id path parameter as an unsigned integer.
func pathID(c echo.Context) (uint64, error) {
    return strconv.ParseUint(c.Param("id"), 10, 64)
}
