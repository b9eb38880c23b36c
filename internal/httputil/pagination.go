package httputil

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultLimit is used when no limit query parameter is provided.
	DefaultLimit = 50
	// MaxLimit caps the limit query parameter to protect the database.
	MaxLimit = 200
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination extracts limit and offset query parameters with defaults.
// Invalid or out-of-range values fall back to the defaults rather than erroring.
func ParsePagination(c *gin.Context) Pagination {
	p := Pagination{Limit: DefaultLimit}

	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Limit = v
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			p.Offset = v
		}
	}

	return p
}
