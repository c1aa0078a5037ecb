package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds validated pagination parameters
type Params struct {
	Page  int
	Limit int
}

// Parse reads page/limit from the query string. Missing or invalid values fall
// back to the defaults; limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	return Normalize(atoi(c.Query("page")), atoi(c.Query("limit")))
}

// Normalize applies the defaults and caps to raw values.
func Normalize(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
