package pagination

import (
	"math"

	"github.com/gin-gonic/gin"

	"github.com/valetkeys/valet-backend/pkg/common"
)

const (
	// DefaultLimit is the page size when the client doesn't ask for one.
	DefaultLimit = 20
	// MaxLimit caps the page size a client can request.
	MaxLimit = 100
)

// Params are the limit/offset query parameters shared by every list
// endpoint.
type Params struct {
	Limit  int `form:"limit" json:"limit"`
	Offset int `form:"offset" json:"offset"`
}

// ParseParams reads limit and offset from the query string. Malformed
// or out-of-range values fall back to defaults rather than erroring,
// list endpoints always succeed.
func ParseParams(c *gin.Context) Params {
	params := Params{Limit: DefaultLimit}
	if err := c.ShouldBindQuery(&params); err != nil {
		return Params{Limit: DefaultLimit}
	}
	return params.clamped()
}

func (p Params) clamped() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	} else if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// BuildMeta assembles the pagination block attached to list responses.
func BuildMeta(limit, offset int, total int64) *common.Meta {
	meta := &common.Meta{
		Limit:  limit,
		Offset: offset,
		Total:  total,
	}
	if limit > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return meta
}

// HasMore reports whether another page exists past the current one.
func HasMore(offset, limit int, total int64) bool {
	return int64(offset+limit) < total
}
