package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/repository"
)

const dateLayout = "2006-01-02"

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func queryDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &d, nil
}

// queryTime accepts a plain date or an RFC 3339 timestamp. Plain dates are
// midnight in loc.
func queryTime(c *gin.Context, key string, loc *time.Location) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD or RFC 3339", key)
	}
	return t, nil
}

// entryFilter reads from, to, department_id, direction and category.
func entryFilter(c *gin.Context, loc *time.Location) (repository.EntryFilter, error) {
	from, err := queryTime(c, "from", loc)
	if err != nil {
		return repository.EntryFilter{}, err
	}
	to, err := queryTime(c, "to", loc)
	if err != nil {
		return repository.EntryFilter{}, err
	}

	filter := repository.EntryFilter{
		From:             from,
		To:               to,
		DepartmentID:     c.Query("department_id"),
		CategoryContains: c.Query("category"),
	}
	if raw := c.Query("direction"); raw != "" {
		dir, err := models.ParseDirection(raw)
		if err != nil {
			return repository.EntryFilter{}, err
		}
		filter.Direction = dir
	}
	return filter, nil
}
