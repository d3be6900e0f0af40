package shared

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseYearMonth reads a report period from either year and month
// parameters or a single "YYYY-MM" period.
func ParseYearMonth(period, rawYear, rawMonth string) (int, time.Month, error) {
	if period = strings.TrimSpace(period); period != "" {
		parsed, err := time.Parse("2006-01", period)
		if err != nil {
			return 0, 0, fmt.Errorf("period must be YYYY-MM")
		}
		return parsed.Year(), parsed.Month(), nil
	}
	year, err := strconv.Atoi(strings.TrimSpace(rawYear))
	if err != nil {
		return 0, 0, fmt.Errorf("year must be a number")
	}
	month, err := strconv.Atoi(strings.TrimSpace(rawMonth))
	if err != nil {
		return 0, 0, fmt.Errorf("month must be a number")
	}
	return year, time.Month(month), nil
}
