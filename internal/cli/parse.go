package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/purse/internal/common"
	"github.com/Veraticus/purse/internal/ledger"
)

// ParseAmount parses a decimal number, accepting a comma as the decimal separator.
func ParseAmount(s string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, common.NewValidationError("amount", "not a number: "+s)
	}
	return v, nil
}

// ParseDate parses a YYYY-MM-DD date in the local time zone.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(ledger.DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, common.NewValidationError("date", "expected YYYY-MM-DD: "+s)
	}
	return d, nil
}
