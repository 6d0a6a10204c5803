package moysklad

import (
	"fmt"
	"time"
)

const inputDateLayout = "02.01.06"

// Period is a validated date range in the API's moment format.
type Period struct {
	From string // "2006-01-02 00:00:00"
	To   string // "2006-01-02 23:59:59"
}

// FormatDate turns a DD.MM.YY user date into the API moment format,
// anchored to the start or end of that day.
func FormatDate(input string, endOfDay bool) (string, error) {
	t, err := time.Parse(inputDateLayout, input)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected DD.MM.YY: %w", input, err)
	}
	if endOfDay {
		return t.Format("2006-01-02") + " 23:59:59", nil
	}
	return t.Format("2006-01-02") + " 00:00:00", nil
}

// ParsePeriod validates a DD.MM.YY date pair. Both dates are required.
func ParsePeriod(dateFrom, dateTo string) (Period, error) {
	if dateFrom == "" || dateTo == "" {
		return Period{}, fmt.Errorf("both dateFrom and dateTo are required")
	}
	from, err := FormatDate(dateFrom, false)
	if err != nil {
		return Period{}, err
	}
	to, err := FormatDate(dateTo, true)
	if err != nil {
		return Period{}, err
	}
	return Period{From: from, To: to}, nil
}
