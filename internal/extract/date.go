package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
)

const datePat = `(\d{1,4}[./-]\d{1,2}[./-]\d{2,4})`

var (
	labeledDateRe = regexp.MustCompile(`(?i)\b(?:invoice\s+date|date\s+of\s+issue|issue\s+date|rechnungsdatum|datum\s+ra[čc]una|data\s+e\s+l[eë]shimit|date|datum|data|dat[eë])\s*[:.]?\s*` + datePat)
	anyDateRe     = regexp.MustCompile(`\b` + datePat + `\b`)
	timeRe        = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)(?::([0-5]\d))?\b`)
)

// Date extracts the document date as YYYY-MM-DD. When nothing parses it
// defaults to today and says so.
func Date(in Input) invoice.Field[string] {
	v, ok := First(in, labeledDate, firstDate)
	if !ok {
		return invoice.Defaulted(in.Now.Format(time.DateOnly))
	}

	return invoice.Found(v)
}

func labeledDate(in Input) (string, bool) {
	for _, line := range in.Text.Lines {
		for _, m := range labeledDateRe.FindAllStringSubmatch(line, -1) {
			if d, ok := parseDate(m[1]); ok {
				return d, true
			}
		}
	}

	return "", false
}

func firstDate(in Input) (string, bool) {
	for _, line := range in.Text.Lines {
		for _, m := range anyDateRe.FindAllStringSubmatch(line, -1) {
			if d, ok := parseDate(m[1]); ok {
				return d, true
			}
		}
	}

	return "", false
}

// parseDate reads D.M.Y, D/M/YY, Y-M-D and similar. The four digit part
// decides the order; a two digit year means 20YY.
func parseDate(s string) (string, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '/' || r == '-' })
	if len(parts) != 3 {
		return "", false
	}

	seps := strings.Map(func(r rune) rune {
		if r == '.' || r == '/' || r == '-' {
			return r
		}

		return -1
	}, s)
	if len(seps) != 2 || seps[0] != seps[1] {
		return "", false
	}

	nums := make([]int, 3)

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", false
		}

		nums[i] = n
	}

	var y, m, d int

	switch {
	case len(parts[0]) == 4:
		y, m, d = nums[0], nums[1], nums[2]
	case len(parts[2]) == 4:
		d, m, y = nums[0], nums[1], nums[2]
	case len(parts[2]) == 2:
		d, m, y = nums[0], nums[1], 2000+nums[2]
	default:
		return "", false
	}

	if y < 2000 || y > 2099 || m < 1 || m > 12 || d < 1 {
		return "", false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return "", false
	}

	return t.Format(time.DateOnly), true
}

// Time extracts the time of day as HH:MM or HH:MM:SS.
func Time(in Input) invoice.Field[string] {
	for _, line := range in.Text.Lines {
		m := timeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		h, _ := strconv.Atoi(m[1])

		if m[3] != "" {
			return invoice.Found(fmt.Sprintf("%02d:%s:%s", h, m[2], m[3]))
		}

		return invoice.Found(fmt.Sprintf("%02d:%s", h, m[2]))
	}

	return invoice.Missing[string]()
}
