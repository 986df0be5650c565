package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var codeRe = regexp.MustCompile(`^OT(\d{6})-(\d+)$`)

// ParsedCode holds the structured data parsed from a work-order code such as
// "OT250830-003".
type ParsedCode struct {
	Day string // YYMMDD
	Seq int
}

// DayPrefix returns the code prefix shared by every order created on the
// calendar day of t, e.g. "OT250830-".
func DayPrefix(t time.Time) string {
	return "OT" + t.Format("060102") + "-"
}

// FormatOrderCode builds the external code for the given day and sequence.
func FormatOrderCode(t time.Time, seq int) string {
	return fmt.Sprintf("%s%03d", DayPrefix(t), seq)
}

// ParseOrderCode extracts the day and daily sequence from a raw code string.
func ParseOrderCode(raw string) (ParsedCode, error) {
	s := strings.TrimSpace(raw)
	m := codeRe.FindStringSubmatch(s)
	if m == nil {
		return ParsedCode{}, fmt.Errorf("malformed work-order code %q", raw)
	}
	seq, err := strconv.Atoi(m[2])
	if err != nil {
		return ParsedCode{}, fmt.Errorf("malformed sequence in code %q: %w", raw, err)
	}
	return ParsedCode{Day: m[1], Seq: seq}, nil
}
