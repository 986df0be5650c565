package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOrderCode(t *testing.T) {
	day := time.Date(2025, 8, 30, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "OT250830-001", FormatOrderCode(day, 1))
	assert.Equal(t, "OT250830-042", FormatOrderCode(day, 42))
	assert.Equal(t, "OT250830-1042", FormatOrderCode(day, 1042))
}

func TestDayPrefix(t *testing.T) {
	a := time.Date(2025, 8, 30, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 8, 31, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, "OT250830-", DayPrefix(a))
	assert.NotEqual(t, DayPrefix(a), DayPrefix(b))
}

func TestParseOrderCode(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    ParsedCode
		wantErr bool
	}{
		{name: "three digit sequence", raw: "OT250830-003", want: ParsedCode{Day: "250830", Seq: 3}},
		{name: "two digit sequence", raw: "OT240101-17", want: ParsedCode{Day: "240101", Seq: 17}},
		{name: "surrounding whitespace", raw: "  OT250830-001 ", want: ParsedCode{Day: "250830", Seq: 1}},
		{name: "missing prefix", raw: "250830-001", wantErr: true},
		{name: "short day", raw: "OT2508-001", wantErr: true},
		{name: "no sequence", raw: "OT250830-", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseOrderCode(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	code := FormatOrderCode(day, 7)

	parsed, err := ParseOrderCode(code)
	require.NoError(t, err)
	assert.Equal(t, "260102", parsed.Day)
	assert.Equal(t, 7, parsed.Seq)
}
