package extract_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdeck/enricher/internal/extract"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"slash numeric", "12/03/1998", date(1998, 3, 12), true},
		{"dot numeric", "12.03.1998", date(1998, 3, 12), true},
		{"with age suffix", "12/03/1998 (25)", date(1998, 3, 12), true},
		{"spanish short month", "12 mar. 1998", date(1998, 3, 12), true},
		{"spanish long form", "12 de marzo de 1998", date(1998, 3, 12), true},
		{"english form", "Mar 12, 1998", date(1998, 3, 12), true},
		{"english long month", "December 1, 2005", date(2005, 12, 1), true},
		{"impossible day", "31/02/1998", time.Time{}, false},
		{"month out of range", "12/13/1998", time.Time{}, false},
		{"year too old", "12/03/1850", time.Time{}, false},
		{"unknown month word", "12 foo. 1998", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"garbage", "no date here", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extract.ParseDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.True(t, got.Equal(tt.want), "got %s", got)
			}
		})
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseHeight(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"1,85 m", 185, true},
		{"1.85 m", 185, true},
		{"185 cm", 185, true},
		{"1,7 m", 170, true},
		{"2,01 m", 201, true},
		{"0,1 m", 0, false},
		{"-", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := extract.ParseHeight(tt.input)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMarketValue(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		ok    bool
	}{
		{"1.500.000 €", 1_500_000, true},
		{"1,5 mill. €", 1_500_000, true},
		{"350 k€", 350_000, true},
		{"350 mil €", 350_000, true},
		{"2,00 mio. €", 2_000_000, true},
		{"€25m", 25_000_000, true},
		{"900.000", 900_000, true},
		{"1,5", 2, true}, // bare decimal rounds to whole euros
		{"-", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := extract.ParseMarketValue(tt.input)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
