package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
		ok    bool
	}{
		{"float", 12.5, 12.5, true},
		{"int", 7, 7, true},
		{"int64", int64(-3), -3, true},
		{"json number", json.Number("4.25"), 4.25, true},
		{"text", " 101.5 ", 101.5, true},
		{"thousands separator", "1,234.50", 1234.5, true},
		{"empty text", "   ", 0, false},
		{"garbage", "n/a", 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf text", "Inf", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	jan := time.Date(2021, time.January, 29, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input any
		want  time.Time
		ok    bool
	}{
		{"time value", jan, jan, true},
		{"time pointer", &jan, jan, true},
		{"iso date", "2021-01-29", jan, true},
		{"slashes", "2021/01/29", jan, true},
		{"us format", "01/29/2021", jan, true},
		{"us format without padding", "1/29/2021", jan, true},
		{"us format with time", "1/29/2021 0:00", jan, true},
		{"iso without padding", "2021-1-29", jan, true},
		{"slashes without padding", "2021/1/29", jan, true},
		{"dotted without padding", "29.1.2021", jan, true},
		{"iso with fraction", "2021-01-29 00:00:00.000", jan, true},
		{"day first slashes", "29/01/2021", time.Time{}, false},
		{"month only", "2021-01", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"zero time", time.Time{}, time.Time{}, false},
		{"nil pointer", (*time.Time)(nil), time.Time{}, false},
		{"garbage", "yesterday", time.Time{}, false},
		{"number", 44227.0, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", CellString(nil))
	assert.Equal(t, "Acme", CellString("Acme"))
	assert.Equal(t, "12.5", CellString(12.5))
	assert.Equal(t, "2021-03-01", CellString(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)))
}
