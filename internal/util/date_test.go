package util

import (
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name    string
		desde   string
		hasta   string
		wantErr bool
	}{
		{"Both empty", "", "", false},
		{"Only desde", "01/03/2025", "", false},
		{"Only hasta", "", "31/03/2025", false},
		{"Valid range", "01/03/2025", "31/03/2025", false},
		{"Same day", "15/03/2025", "15/03/2025", false},
		{"Inverted range", "31/03/2025", "01/03/2025", true},
		{"Bad format", "2025-03-01", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseDateRange(tt.desde, tt.hasta)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDateRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if tt.desde == "" && from != nil {
				t.Errorf("Expected nil from for empty desde, got %v", from)
			}
			if tt.hasta == "" && to != nil {
				t.Errorf("Expected nil to for empty hasta, got %v", to)
			}
		})
	}
}

func TestParseDateRangeInclusiveEnd(t *testing.T) {
	_, to, err := ParseDateRange("", "15/03/2025")
	if err != nil {
		t.Fatalf("ParseDateRange() error = %v", err)
	}

	// The hasta bound must cover the whole day.
	endOfDay := time.Date(2025, 3, 15, 23, 59, 59, 0, time.UTC)
	if to.Before(endOfDay) {
		t.Errorf("Expected hasta to reach end of day, got %v", to)
	}
	nextDay := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)
	if !to.Before(nextDay) {
		t.Errorf("Expected hasta to stay within its day, got %v", to)
	}
}
