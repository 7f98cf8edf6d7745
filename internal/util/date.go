package util

import (
	"fmt"
	"time"
)

// Query-string date filters use dd/mm/yyyy, matching the format documents
// carry.
const DateLayout = "02/01/2006"

// ParseDateRange parses optional desde/hasta filters. Empty strings mean an
// open bound. The hasta bound is pushed to the end of its day so the range
// is inclusive.
func ParseDateRange(desde, hasta string) (*time.Time, *time.Time, error) {
	var from, to *time.Time

	if desde != "" {
		t, err := time.Parse(DateLayout, desde)
		if err != nil {
			return nil, nil, fmt.Errorf("fecha desde inválida: %w", err)
		}
		from = &t
	}

	if hasta != "" {
		t, err := time.Parse(DateLayout, hasta)
		if err != nil {
			return nil, nil, fmt.Errorf("fecha hasta inválida: %w", err)
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		to = &endOfDay
	}

	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("la fecha desde es posterior a la fecha hasta")
	}

	return from, to, nil
}
