package emision

import (
	"testing"
	"time"
)

func TestNextPMO(t *testing.T) {
	tests := []struct {
		name string
		last string
		want string
	}{
		{"no previous pmo", "", "PMO 1"},
		{"increments previous", "PMO 7", "PMO 8"},
		{"unparseable restarts", "PMO abc", "PMO 1"},
		{"foreign format restarts", "7", "PMO 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextPMO(tt.last); got != tt.want {
				t.Errorf("NextPMO(%q) = %q, want %q", tt.last, got, tt.want)
			}
		})
	}
}

func TestNextVisita(t *testing.T) {
	tests := []struct {
		name          string
		lastDocumento string
		lastVisita    string
		documento     string
		want          string
	}{
		{"first visit", "", "", "N", "N1"},
		{"same document increments", "N", "N2", "N", "N3"},
		{"different document restarts", "N", "N4", "E", "E1"},
		{"corrupt visit restarts", "N", "Nxx", "N", "N1"},
		{"two letter code", "CI", "CI1", "CI", "CI2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextVisita(tt.lastDocumento, tt.lastVisita, tt.documento)
			if got != tt.want {
				t.Errorf("NextVisita(%q, %q, %q) = %q, want %q",
					tt.lastDocumento, tt.lastVisita, tt.documento, got, tt.want)
			}
		})
	}
}

func TestBarcodePayload(t *testing.T) {
	fecha := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	got := BarcodePayload("1001", fecha, "N2")
	want := "*1001*20250314*N2*"
	if got != want {
		t.Errorf("BarcodePayload() = %q, want %q", got, want)
	}
}

func TestFormatValue(t *testing.T) {
	fecha := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		key   string
		value any
		want  string
	}{
		{"nil becomes empty", "nombre", nil, ""},
		{"date formatted", "fecha_alta", fecha, "31/12/2024"},
		{"money key formatted", "monto_adeudado", 1234567.5, "$1,234,567.50"},
		{"money int formatted", "importe", 1000, "$1,000.00"},
		{"negative money", "total", -50.0, "-$50.00"},
		{"plain number", "edad", 42.0, "42"},
		{"plain string", "nombre", "Ana", "Ana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.key, tt.value); got != tt.want {
				t.Errorf("FormatValue(%q, %v) = %q, want %q", tt.key, tt.value, got, tt.want)
			}
		})
	}
}
