package emision

import (
	"slices"
	"testing"
)

func TestMissingFields(t *testing.T) {
	cfg := &PlaceholderConfig{
		Placeholders: []PlaceholderBinding{
			{Campo: "nombre", Pagina: 1},
			{Campo: "direccion", Pagina: 1},
			{Campo: "monto_adeudo", Pagina: 2},
		},
	}

	data := map[string]string{
		"nombre":       "Juan Pérez",
		"monto_adeudo": "$1,250.00",
	}

	missing := cfg.MissingFields(data)
	if len(missing) != 1 || missing[0] != "direccion" {
		t.Errorf("MissingFields() = %v, want [direccion]", missing)
	}

	data["direccion"] = "Av. Centro 12"
	if missing := cfg.MissingFields(data); len(missing) != 0 {
		t.Errorf("MissingFields() = %v, want none", missing)
	}
}

func TestMissingFieldsIgnoresExtraData(t *testing.T) {
	cfg := &PlaceholderConfig{
		Placeholders: []PlaceholderBinding{{Campo: "cuenta", Pagina: 1}},
	}

	data := map[string]string{"cuenta": "A-001", "visita": "N1", "pmo": "PMO 3"}
	if missing := cfg.MissingFields(data); !slices.Equal(missing, nil) {
		t.Errorf("MissingFields() = %v, want none", missing)
	}
}
