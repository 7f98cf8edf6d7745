package emision

import (
	"testing"
)

func TestSanitizeTableName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "padron_completo_abc", "padron_completo_abc"},
		{"special characters", "padron-completo abc", "padron_completo_abc"},
		{"leading digit", "1padron", "t_1padron"},
		{"uppercase lowered", "PadronABC", "padronabc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeTableName(tt.input); got != tt.want {
				t.Errorf("SanitizeTableName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeColumnName(t *testing.T) {
	if got := SanitizeColumnName("Monto Adeudado"); got != "monto_adeudado" {
		t.Errorf("SanitizeColumnName() = %q, want monto_adeudado", got)
	}
	if got := SanitizeColumnName("2024_saldo"); got != "c_2024_saldo" {
		t.Errorf("SanitizeColumnName() = %q, want c_2024_saldo", got)
	}
}

func TestParseTableStructure(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{
			name: "valid descriptor",
			raw:  `{"columnas":[{"nombre":"cuenta","tipo":"VARCHAR(50)","es_obligatorio":true},{"nombre":"monto","tipo":"NUMERIC(12,2)"}]}`,
		},
		{
			name:    "missing cuenta column",
			raw:     `{"columnas":[{"nombre":"nombre","tipo":"TEXT"}]}`,
			wantErr: true,
		},
		{
			name:    "unsupported type",
			raw:     `{"columnas":[{"nombre":"cuenta","tipo":"BLOB"}]}`,
			wantErr: true,
		},
		{
			name:    "duplicate column",
			raw:     `{"columnas":[{"nombre":"cuenta","tipo":"TEXT"},{"nombre":"Cuenta","tipo":"TEXT"}]}`,
			wantErr: true,
		},
		{
			name:    "no columns",
			raw:     `{"columnas":[]}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			raw:     `{"columnas":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTableStructure([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTableStructure() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRow(t *testing.T) {
	ts, err := ParseTableStructure([]byte(`{"columnas":[
		{"nombre":"cuenta","tipo":"VARCHAR(50)","es_obligatorio":true},
		{"nombre":"monto","tipo":"NUMERIC(12,2)"},
		{"nombre":"activo","tipo":"BOOLEAN"}
	]}`))
	if err != nil {
		t.Fatalf("ParseTableStructure() error = %v", err)
	}

	tests := []struct {
		name    string
		datos   map[string]any
		wantErr bool
	}{
		{"valid row", map[string]any{"cuenta": "1001", "monto": 120.5, "activo": true}, false},
		{"missing required", map[string]any{"monto": 10.0}, true},
		{"string numeric accepted", map[string]any{"cuenta": "1001", "monto": "42.10"}, false},
		{"bad numeric", map[string]any{"cuenta": "1001", "monto": "abc"}, true},
		{"bad boolean", map[string]any{"cuenta": "1001", "activo": "quizas"}, true},
		{"undeclared column", map[string]any{"cuenta": "1001", "telefono": "555"}, true},
		{"optional missing ok", map[string]any{"cuenta": "1001"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ts.ValidateRow(tt.datos)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRow() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePlaceholderConfig(t *testing.T) {
	raw := `{"placeholders":[{"campo":"nombre","pagina":1,"x":10,"y":20,"font_size":12}],"barcode_x":400,"barcode_y":700}`

	cfg, err := ParsePlaceholderConfig([]byte(raw))
	if err != nil {
		t.Fatalf("ParsePlaceholderConfig() error = %v", err)
	}

	missing := cfg.MissingFields(map[string]string{"otro": "x"})
	if len(missing) != 1 || missing[0] != "nombre" {
		t.Errorf("MissingFields() = %v, want [nombre]", missing)
	}

	if missing := cfg.MissingFields(map[string]string{"nombre": "Ana"}); missing != nil {
		t.Errorf("MissingFields() = %v, want nil", missing)
	}

	if _, err := ParsePlaceholderConfig([]byte(`{"placeholders":[]}`)); err == nil {
		t.Error("expected error for empty placeholder config")
	}
}
