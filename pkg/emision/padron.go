package emision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// TableStructure is a project's padron column descriptor. It is the single
// source of truth used to validate incoming padron rows.
type TableStructure struct {
	Columnas []ColumnSpec `json:"columnas"`
}

type ColumnSpec struct {
	Nombre        string `json:"nombre"`
	Tipo          string `json:"tipo"`
	EsObligatorio bool   `json:"es_obligatorio"`
	EsUnico       bool   `json:"es_unico"`
}

var (
	identifierRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	typeRe       = regexp.MustCompile(`^(VARCHAR\(\d+\)|TEXT|INTEGER|BIGINT|NUMERIC(\(\d+,\d+\))?|DATE|TIMESTAMP|BOOLEAN)$`)
)

// SanitizeTableName normalizes a padron table name: lowercase, [a-z0-9_]
// only, no leading digit, 63 characters max.
func SanitizeTableName(name string) string {
	sanitized := identifierRe.ReplaceAllString(name, "_")
	if sanitized == "" {
		return sanitized
	}
	if sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "t_" + sanitized
	}
	if len(sanitized) > 63 {
		sanitized = sanitized[:63]
	}
	return strings.ToLower(sanitized)
}

// SanitizeColumnName applies the same identifier rules to a column name.
func SanitizeColumnName(name string) string {
	sanitized := identifierRe.ReplaceAllString(name, "_")
	if sanitized == "" {
		return sanitized
	}
	if sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "c_" + sanitized
	}
	return strings.ToLower(sanitized)
}

// PadronTableName derives the logical padron table name from a project
// identifier fragment, e.g. "padron_completo_3fa85f64".
func PadronTableName(idFragment string) string {
	return SanitizeTableName(fmt.Sprintf("padron_completo_%s", idFragment))
}

// ParseTableStructure decodes and validates a structure descriptor. Every
// column needs a sane identifier and a supported type, and the descriptor
// must declare a cuenta column since the pipeline joins batches on it.
func ParseTableStructure(raw []byte) (*TableStructure, error) {
	var ts TableStructure
	if err := json.Unmarshal(raw, &ts); err != nil {
		return nil, fmt.Errorf("malformed structure descriptor: %w", err)
	}

	if len(ts.Columnas) == 0 {
		return nil, fmt.Errorf("structure descriptor declares no columns")
	}

	seen := make(map[string]bool)
	hasCuenta := false
	for i, col := range ts.Columnas {
		name := SanitizeColumnName(col.Nombre)
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column name: %s", name)
		}
		seen[name] = true

		if !typeRe.MatchString(strings.ToUpper(strings.TrimSpace(col.Tipo))) {
			return nil, fmt.Errorf("column %s has unsupported type: %s", name, col.Tipo)
		}

		ts.Columnas[i].Nombre = name
		ts.Columnas[i].Tipo = strings.ToUpper(strings.TrimSpace(col.Tipo))

		if name == "cuenta" {
			hasCuenta = true
		}
	}

	if !hasCuenta {
		return nil, fmt.Errorf("structure descriptor must declare a cuenta column")
	}

	return &ts, nil
}

// ValidateRow checks one padron data row against the descriptor: required
// columns present and non-empty, numeric/boolean values parseable, no columns
// outside the declared set.
func (ts *TableStructure) ValidateRow(datos map[string]any) error {
	specs := make(map[string]ColumnSpec, len(ts.Columnas))
	for _, col := range ts.Columnas {
		specs[col.Nombre] = col
	}

	for key := range datos {
		if _, ok := specs[SanitizeColumnName(key)]; !ok {
			return fmt.Errorf("column %s is not declared in the padron structure", key)
		}
	}

	for _, col := range ts.Columnas {
		value, present := datos[col.Nombre]
		if !present || value == nil || fmt.Sprintf("%v", value) == "" {
			if col.EsObligatorio {
				return fmt.Errorf("required column %s is missing", col.Nombre)
			}
			continue
		}

		if err := checkValueType(col, value); err != nil {
			return err
		}
	}

	return nil
}

func checkValueType(col ColumnSpec, value any) error {
	typ := col.Tipo
	switch {
	case strings.HasPrefix(typ, "INTEGER"), strings.HasPrefix(typ, "BIGINT"):
		switch v := value.(type) {
		case float64, int, int64:
			return nil
		case string:
			if _, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err != nil {
				return fmt.Errorf("column %s expects an integer, got %q", col.Nombre, v)
			}
		default:
			return fmt.Errorf("column %s expects an integer, got %T", col.Nombre, value)
		}
	case strings.HasPrefix(typ, "NUMERIC"):
		switch v := value.(type) {
		case float64, int, int64:
			return nil
		case string:
			if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
				return fmt.Errorf("column %s expects a number, got %q", col.Nombre, v)
			}
		default:
			return fmt.Errorf("column %s expects a number, got %T", col.Nombre, value)
		}
	case typ == "BOOLEAN":
		switch v := value.(type) {
		case bool:
			return nil
		case string:
			if _, err := strconv.ParseBool(strings.TrimSpace(v)); err != nil {
				return fmt.Errorf("column %s expects a boolean, got %q", col.Nombre, v)
			}
		default:
			return fmt.Errorf("column %s expects a boolean, got %T", col.Nombre, value)
		}
	}
	// VARCHAR/TEXT/DATE/TIMESTAMP accept any scalar representation
	return nil
}
