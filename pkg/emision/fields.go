package emision

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NextPMO returns the PMO label following the last one recorded for a
// project. An empty or unparseable previous value restarts the sequence.
func NextPMO(lastPMO string) string {
	if strings.HasPrefix(lastPMO, "PMO ") {
		if n, err := strconv.Atoi(strings.TrimSpace(lastPMO[4:])); err == nil {
			return fmt.Sprintf("PMO %d", n+1)
		}
	}
	return "PMO 1"
}

// NextVisita computes the visit code for a cuenta. Same document type as the
// previous emission increments the counter ("N2" -> "N3"); a different type
// or no history restarts at 1.
func NextVisita(lastDocumento, lastVisita, documento string) string {
	if lastDocumento == documento && strings.HasPrefix(lastVisita, documento) {
		if n, err := strconv.Atoi(lastVisita[len(documento):]); err == nil {
			return fmt.Sprintf("%s%d", documento, n+1)
		}
	}
	return fmt.Sprintf("%s1", documento)
}

// BarcodePayload builds the scannable payload carried on every document.
func BarcodePayload(cuenta string, fechaEmision time.Time, visita string) string {
	return fmt.Sprintf("*%s*%s*%s*", cuenta, fechaEmision.Format("20060102"), visita)
}

// RenderData builds the flat field map a template binds against: the
// formatted padron/batch values plus the computed emission fields. Promotion
// and rendering must agree on this map, otherwise a row accepted at promote
// time could still fail placeholder binding in the render step.
func RenderData(datos map[string]any, cuenta, documento, pmo, visita string, fechaEmision time.Time, codigoBarras string) map[string]string {
	data := FormatRow(datos)
	data["cuenta"] = cuenta
	data["documento"] = documento
	data["pmo"] = pmo
	data["visita"] = visita
	data["fecha_emision"] = fechaEmision.Format("02/01/2006")
	data["codigo_barras"] = codigoBarras
	return data
}

var moneyKeys = []string{"monto", "importe", "valor", "total"}

// FormatValue renders a padron value for printing: dates as dd/mm/yyyy,
// monetary columns as $#,###.##, everything else as its plain string form.
func FormatValue(key string, value any) string {
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case time.Time:
		return v.Format("02/01/2006")
	case float64:
		if isMoneyKey(key) {
			return formatMoney(v)
		}
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		if isMoneyKey(key) {
			return formatMoney(float64(v))
		}
		return strconv.Itoa(v)
	case int64:
		if isMoneyKey(key) {
			return formatMoney(float64(v))
		}
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatRow applies FormatValue to every entry of a padron row.
func FormatRow(datos map[string]any) map[string]string {
	out := make(map[string]string, len(datos))
	for key, value := range datos {
		out[key] = FormatValue(key, value)
	}
	return out
}

func isMoneyKey(key string) bool {
	lower := strings.ToLower(key)
	for _, mk := range moneyKeys {
		if strings.Contains(lower, mk) {
			return true
		}
	}
	return false
}

func formatMoney(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]

	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s.%s", sign, b.String(), parts[1])
}
