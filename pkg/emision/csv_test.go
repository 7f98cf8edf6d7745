package emision

import (
	"strings"
	"testing"
)

func TestParseBatchCSV(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		want    int
		wantErr bool
	}{
		{
			name: "valid batch with extras",
			csv:  "cuenta,orden_impresion,zona\n1001,1,Norte\n1002,2,Sur\n",
			want: 2,
		},
		{
			name:    "missing cuenta column",
			csv:     "account,orden_impresion\n1001,1\n",
			wantErr: true,
		},
		{
			name:    "missing orden column",
			csv:     "cuenta,orden\n1001,1\n",
			wantErr: true,
		},
		{
			name:    "duplicate print order",
			csv:     "cuenta,orden_impresion\n1001,1\n1002,1\n",
			wantErr: true,
		},
		{
			name:    "non numeric orden",
			csv:     "cuenta,orden_impresion\n1001,abc\n",
			wantErr: true,
		},
		{
			name:    "empty cuenta",
			csv:     "cuenta,orden_impresion\n ,1\n",
			wantErr: true,
		},
		{
			name:    "header only",
			csv:     "cuenta,orden_impresion\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ReadCSV(strings.NewReader(tt.csv))
			if err != nil {
				t.Fatalf("ReadCSV() error = %v", err)
			}

			rows, err := ParseBatchCSV(records)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBatchCSV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(rows) != tt.want {
				t.Errorf("ParseBatchCSV() got %d rows, want %d", len(rows), tt.want)
			}
		})
	}
}

func TestParseBatchCSVExtras(t *testing.T) {
	csvData := "cuenta,orden_impresion,zona,observacion\n1001,5,Norte,\n"

	records, err := ReadCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	rows, err := ParseBatchCSV(records)
	if err != nil {
		t.Fatalf("ParseBatchCSV() error = %v", err)
	}

	row := rows[0]
	if row.Cuenta != "1001" || row.OrdenImpresion != 5 {
		t.Errorf("got cuenta=%s orden=%d, want 1001/5", row.Cuenta, row.OrdenImpresion)
	}
	if row.Extras["zona"] != "Norte" {
		t.Errorf("expected zona extra to be carried, got %v", row.Extras)
	}
	if _, ok := row.Extras["observacion"]; ok {
		t.Error("empty extra values should be dropped")
	}
}

func TestSortByPrintOrder(t *testing.T) {
	rows := []BatchRecord{
		{Cuenta: "c3", OrdenImpresion: 3},
		{Cuenta: "c1", OrdenImpresion: 1},
		{Cuenta: "c2", OrdenImpresion: 2},
	}

	SortByPrintOrder(rows)

	for i, want := range []int{1, 2, 3} {
		if rows[i].OrdenImpresion != want {
			t.Fatalf("position %d has orden %d, want %d", i, rows[i].OrdenImpresion, want)
		}
	}
}
