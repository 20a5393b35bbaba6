package tableau

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/javajack/tabreport"
)

// DecodeCSV parses a Tableau CSV export into a Table. The first record is
// the header; every value stays a string, trimmed of surrounding space.
// Tableau prepends a UTF-8 BOM, which is stripped.
func DecodeCSV(data []byte) (*tabreport.Table, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // tolerate ragged rows, validated below

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("tableau: csv export is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("tableau: read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	t := &tabreport.Table{Columns: columns}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tableau: read csv line %d: %w", line, err)
		}
		if len(rec) != len(columns) {
			return nil, fmt.Errorf("tableau: csv line %d has %d fields, want %d", line, len(rec), len(columns))
		}
		row := make(tabreport.Row, len(columns))
		for i, v := range rec {
			row[columns[i]] = strings.TrimSpace(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
