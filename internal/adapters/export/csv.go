package export

import (
	"bufio"
	"io"
	"strings"

	perr "namecensus/internal/platform/errors"
)

const bom = "\ufeff"

// WriteCSV writes a bom, the header and every row with all fields quoted
func WriteCSV(w io.Writer, t Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "write csv")
	}
	writeQuoted(bw, t.Columns)
	cells := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		cells = cells[:0]
		for _, v := range row {
			cells = append(cells, cellText(v))
		}
		writeQuoted(bw, cells)
	}
	if err := bw.Flush(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "write csv")
	}
	return nil
}

// writeQuoted emits one record; bufio keeps the first error for Flush
func writeQuoted(bw *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			_ = bw.WriteByte(',')
		}
		_ = bw.WriteByte('"')
		_, _ = bw.WriteString(strings.ReplaceAll(f, `"`, `""`))
		_ = bw.WriteByte('"')
	}
	_, _ = bw.WriteString("\r\n")
}
