package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	perr "namecensus/internal/platform/errors"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName   = "Report"
	maxCellText = 150
	maxHeader   = 20
	headerRow   = 4
)

// WriteXLSX renders a landscape A4 print layout with a repeated header row
// rows past o.PrintRowLimit are dropped and a note records the cut
func WriteXLSX(w io.Writer, t Table, o Options) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return xerr(err)
	}

	rows := t.Rows
	truncated := false
	if o.PrintRowLimit > 0 && len(rows) > o.PrintRowLimit {
		rows, truncated = rows[:o.PrintRowLimit], true
	}

	_ = f.SetCellValue(sheetName, "A1", t.Title)
	_ = f.SetCellValue(sheetName, "A2", "Generated: "+o.Now().Format("2006-01-02 15:04:05"))
	if truncated {
		_ = f.SetCellValue(sheetName, "A3",
			fmt.Sprintf("Showing first %d of %d rows", o.PrintRowLimit, len(t.Rows)))
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = clip(c, maxHeader)
	}
	if err := f.SetSheetRow(sheetName, cell(1, headerRow), &header); err != nil {
		return xerr(err)
	}
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = clip(cellText(v), maxCellText)
		}
		if err := f.SetSheetRow(sheetName, cell(1, headerRow+1+i), &vals); err != nil {
			return xerr(err)
		}
	}

	if err := style(f, len(t.Columns), len(rows)); err != nil {
		return xerr(err)
	}
	if err := layout(f, len(t.Columns)); err != nil {
		return xerr(err)
	}
	if err := f.Write(w); err != nil {
		return xerr(err)
	}
	return nil
}

func style(f *excelize.File, cols, rows int) error {
	if cols == 0 {
		return nil
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "A1", title); err != nil {
		return err
	}

	border := []excelize.Border{
		{Type: "left", Color: "808080", Style: 1},
		{Type: "right", Color: "808080", Style: 1},
		{Type: "top", Color: "808080", Style: 1},
		{Type: "bottom", Color: "808080", Style: 1},
	}
	head, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Color: "F5F5F5", Size: 9},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"404040"}, Pattern: 1},
		Border: border,
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, cell(1, headerRow), cell(cols, headerRow), head); err != nil {
		return err
	}

	body, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 8},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    border,
	})
	if err != nil {
		return err
	}
	if rows > 0 {
		if err := f.SetCellStyle(sheetName, cell(1, headerRow+1), cell(cols, headerRow+rows), body); err != nil {
			return err
		}
	}

	last, _ := excelize.ColumnNumberToName(cols)
	return f.SetColWidth(sheetName, "A", last, 18)
}

func layout(f *excelize.File, cols int) error {
	landscape := "landscape"
	size := 9 // A4
	fitWidth, fitHeight := 1, 0
	if err := f.SetPageLayout(sheetName, &excelize.PageLayoutOptions{
		Size:        &size,
		Orientation: &landscape,
		FitToWidth:  &fitWidth,
		FitToHeight: &fitHeight,
	}); err != nil {
		return err
	}
	margin := 0.2
	if err := f.SetPageMargins(sheetName, &excelize.PageLayoutMarginsOptions{
		Left: &margin, Right: &margin, Top: &margin, Bottom: &margin,
	}); err != nil {
		return err
	}
	if cols == 0 {
		return nil
	}
	// repeat the header row on every printed page
	return f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Titles",
		RefersTo: fmt.Sprintf("'%s'!$%d:$%d", sheetName, headerRow, headerRow),
		Scope:    sheetName,
	})
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

func xerr(err error) error { return perr.Wrap(err, perr.ErrorCodeUnknown, "render xlsx") }
