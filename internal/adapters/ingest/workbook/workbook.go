// Package workbook reads period rows from local xlsx and csv files
package workbook

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"namecensus/internal/adapters/ingest"
	perr "namecensus/internal/platform/errors"

	"github.com/xuri/excelize/v2"
)

// Reader implements ingest.Fetcher for workbook refs
type Reader struct {
	// Root resolves relative paths; empty means the working directory
	Root string
}

// Fetch implements ingest.Fetcher
func (r Reader) Fetch(ctx context.Context, ref ingest.Ref) ([][]string, error) {
	if ref.Kind != ingest.KindWorkbook {
		return nil, perr.InvalidArgf("workbook reader cannot read %s sources", ref.Kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := ref.Path
	if r.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.Root, path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(path, ref.Sheet)
	case ".csv":
		return ReadCSV(path)
	default:
		return nil, perr.InvalidArgf("unsupported workbook extension %q", filepath.Ext(path))
	}
}

// ReadXLSX returns the rows of sheet, or of the first sheet when sheet is empty
func ReadXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, openErr(err, path)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, perr.InvalidArgf("workbook %s has no sheets", path)
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "read sheet %q of %s", sheet, path)
	}
	return rows, nil
}

// ReadCSV returns every record of a comma separated file; ragged rows are allowed
func ReadCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, openErr(err, path)
	}
	defer func() { _ = f.Close() }()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "parse csv")
	}
	return rows, nil
}

func openErr(err error, path string) error {
	if errors.Is(err, os.ErrNotExist) {
		return perr.Wrapf(err, perr.ErrorCodeNotFound, "workbook %s not found", path)
	}
	return perr.Wrapf(err, perr.ErrorCodeUnavailable, "open workbook %s", path)
}

// skipBOM drops a leading utf-8 byte order mark
func skipBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
