// Package cleaning classifies raw sheet rows as included or excluded records
package cleaning

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"namecensus/internal/core/records"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// column order of a raw row
const (
	colName = iota
	colDay
	colMonth
	colYear
	numCols
)

// MinYear is the oldest accepted birth year
const MinYear = 1940

var namePattern = regexp.MustCompile(`^[A-Za-z\s]+$`)

// row carries trimmed cell text; fields are checked in declaration order
// and each field reports only its first failing rule
type row struct {
	Name  string `validate:"required,min=3,alphaspace"`
	Day   string `validate:"required,wholenum,day"`
	Month string `validate:"required,wholenum,month"`
	Year  string `validate:"required,wholenum,minyear"`
}

// reasons maps field and tag to the stored exclusion text
var reasons = map[string]map[string]string{
	"Name": {
		"required":   "missing name",
		"min":        "name too short",
		"alphaspace": "special character in name",
	},
	"Day": {
		"required": "missing birth_day",
		"wholenum": "invalid birth_day (not numeric)",
		"day":      "invalid day (not 1-31)",
	},
	"Month": {
		"required": "missing birth_month",
		"wholenum": "invalid birth_month (not numeric)",
		"month":    "invalid month (not 1-12)",
	},
	"Year": {
		"required": "missing birth_year",
		"wholenum": "invalid birth_year (not numeric)",
		"minyear":  "birth_year older than 1940",
	},
}

// ReasonSep joins multiple exclusion reasons
const ReasonSep = "; "

// Cleaner validates rows; it is safe for concurrent use
type Cleaner struct {
	v     *validator.Validate
	newID func() string
}

// Option configures a Cleaner
type Option func(*Cleaner)

// WithIDFunc overrides record id generation
func WithIDFunc(fn func() string) Option {
	return func(c *Cleaner) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// New builds a Cleaner with its own validator
func New(opts ...Option) *Cleaner {
	v := validator.New()
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		return namePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("wholenum", func(fl validator.FieldLevel) bool {
		_, ok := ParseWhole(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("day", inRange(1, 31))
	_ = v.RegisterValidation("month", inRange(1, 12))
	_ = v.RegisterValidation("minyear", inRange(MinYear, math.MaxInt))

	c := &Cleaner{v: v, newID: uuid.NewString}
	for _, o := range opts {
		o(c)
	}
	return c
}

func inRange(lo, hi int) validator.Func {
	return func(fl validator.FieldLevel) bool {
		n, ok := ParseWhole(fl.Field().String())
		return ok && n >= lo && n <= hi
	}
}

// ParseWhole reads a decimal number and truncates it toward zero
// "7", " 7.9 " and "7e0" all yield 7
func ParseWhole(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0, false
	}
	return int(f), true
}

// Clean validates one raw row; position is its 1 based index after the header
// short rows are padded with empty cells
func (c *Cleaner) Clean(position int, cells []string) records.Record {
	var raw [numCols]string
	copy(raw[:], cells)

	in := row{
		Name:  strings.TrimSpace(raw[colName]),
		Day:   strings.TrimSpace(raw[colDay]),
		Month: strings.TrimSpace(raw[colMonth]),
		Year:  strings.TrimSpace(raw[colYear]),
	}
	r := records.Record{
		ID:       c.newID(),
		Position: position,
		Name:     in.Name,
	}

	if msgs := c.check(in); len(msgs) > 0 {
		r.Status = records.StatusExcluded
		r.Reason = strings.Join(msgs, ReasonSep)
		r.Day, r.Month, r.Year = raw[colDay], raw[colMonth], raw[colYear]
		return r
	}

	r.Status = records.StatusIncluded
	r.Day = canonical(in.Day)
	r.Month = canonical(in.Month)
	r.Year = canonical(in.Year)
	return r
}

func (c *Cleaner) check(in row) []string {
	err := c.v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if msg, ok := reasons[fe.StructField()][fe.Tag()]; ok {
			out = append(out, msg)
			continue
		}
		out = append(out, "invalid "+strings.ToLower(fe.StructField()))
	}
	return out
}

func canonical(s string) string {
	n, _ := ParseWhole(s)
	return strconv.Itoa(n)
}

// Stats counts the outcome of a batch
type Stats struct {
	Total    int `json:"total_rows"`
	Included int `json:"included_count"`
	Excluded int `json:"excluded_count"`
}

// Add folds o into s
func (s *Stats) Add(o Stats) {
	s.Total += o.Total
	s.Included += o.Included
	s.Excluded += o.Excluded
}

// CleanRows validates a batch whose first row sits at position first
func (c *Cleaner) CleanRows(first int, rows [][]string) ([]records.Record, Stats) {
	out := make([]records.Record, 0, len(rows))
	var st Stats
	for i, cells := range rows {
		r := c.Clean(first+i, cells)
		if r.Status == records.StatusIncluded {
			st.Included++
		} else {
			st.Excluded++
		}
		out = append(out, r)
	}
	st.Total = len(rows)
	return out, st
}
