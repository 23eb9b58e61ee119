package bind

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	perr "namecensus/internal/platform/errors"
)

// ParseQuery fills T from the request query string and validates it
// fields opt in with a `query:"name"` tag; string, bool, int and float kinds are supported
// a `default:"v"` tag is applied when the parameter is absent
func ParseQuery[T any](r *http.Request) (T, error) {
	var zero, dst T

	rv := reflect.ValueOf(&dst).Elem()
	if rv.Kind() != reflect.Struct {
		return zero, perr.Newf(perr.ErrorCodeUnknown, "bind: query target must be a struct, got %s", rv.Kind())
	}
	q := r.URL.Query()
	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		name := sf.Tag.Get("query")
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}
		raw, ok := strings.TrimSpace(q.Get(name)), q.Has(name)
		if !ok || raw == "" {
			def, hasDef := sf.Tag.Lookup("default")
			if !hasDef {
				continue
			}
			raw = def
		}
		if err := setField(rv.Field(i), raw); err != nil {
			return zero, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s must be a valid %s", name, sf.Type.Kind()), name)
		}
	}

	if err := Struct(dst); err != nil {
		return zero, err
	}
	return dst, nil
}

func setField(v reflect.Value, raw string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return perr.Newf(perr.ErrorCodeUnknown, "bind: unsupported query kind %s", v.Kind())
	}
	return nil
}
