// Package catalog loads the period catalog from yaml
package catalog

import (
	"errors"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"

	perr "namecensus/internal/platform/errors"
	"namecensus/internal/services/periods/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// file is the on disk shape
type file struct {
	Periods []domain.Period `yaml:"periods" validate:"required,min=1,dive"`
}

// Catalog is an immutable, ordered set of periods
type Catalog struct {
	order []string
	byKey map[string]domain.Period
}

// Load reads and validates the catalog at path
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, perr.NotFoundf("period catalog %s not found", path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "open period catalog %s", path)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse decodes a catalog document
// unknown fields are rejected so typos in the file surface at boot
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc file
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, perr.InvalidArgf("period catalog is empty")
		}
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "decode period catalog")
	}
	return New(doc.Periods...)
}

// New validates ps and builds a catalog keeping their order
func New(ps ...domain.Period) (*Catalog, error) {
	if err := validate().Struct(file{Periods: ps}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, perr.WithField(perr.InvalidArgf("period catalog: %s failed %s", fe.Namespace(), fe.Tag()), fe.Field())
		}
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "period catalog")
	}

	c := &Catalog{byKey: make(map[string]domain.Period, len(ps))}
	for _, p := range ps {
		p.Key = strings.TrimSpace(p.Key)
		if _, dup := c.byKey[p.Key]; dup {
			return nil, perr.InvalidArgf("period catalog: duplicate key %q", p.Key)
		}
		if err := p.Source.Validate(); err != nil {
			return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "period %s", p.Key), "source")
		}
		c.byKey[p.Key] = p
		c.order = append(c.order, p.Key)
	}
	return c, nil
}

// Get returns the period for key
func (c *Catalog) Get(key string) (domain.Period, error) {
	p, ok := c.byKey[strings.TrimSpace(key)]
	if !ok {
		return domain.Period{}, perr.NotFoundf("unknown period %q", key)
	}
	return p, nil
}

// List returns the periods in file order
func (c *Catalog) List() []domain.Period {
	out := make([]domain.Period, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.byKey[k])
	}
	return out
}

// Keys returns the period keys in file order
func (c *Catalog) Keys() []string { return slices.Clone(c.order) }

func validate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("yaml")
		if tag == "-" || tag == "" {
			return fld.Name
		}
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		return tag
	})
	return v
}
