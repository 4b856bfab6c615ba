package bind

import (
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	perr "mdms/internal/platform/errors"
)

// dateLayouts are tried in order for time.Time query fields
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

var timeType = reflect.TypeOf(time.Time{})

// ParseQuery fills T from URL query values using `query:"name"` tags then validates it
// supported field kinds are string, ints, floats, bool, time.Time and pointers to those
func ParseQuery[T any](r *http.Request) (T, error) {
	var dst T
	rv := reflect.ValueOf(&dst).Elem()
	if rv.Kind() != reflect.Struct {
		return dst, perr.Internalf("bind: ParseQuery wants a struct, got %s", rv.Kind())
	}
	if err := fillQuery(rv, r.URL.Query()); err != nil {
		var zero T
		return zero, err
	}
	if err := Validate(dst); err != nil {
		var zero T
		return zero, err
	}
	return dst, nil
}

func fillQuery(rv reflect.Value, vals url.Values) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := f.Tag.Get("query")
		if name == "" || name == "-" {
			continue
		}
		raw := strings.TrimSpace(vals.Get(name))
		if raw == "" {
			continue
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Pointer {
			ptr := reflect.New(fv.Type().Elem())
			if err := setScalar(ptr.Elem(), raw); err != nil {
				return perr.WithField(perr.Validationf("%s: %v", name, err), name)
			}
			fv.Set(ptr)
			continue
		}
		if err := setScalar(fv, raw); err != nil {
			return perr.WithField(perr.Validationf("%s: %v", name, err), name)
		}
	}
	return nil
}

func setScalar(v reflect.Value, raw string) error {
	if v.Type() == timeType {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				v.Set(reflect.ValueOf(t.UTC()))
				return nil
			}
		}
		return perr.Validationf("invalid timestamp %q", raw)
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return perr.Validationf("invalid integer %q", raw)
		}
		v.SetInt(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, v.Type().Bits())
		if err != nil {
			return perr.Validationf("invalid number %q", raw)
		}
		v.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return perr.Validationf("invalid bool %q", raw)
		}
		v.SetBool(b)
	default:
		return perr.Internalf("bind: unsupported query field kind %s", v.Kind())
	}
	return nil
}
