package htmlsanitize

import (
	"reflect"
)

// TagName is the struct tag read by Fields.
const TagName = "sanitize"

// Fields sanitizes the tagged string fields of the struct ptr points to, in
// place. A field tagged `sanitize:"rich"` is passed through Rich, and so on.
// []string fields are sanitized element by element; nested structs and
// pointers to structs are walked. Untagged fields are left alone.
func Fields(ptr any) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return
	}
	walk(v.Elem())
}

func walk(v reflect.Value) {
	if v.Kind() != reflect.Struct {
		return
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := v.Field(i)
		level, tagged := sf.Tag.Lookup(TagName)

		switch fv.Kind() {
		case reflect.String:
			if tagged && level != "-" {
				fv.SetString(Apply(Level(level), fv.String()))
			}
		case reflect.Slice:
			if tagged && level != "-" && fv.Type().Elem().Kind() == reflect.String {
				for j := 0; j < fv.Len(); j++ {
					fv.Index(j).SetString(Apply(Level(level), fv.Index(j).String()))
				}
			} else if fv.Type().Elem().Kind() == reflect.Struct {
				for j := 0; j < fv.Len(); j++ {
					walk(fv.Index(j))
				}
			}
		case reflect.Struct:
			walk(fv)
		case reflect.Pointer:
			if !fv.IsNil() && fv.Elem().Kind() == reflect.Struct {
				walk(fv.Elem())
			}
		}
	}
}
