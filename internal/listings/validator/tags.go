package validator

import (
	"reflect"
	"strings"
)

// jsonTagName reports fields under their query parameter name.
func jsonTagName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
