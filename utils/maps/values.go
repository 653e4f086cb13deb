package maps

import (
	"reflect"
	"strings"
)

// jsonKey returns the object key of a struct field, skipping untagged and "-" fields.
func jsonKey(field reflect.StructField) (string, bool) {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return "", false
	}
	name := strings.Split(tag, ",")[0]
	if name == "" || name == "-" {
		return "", false
	}
	return name, true
}

func structElem(v interface{}) (reflect.Value, bool) {
	value := reflect.ValueOf(v)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return reflect.Value{}, false
	}
	value = value.Elem()
	return value, value.Kind() == reflect.Struct
}
