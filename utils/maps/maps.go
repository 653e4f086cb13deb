package maps

import (
	"vitaai.com/prontuario/utils"
	"fmt"
	"reflect"
)

func decodeStruct(from map[string]interface{}, toPtr interface{}) error {
	value, ok := structElem(toPtr)
	if !ok {
		return fmt.Errorf("%T is not a struct pointer", toPtr)
	}
	return decodeFields(from, value)
}

func decodeFields(from map[string]interface{}, value reflect.Value) error {
	valueType := value.Type()
	for i := 0; i < value.NumField(); i++ {
		key, ok := jsonKey(valueType.Field(i))
		if !ok {
			continue
		}
		raw, ok := from[key]
		if !ok {
			continue
		}
		if err := decodeValue(raw, value.Field(i)); err != nil {
			return fmt.Errorf("got error at field %s: %w", valueType.Field(i).Name, err)
		}
	}
	return nil
}

// decodeValue stores raw into dst. A null leaves dst at its zero value.
func decodeValue(raw interface{}, dst reflect.Value) error {
	if raw == nil {
		return nil
	}
	switch dst.Kind() {
	case reflect.Interface:
		dst.Set(reflect.ValueOf(raw))
	case reflect.Struct:
		inner, ok := raw.(map[string]interface{})
		if !ok {
			return nil
		}
		return decodeFields(inner, dst)
	case reflect.Ptr:
		pointed := reflect.New(dst.Type().Elem())
		if err := decodeValue(raw, pointed.Elem()); err != nil {
			return err
		}
		dst.Set(pointed)
	case reflect.Slice:
		return decodeSlice(raw, dst)
	case reflect.Map:
		return decodeMap(raw, dst)
	default:
		return decodePrimitive(raw, dst)
	}
	return nil
}

func decodePrimitive(raw interface{}, dst reflect.Value) (err error) {
	defer utils.RecoverWithError(&err)
	dst.Set(reflect.ValueOf(raw).Convert(dst.Type()))
	return nil
}

func decodeSlice(raw interface{}, dst reflect.Value) error {
	items, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("expected slice, got %T", raw)
	}
	slice := reflect.MakeSlice(dst.Type(), len(items), len(items))
	for i, item := range items {
		if err := decodeValue(item, slice.Index(i)); err != nil {
			return err
		}
	}
	dst.Set(slice)
	return nil
}

func decodeMap(raw interface{}, dst reflect.Value) error {
	entries, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Errorf("expected map, got %T", raw)
	}
	m := reflect.MakeMapWithSize(dst.Type(), len(entries))
	elemType := dst.Type().Elem()
	for key, entry := range entries {
		elem := reflect.New(elemType).Elem()
		if err := decodeValue(entry, elem); err != nil {
			return err
		}
		m.SetMapIndex(reflect.ValueOf(key).Convert(dst.Type().Key()), elem)
	}
	dst.Set(m)
	return nil
}

func encodeStruct(into map[string]interface{}, fromPtr interface{}) error {
	value, ok := structElem(fromPtr)
	if !ok {
		return fmt.Errorf("%T is not a struct pointer", fromPtr)
	}
	return encodeFields(into, value)
}

// encodeFields writes every tagged field into the object. Keys without a matching
// field are left as they are.
func encodeFields(into map[string]interface{}, value reflect.Value) error {
	valueType := value.Type()
	for i := 0; i < value.NumField(); i++ {
		key, ok := jsonKey(valueType.Field(i))
		if !ok {
			continue
		}
		encoded, err := encodeValue(into[key], value.Field(i))
		if err != nil {
			return fmt.Errorf("got error at field %s: %w", valueType.Field(i).Name, err)
		}
		into[key] = encoded
	}
	return nil
}

// encodeValue converts v to its JSON object form. Nested structs are merged into the
// current object at that key so their unknown keys survive too.
func encodeValue(current interface{}, v reflect.Value) (interface{}, error) {
	switch v.Kind() {
	case reflect.Struct:
		inner, ok := current.(map[string]interface{})
		if current != nil && !ok {
			return nil, fmt.Errorf("expected inner structure to be map, got %T", current)
		}
		if inner == nil {
			inner = map[string]interface{}{}
		}
		if err := encodeFields(inner, v); err != nil {
			return nil, err
		}
		return inner, nil
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return encodeValue(current, v.Elem())
	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		items := make([]interface{}, v.Len())
		for i := 0; i < v.Len(); i++ {
			item, err := encodeValue(nil, v.Index(i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return items, nil
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		entries := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			entry, err := encodeValue(nil, iter.Value())
			if err != nil {
				return nil, err
			}
			entries[iter.Key().String()] = entry
		}
		return entries, nil
	}
	return v.Interface(), nil
}
