package maps

import (
	"vitaai.com/prontuario/utils"
	"encoding/json"
	"reflect"
)

// PartialDocument is a struct view over a JSON object. Only tagged fields are typed;
// the full object is kept alongside so keys the struct does not know are written
// back untouched.
type PartialDocument interface {
	getRaw() map[string]interface{}
	setRaw(map[string]interface{})
	MarshalJSON() ([]byte, error)
}

type BaseDocument struct {
	rawMap map[string]interface{}
}

func (doc *BaseDocument) getRaw() map[string]interface{} {
	if doc.rawMap == nil {
		doc.rawMap = map[string]interface{}{}
	}
	return doc.rawMap
}

func (doc *BaseDocument) setRaw(raw map[string]interface{}) {
	doc.rawMap = raw
}

func (doc *BaseDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(doc.getRaw())
}

// Extra returns a key of the underlying object, typed or not.
func (doc *BaseDocument) Extra(key string) (interface{}, bool) {
	value, ok := doc.getRaw()[key]
	return value, ok
}

// FillFromMap decodes the tagged fields of doc from raw and keeps raw as its backing
// object.
func FillFromMap(doc PartialDocument, raw map[string]interface{}) error {
	if raw == nil {
		raw = map[string]interface{}{}
	}
	if err := decodeStruct(raw, doc); err != nil {
		return err
	}
	doc.setRaw(raw)
	return nil
}

// Sync writes the typed fields of doc into its backing object.
func Sync(doc PartialDocument) error {
	return encodeStruct(doc.getRaw(), doc)
}

// CopyValues fills to with the fields both documents share. The backing object of to
// only holds what to declares.
func CopyValues(from PartialDocument, to PartialDocument) error {
	if err := decodeStruct(from.getRaw(), to); err != nil {
		return err
	}
	projected := map[string]interface{}{}
	if err := encodeStruct(projected, to); err != nil {
		return err
	}
	to.setRaw(projected)
	return nil
}

// ApplyUpdates calls updateFunc, a func(*T) where doc is a *T, and syncs the result
// into the backing object.
func ApplyUpdates(doc PartialDocument, updateFunc interface{}) (err error) {
	if updateFunc == nil {
		return nil
	}
	defer utils.RecoverWithError(&err)
	reflect.ValueOf(updateFunc).Call([]reflect.Value{reflect.ValueOf(doc)})
	return Sync(doc)
}
