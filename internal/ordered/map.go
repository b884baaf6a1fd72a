package ordered

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

const (
	invalidJSONMessageConstant       = "invalid JSON document"
	nonObjectTemplateConstant        = "expected JSON object, found %s"
	entryDecodeErrorTemplateConstant = "unable to decode entry %q: %w"
	entryEncodeErrorTemplateConstant = "unable to encode entry %q: %w"
	jsonNullLiteralConstant          = "null"
	jsonObjectOpenDelimiterConstant  = '{'
	jsonObjectCloseDelimiterConstant = '}'
	jsonEntrySeparatorConstant       = ','
	jsonKeyValueSeparatorConstant    = ':'
)

// ErrInvalidJSON indicates that the input could not be parsed as JSON at all.
var ErrInvalidJSON = errors.New(invalidJSONMessageConstant)

type entry[V any] struct {
	key   string
	value V
}

// Map is a string-keyed map that remembers the order in which keys were first inserted.
// Setting an existing key replaces its value and keeps its original position.
// The zero value is an empty map ready to use.
type Map[V any] struct {
	entries []entry[V]
	index   map[string]int
}

// Set stores value under key.
func (orderedMap *Map[V]) Set(key string, value V) {
	if orderedMap.index == nil {
		orderedMap.index = make(map[string]int)
	}
	if position, exists := orderedMap.index[key]; exists {
		orderedMap.entries[position].value = value
		return
	}
	orderedMap.index[key] = len(orderedMap.entries)
	orderedMap.entries = append(orderedMap.entries, entry[V]{key: key, value: value})
}

// Get returns the value stored under key.
func (orderedMap Map[V]) Get(key string) (V, bool) {
	position, exists := orderedMap.index[key]
	if !exists {
		var zeroValue V
		return zeroValue, false
	}
	return orderedMap.entries[position].value, true
}

// Len reports the number of keys.
func (orderedMap Map[V]) Len() int {
	return len(orderedMap.entries)
}

// Keys returns the keys in insertion order.
func (orderedMap Map[V]) Keys() []string {
	keys := make([]string, 0, len(orderedMap.entries))
	for _, storedEntry := range orderedMap.entries {
		keys = append(keys, storedEntry.key)
	}
	return keys
}

// Values returns the values in key insertion order.
func (orderedMap Map[V]) Values() []V {
	values := make([]V, 0, len(orderedMap.entries))
	for _, storedEntry := range orderedMap.entries {
		values = append(values, storedEntry.value)
	}
	return values
}

// Each visits every entry in insertion order until visitor returns false.
func (orderedMap Map[V]) Each(visitor func(key string, value V) bool) {
	for _, storedEntry := range orderedMap.entries {
		if !visitor(storedEntry.key, storedEntry.value) {
			return
		}
	}
}

// Merge copies every entry of source into the map, overwriting values of existing keys.
func (orderedMap *Map[V]) Merge(source Map[V]) {
	source.Each(func(key string, value V) bool {
		orderedMap.Set(key, value)
		return true
	})
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (orderedMap Map[V]) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte(jsonObjectOpenDelimiterConstant)
	for entryIndex, storedEntry := range orderedMap.entries {
		if entryIndex > 0 {
			buffer.WriteByte(jsonEntrySeparatorConstant)
		}
		encodedKey, keyError := encodeWithoutHTMLEscaping(storedEntry.key)
		if keyError != nil {
			return nil, fmt.Errorf(entryEncodeErrorTemplateConstant, storedEntry.key, keyError)
		}
		encodedValue, valueError := encodeWithoutHTMLEscaping(storedEntry.value)
		if valueError != nil {
			return nil, fmt.Errorf(entryEncodeErrorTemplateConstant, storedEntry.key, valueError)
		}
		buffer.Write(encodedKey)
		buffer.WriteByte(jsonKeyValueSeparatorConstant)
		buffer.Write(encodedValue)
	}
	buffer.WriteByte(jsonObjectCloseDelimiterConstant)
	return buffer.Bytes(), nil
}

func encodeWithoutHTMLEscaping(value any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	if encodeError := encoder.Encode(value); encodeError != nil {
		return nil, encodeError
	}
	return bytes.TrimRight(buffer.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a JSON object preserving its key order. A JSON null yields an empty map.
func (orderedMap *Map[V]) UnmarshalJSON(data []byte) error {
	decoded, decodeError := FromJSON[V](gjson.ParseBytes(data), data)
	if decodeError != nil {
		return decodeError
	}
	*orderedMap = decoded
	return nil
}

// FromJSON decodes the object held by result in document order. raw is only used for validation
// and may be nil when result was obtained from an already validated document.
func FromJSON[V any](result gjson.Result, raw []byte) (Map[V], error) {
	if raw != nil && !gjson.ValidBytes(raw) {
		return Map[V]{}, ErrInvalidJSON
	}
	if !result.Exists() || result.Type == gjson.Null {
		return Map[V]{}, nil
	}
	if !result.IsObject() {
		return Map[V]{}, fmt.Errorf(nonObjectTemplateConstant, DescribeType(result))
	}

	decoded := Map[V]{}
	var entryError error
	result.ForEach(func(key gjson.Result, value gjson.Result) bool {
		var decodedValue V
		if unmarshalError := json.Unmarshal([]byte(value.Raw), &decodedValue); unmarshalError != nil {
			entryError = fmt.Errorf(entryDecodeErrorTemplateConstant, key.String(), unmarshalError)
			return false
		}
		decoded.Set(key.String(), decodedValue)
		return true
	})
	if entryError != nil {
		return Map[V]{}, entryError
	}
	return decoded, nil
}

// DescribeType names the JSON type of result for diagnostics.
func DescribeType(result gjson.Result) string {
	switch {
	case !result.Exists():
		return "nothing"
	case result.IsObject():
		return "object"
	case result.IsArray():
		return "array"
	case result.Type == gjson.String:
		return "string"
	case result.Type == gjson.Number:
		return "number"
	case result.IsBool():
		return "boolean"
	case result.Raw == jsonNullLiteralConstant:
		return jsonNullLiteralConstant
	default:
		return "value"
	}
}
