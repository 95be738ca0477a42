// Package table holds the ordered row model shared by the shaper, the CSV
// exporter and the views.
//
// A Row keeps its fields in JavaScript object enumeration order: keys that are
// canonical array indexes come first in ascending numeric order, every other key
// follows in document order. Values stay as raw JSON so numbers and nested
// documents survive untouched until they are rendered.
package table

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
)

type Field struct {
	Key   string
	Value gjson.Result
}

type Row []Field

// FromObject converts a JSON object into a Row. Duplicate keys keep the position
// of their first occurrence and the value of their last one.
func FromObject(obj gjson.Result) Row {
	if !obj.IsObject() {
		return nil
	}
	var (
		row   Row
		index = make(map[string]int)
	)
	obj.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if i, ok := index[k]; ok {
			row[i].Value = value
			return true
		}
		index[k] = len(row)
		row = append(row, Field{Key: k, Value: value})
		return true
	})
	sortIndexKeys(row)
	return row
}

// Item wraps a single value as the row {"Item": value}.
func Item(value gjson.Result) Row {
	return Row{{Key: "Item", Value: value}}
}

// sortIndexKeys moves array-index keys to the front in numeric order while keeping
// the relative order of all other keys.
func sortIndexKeys(row Row) {
	sort.SliceStable(row, func(i, j int) bool {
		ni, iok := arrayIndex(row[i].Key)
		nj, jok := arrayIndex(row[j].Key)
		switch {
		case iok && jok:
			return ni < nj
		case iok:
			return true
		default:
			return false
		}
	})
}

func arrayIndex(key string) (uint64, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return n, true
}

func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the value stored under key and whether it exists.
func (r Row) Get(key string) (gjson.Result, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return gjson.Result{}, false
}

// MarshalJSON writes the row as a compact JSON object in field order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	r.appendJSON(&buf)
	return buf.Bytes(), nil
}

func (r Row) appendJSON(buf *bytes.Buffer) {
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		appendString(buf, f.Key)
		buf.WriteByte(':')
		appendValue(buf, f.Value)
	}
	buf.WriteByte('}')
}

// Compact re-serializes a value the way JSON.stringify would after JSON.parse:
// numbers in their shortest form, duplicate object keys collapsed to the last
// value and object keys in enumeration order. A missing value is "null".
func Compact(v gjson.Result) []byte {
	var buf bytes.Buffer
	appendValue(&buf, v)
	return buf.Bytes()
}

func appendValue(buf *bytes.Buffer, v gjson.Result) {
	switch {
	case v.IsObject():
		FromObject(v).appendJSON(buf)
	case v.IsArray():
		buf.WriteByte('[')
		for i, item := range v.Array() {
			if i > 0 {
				buf.WriteByte(',')
			}
			appendValue(buf, item)
		}
		buf.WriteByte(']')
	case v.Type == gjson.String:
		appendString(buf, v.Str)
	case v.Type == gjson.Number:
		buf.WriteString(FormatNumber(v))
	case v.Type == gjson.True:
		buf.WriteString("true")
	case v.Type == gjson.False:
		buf.WriteString("false")
	default:
		buf.WriteString("null")
	}
}

// appendString writes s as a JSON string without HTML escaping.
func appendString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
}

// Columns returns the keys of the first row, which define the table layout.
// Keys that only appear in later rows are not part of it.
func Columns(rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0].Keys()
}

// Clone returns a copy of rows that shares no slice storage with the input.
func Clone(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = append(Row(nil), r...)
	}
	return out
}
