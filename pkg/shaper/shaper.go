// Package shaper finds tabular data inside an arbitrary webhook response.
//
// Shape classifies the decoded value into one Kind and lets a dedicated mapping
// function build the chat status and the rows for that kind, so every branch can
// be exercised on its own.
package shaper

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/leadcatalyst/leadchat/pkg/table"
)

type Kind int

const (
	Empty Kind = iota
	ArrayEmpty
	ArrayRecords
	ArrayPrimitives
	ArrayOther
	ObjectEcho
	ObjectGeneric
	RawText
	Primitive
)

var kindNames = map[Kind]string{
	Empty:           "empty",
	ArrayEmpty:      "array_empty",
	ArrayRecords:    "array_records",
	ArrayPrimitives: "array_primitives",
	ArrayOther:      "array_other",
	ObjectEcho:      "object_echo",
	ObjectGeneric:   "object_generic",
	RawText:         "raw_text",
	Primitive:       "primitive",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

const (
	// RawResponseKey wraps bodies that are not valid JSON.
	RawResponseKey = "rawResponse"

	previewItems    = 5
	rawPreviewChars = 200
	echoPrefixChars = 10
)

// Result is the outcome of shaping one response.
type Result struct {
	Kind Kind `json:"kind"`
	// Key names the object key the array was found under, if any.
	Key    string      `json:"key,omitempty"`
	Status string      `json:"status"`
	Detail string      `json:"detail,omitempty"`
	Rows   []table.Row `json:"rows"`
}

// Shape maps a decoded response to a status and rows. sent is the text the user
// submitted; it is only used to recognise acknowledgement echoes.
func Shape(value gjson.Result, sent string) Result {
	value = descend(value)

	switch {
	case !value.Exists() || value.Type == gjson.Null:
		return shapeEmpty()
	case value.IsArray():
		return shapeArray(value, "")
	case value.IsObject():
		return shapeObject(value, sent)
	default:
		return shapePrimitive(value)
	}
}

// descend steps into a "body" or "data" key holding an object or array,
// preferring "body".
func descend(value gjson.Result) gjson.Result {
	if !value.IsObject() {
		return value
	}
	for _, key := range []string{"body", "data"} {
		inner, ok := table.FromObject(value).Get(key)
		if ok && (inner.IsObject() || inner.IsArray()) {
			return inner
		}
	}
	return value
}

func classifyArray(arr gjson.Result) Kind {
	items := arr.Array()
	if len(items) == 0 {
		return ArrayEmpty
	}
	switch first := items[0]; {
	case first.IsObject():
		return ArrayRecords
	case first.IsArray():
		return ArrayOther
	default:
		return ArrayPrimitives
	}
}

func shapeArray(arr gjson.Result, key string) Result {
	switch classifyArray(arr) {
	case ArrayEmpty:
		return shapeArrayEmpty(key)
	case ArrayRecords:
		return shapeArrayRecords(arr, key)
	case ArrayPrimitives:
		return shapeArrayPrimitives(arr, key)
	default:
		return shapeArrayOther(arr, key)
	}
}

func shapeArrayEmpty(key string) Result {
	status := "The webhook returned an empty list."
	if key != "" {
		status = fmt.Sprintf("The key '%s' contained an empty list.", key)
	}
	return Result{Kind: ArrayEmpty, Key: key, Status: status, Rows: []table.Row{}}
}

func shapeArrayRecords(arr gjson.Result, key string) Result {
	rows := []table.Row{}
	for _, item := range arr.Array() {
		if item.IsObject() {
			rows = append(rows, table.FromObject(item))
		}
	}
	noun := plural(len(rows), "tabular record", "tabular records")
	status := fmt.Sprintf("Received %d %s. See the table below.", len(rows), noun)
	if key != "" {
		status = fmt.Sprintf("Found %d %s under the key '%s'. See the table below.", len(rows), noun, key)
	}
	return Result{Kind: ArrayRecords, Key: key, Status: status, Rows: rows}
}

func shapeArrayPrimitives(arr gjson.Result, key string) Result {
	items := arr.Array()
	rows := make([]table.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, table.Item(item))
	}
	noun := plural(len(rows), "simple item", "simple items")
	status := fmt.Sprintf("Received a list with %d %s. See the table below.", len(rows), noun)
	if key != "" {
		status = fmt.Sprintf("Found a list with %d %s under the key '%s'. See the table below.", len(rows), noun, key)
	}
	return Result{Kind: ArrayPrimitives, Key: key, Status: status, Rows: rows}
}

func shapeArrayOther(arr gjson.Result, key string) Result {
	status := "The webhook returned a list, but its content is neither tabular (objects) nor a simple list (text/numbers):"
	if key != "" {
		status = fmt.Sprintf("The webhook returned a list (under the key '%s'), but its content is neither tabular (objects) nor a simple list (text/numbers):", key)
	}
	return Result{Kind: ArrayOther, Key: key, Status: status, Detail: arrayPreview(arr), Rows: []table.Row{}}
}

// arrayPreview pretty-prints the first few elements and notes how many were left out.
func arrayPreview(arr gjson.Result) string {
	items := arr.Array()
	n := len(items)
	if n > previewItems {
		items = items[:previewItems]
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(item.Raw)
	}
	b.WriteByte(']')

	preview := table.Indent(gjson.Parse(b.String()))
	if n > previewItems {
		preview += fmt.Sprintf("\n...and %d more items.", n-previewItems)
	}
	return preview
}

func shapeObject(obj gjson.Result, sent string) Result {
	row := table.FromObject(obj)
	for _, f := range row {
		if f.Value.IsArray() {
			return shapeArray(f.Value, f.Key)
		}
	}

	if len(row) == 1 {
		f := row[0]
		if f.Key == RawResponseKey && f.Value.Type == gjson.String {
			return shapeRawText(f.Value.Str)
		}
		if f.Key == "message" && f.Value.Type == gjson.String && f.Value.Str != "" && isEcho(f.Value.Str, sent) {
			return shapeObjectEcho()
		}
	}
	return shapeObjectGeneric(row)
}

// isEcho reports whether message repeats the start of what the user sent.
func isEcho(message, sent string) bool {
	prefix := []rune(sent)
	if len(prefix) > echoPrefixChars {
		prefix = prefix[:echoPrefixChars]
	}
	return strings.Contains(strings.ToLower(message), strings.ToLower(string(prefix)))
}

func shapeObjectEcho() Result {
	return Result{
		Kind:   ObjectEcho,
		Status: "The webhook acknowledged your message. No additional tabular data was returned.",
		Rows:   []table.Row{},
	}
}

func shapeObjectGeneric(row table.Row) Result {
	return Result{
		Kind:   ObjectGeneric,
		Status: "Received a data object. See the table below.",
		Rows:   []table.Row{row},
	}
}

func shapeRawText(text string) Result {
	// An empty body carries nothing worth a table row, so it reads as an empty
	// response rather than a one-row {"rawResponse": ""} table.
	if text == "" {
		return shapeEmpty()
	}
	detail := text
	if r := []rune(text); len(r) > rawPreviewChars {
		detail = string(r[:rawPreviewChars]) + "..."
	}
	return Result{
		Kind:   RawText,
		Status: "The webhook returned a non-JSON text response:",
		Detail: detail,
		Rows:   []table.Row{},
	}
}

func shapePrimitive(value gjson.Result) Result {
	return Result{
		Kind:   Primitive,
		Status: "Non-tabular response from webhook: " + table.Text(value),
		Rows:   []table.Row{},
	}
}

func shapeEmpty() Result {
	return Result{
		Kind:   Empty,
		Status: "The webhook returned an empty or unexpected response.",
		Rows:   []table.Row{},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
