package table

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Non-positive width keeps short arrays from collapsing onto one line.
var prettyOptions = &pretty.Options{Width: -1, Prefix: "", Indent: "  ", SortKeys: false}

// Indent pretty-prints a JSON value with a two-space indent, after re-serializing
// it with Compact.
func Indent(v gjson.Result) string {
	return strings.TrimRight(string(pretty.PrettyOptions(Compact(v), prettyOptions)), "\n")
}

// FormatNumber renders a JSON number the way a browser would print it.
func FormatNumber(v gjson.Result) string {
	f := v.Float()
	switch {
	case math.IsInf(f, 0) || math.IsNaN(f):
		return v.Raw
	case f == 0:
		return "0"
	case math.Abs(f) >= 1e21 || math.Abs(f) < 1e-6:
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go pads the exponent to two digits, browsers do not.
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}

// Text is the plain string form of a value: strings unquoted, numbers formatted,
// objects and arrays compact JSON, null and missing values empty.
func Text(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return FormatNumber(v)
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.JSON:
		return string(Compact(v))
	default:
		return ""
	}
}

// Cell renders a value for the data table: objects and arrays pretty-printed,
// booleans as Yes/No and null or missing values as "-".
func Cell(v gjson.Result, ok bool) string {
	if !ok {
		return "-"
	}
	switch v.Type {
	case gjson.Null:
		return "-"
	case gjson.True:
		return "Yes"
	case gjson.False:
		return "No"
	case gjson.JSON:
		return Indent(v)
	default:
		return Text(v)
	}
}

// Header prettifies a column key: "firstName" becomes "First Name".
func Header(key string) string {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsUpper(r) && r <= unicode.MaxASCII && b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return out
	}
	first := []rune(out)
	first[0] = unicode.ToUpper(first[0])
	return string(first)
}

// Grid is the rendered form of a row set: prettified headers and display cells.
type Grid struct {
	Columns []string   `json:"columns"`
	Headers []string   `json:"headers"`
	Cells   [][]string `json:"cells"`
}

func NewGrid(rows []Row) Grid {
	cols := Columns(rows)
	g := Grid{
		Columns: cols,
		Headers: make([]string, len(cols)),
		Cells:   make([][]string, 0, len(rows)),
	}
	for i, c := range cols {
		g.Headers[i] = Header(c)
	}
	for _, r := range rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			v, ok := r.Get(c)
			line[i] = Cell(v, ok)
		}
		g.Cells = append(g.Cells, line)
	}
	return g
}
