package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1", "1"},
		{"1.0", "1"},
		{"-2.50", "-2.5"},
		{"1e3", "1000"},
		{"-0", "0"},
		{"123456789012", "123456789012"},
		{"1e21", "1e+21"},
		{"1.5e-7", "1.5e-7"},
		{"0.000001", "0.000001"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(gjson.Parse(tt.raw)))
		})
	}
}

func TestText(t *testing.T) {
	assert.Equal(t, "hello", Text(gjson.Parse(`"hello"`)))
	assert.Equal(t, "true", Text(gjson.Parse(`true`)))
	assert.Equal(t, "false", Text(gjson.Parse(`false`)))
	assert.Equal(t, "", Text(gjson.Parse(`null`)))
	assert.Equal(t, `{"a":[1,2]}`, Text(gjson.Parse(`{ "a" : [1, 2] }`)))
	assert.Equal(t, "", Text(gjson.Result{}))
}

func TestCell(t *testing.T) {
	assert.Equal(t, "-", Cell(gjson.Result{}, false))
	assert.Equal(t, "-", Cell(gjson.Parse(`null`), true))
	assert.Equal(t, "Yes", Cell(gjson.Parse(`true`), true))
	assert.Equal(t, "No", Cell(gjson.Parse(`false`), true))
	assert.Equal(t, "42", Cell(gjson.Parse(`42`), true))
	assert.Equal(t, "{\n  \"n\": 1\n}", Cell(gjson.Parse(`{"n":1}`), true))
}

func TestHeader(t *testing.T) {
	assert.Equal(t, "First Name", Header("firstName"))
	assert.Equal(t, "Email", Header("email"))
	assert.Equal(t, "Item", Header("Item"))
	assert.Equal(t, "Phone Number2", Header("phoneNumber2"))
	assert.Equal(t, "", Header(""))
}

func TestNewGrid(t *testing.T) {
	rows := []Row{
		FromObject(gjson.Parse(`{"name":"Ana","active":true}`)),
		FromObject(gjson.Parse(`{"name":null,"other":1}`)),
	}
	g := NewGrid(rows)

	assert.Equal(t, []string{"name", "active"}, g.Columns)
	assert.Equal(t, []string{"Name", "Active"}, g.Headers)
	assert.Equal(t, [][]string{{"Ana", "Yes"}, {"-", "-"}}, g.Cells)
}
