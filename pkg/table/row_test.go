package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestFromObject_KeyOrder(t *testing.T) {
	row := FromObject(gjson.Parse(`{"name":"Ana","2":"b","city":"SP","1":"a","01":"x"}`))

	assert.Equal(t, []string{"1", "2", "name", "city", "01"}, row.Keys())
}

func TestFromObject_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	row := FromObject(gjson.Parse(`{"a":1,"b":2,"a":3}`))

	assert.Equal(t, []string{"a", "b"}, row.Keys())
	v, ok := row.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(3), v.Int())
}

func TestFromObject_NonObject(t *testing.T) {
	assert.Nil(t, FromObject(gjson.Parse(`[1,2]`)))
	assert.Nil(t, FromObject(gjson.Parse(`"x"`)))
}

func TestRow_MarshalJSONPreservesOrderAndCompacts(t *testing.T) {
	row := FromObject(gjson.Parse(`{ "z": { "n" : 1 }, "a": [ 1, 2 ], "m": null }`))

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"z":{"n":1},"a":[1,2],"m":null}`, string(data))

	data, err = json.Marshal(FromObject(gjson.Parse(`{"n":{"v":2.50,"v":3.0},"big":1e21}`)))
	require.NoError(t, err)
	assert.Equal(t, `{"n":{"v":3},"big":1e+21}`, string(data))

	data, err = json.Marshal([]Row{Item(gjson.Parse(`"x"`))})
	require.NoError(t, err)
	assert.Equal(t, `[{"Item":"x"}]`, string(data))
}

func TestColumnsComeFromFirstRow(t *testing.T) {
	rows := []Row{
		FromObject(gjson.Parse(`{"a":1,"b":2}`)),
		FromObject(gjson.Parse(`{"a":1,"c":3}`)),
	}
	assert.Equal(t, []string{"a", "b"}, Columns(rows))
	assert.Nil(t, Columns(nil))
}

func TestClone(t *testing.T) {
	rows := []Row{FromObject(gjson.Parse(`{"a":1}`))}
	cp := Clone(rows)
	cp[0][0].Key = "changed"

	assert.Equal(t, "a", rows[0][0].Key)
	assert.Nil(t, Clone(nil))
}
