// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows(t *testing.T) *ResultSet {
	t.Helper()
	rs, err := decodeResultSet([]byte(`[
		{"id":1,"Name":"one","score":1.5,"active":true,"note":null},
		{"id":2,"Name":"two","score":-3,"active":false,"note":"n"}
	]`))
	require.NoError(t, err)
	return rs
}

func TestRowAccessors(t *testing.T) {
	row := sampleRows(t).Row(0)

	id, err := row.Int64("id")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	name, err := row.String("Name")
	require.NoError(t, err)
	assert.Equal(t, "one", name)

	score, err := row.Float64("score")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, score, 1e-9)

	active, err := row.Bool("active")
	require.NoError(t, err)
	assert.True(t, active)

	idText, err := row.String("id")
	require.NoError(t, err)
	assert.Equal(t, "1", idText)

	assert.True(t, row.IsNull("note"))
	assert.False(t, row.IsNull("id"))
	assert.False(t, row.IsNull("missing"))

	_, err = row.String("note")
	assert.Error(t, err)
	_, err = row.Int64("Name")
	assert.Error(t, err)
	_, err = row.Bool("id")
	assert.Error(t, err)
	_, err = row.Int64("score")
	assert.Error(t, err, "1.5 is not an integer")
}

func TestRowLookupIsCaseSensitive(t *testing.T) {
	row := sampleRows(t).Row(0)

	_, ok := row.Get("name")
	assert.False(t, ok)
	_, err := row.String("NAME")
	assert.Error(t, err)

	v, ok := row.Get("Name")
	assert.True(t, ok)
	assert.Equal(t, "one", v)
}

func TestResultSetIterationIsRestartable(t *testing.T) {
	rs := sampleRows(t)

	collect := func() []int64 {
		var ids []int64
		for _, row := range rs.All() {
			id, err := row.Int64("id")
			require.NoError(t, err)
			ids = append(ids, id)
		}
		return ids
	}
	assert.Equal(t, []int64{1, 2}, collect())
	assert.Equal(t, []int64{1, 2}, collect())

	for i := range rs.All() {
		assert.Equal(t, 0, i)
		break
	}
	assert.Equal(t, []int64{1, 2}, collect(), "early break must not consume rows")
}

func TestResultSetCopiesAreIndependent(t *testing.T) {
	rs := sampleRows(t)

	cols := rs.Columns()
	cols[0] = "mutated"
	assert.Equal(t, "id", rs.Columns()[0])

	vals := rs.Row(1).Values()
	vals[0] = "mutated"
	v, _ := rs.Row(1).Get("id")
	assert.NotEqual(t, "mutated", v)
}

func TestResultSetMaps(t *testing.T) {
	maps := sampleRows(t).Maps()
	require.Len(t, maps, 2)
	assert.Equal(t, "two", maps[1]["Name"])
	assert.Nil(t, maps[0]["note"])
	assert.Contains(t, maps[0], "note")
}

func TestNilResultSet(t *testing.T) {
	var rs *ResultSet
	assert.Zero(t, rs.Len())
	assert.Nil(t, rs.Columns())
	assert.Empty(t, rs.Maps())
	for range rs.All() {
		t.Fatal("nil result set yielded a row")
	}
	b, err := rs.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}
