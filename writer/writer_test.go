package writer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/duffpl/go-dtp/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *dataset.Schema {
	return dataset.MustSchema(
		dataset.ColumnDescriptor{ID: "0000", Name: "name", Type: dataset.TypeString},
		dataset.ColumnDescriptor{ID: "0001", Name: "age", Type: dataset.TypeInteger},
	)
}

func TestJSONWriterFull(t *testing.T) {
	schema := testSchema()
	buf := new(bytes.Buffer)
	w := NewJSONWriter(buf)
	require.NoError(t, w.WriteSchema(schema))
	require.NoError(t, w.WriteRow(dataset.NewRow(schema, 0, []string{"Ann \"A\"", "31"})))
	deleted := dataset.NewRow(schema, 1, []string{"Bob", ""})
	deleted.Deleted = true
	require.NoError(t, w.WriteRow(deleted))
	require.NoError(t, w.Close())
	assert.JSONEq(t, `{
		"columns": [
			{"id": "0000", "name": "name", "type": "string"},
			{"id": "0001", "name": "age", "type": "integer"}
		],
		"records": [
			{"0000": "Ann \"A\"", "0001": "31"},
			{"0000": "Bob", "0001": "", "_deleted": true}
		]
	}`, buf.String())
}

func TestJSONWriterPreview(t *testing.T) {
	schema := testSchema()
	buf := new(bytes.Buffer)
	w := NewJSONWriter(buf)
	require.NoError(t, w.WriteSchema(schema))
	original := dataset.NewRow(schema, 4, []string{"Ann", "31"})
	transformed := original.Clone()
	transformed.Values[0] = "ANN"
	transformed.Deleted = true
	require.NoError(t, w.WriteRowDiff(original, transformed))
	require.NoError(t, w.Close())
	assert.JSONEq(t, `{
		"columns": [
			{"id": "0000", "name": "name", "type": "string"},
			{"id": "0001", "name": "age", "type": "integer"}
		],
		"records": [{
			"index": 4,
			"original": {"0000": "Ann", "0001": "31"},
			"transformed": {"0000": "ANN", "0001": "31"},
			"changed": ["0000"],
			"_deleted": true
		}]
	}`, buf.String())
}

func TestJSONWriterClose(t *testing.T) {
	t.Run("nothing written", func(t *testing.T) {
		buf := new(bytes.Buffer)
		w := NewJSONWriter(buf)
		require.NoError(t, w.Close())
		assert.Empty(t, buf.String())
	})
	t.Run("schema only", func(t *testing.T) {
		buf := new(bytes.Buffer)
		w := NewJSONWriter(buf)
		require.NoError(t, w.WriteSchema(testSchema()))
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())
		assert.JSONEq(t, `{"columns":[{"id":"0000","name":"name","type":"string"},{"id":"0001","name":"age","type":"integer"}],"records":[]}`, buf.String())
	})
}

func TestJSONWriterOrdering(t *testing.T) {
	schema := testSchema()
	w := NewJSONWriter(new(bytes.Buffer))
	assert.Error(t, w.WriteRow(dataset.NewRow(schema, 0, []string{"a", "1"})))
	require.NoError(t, w.WriteSchema(schema))
	assert.Error(t, w.WriteSchema(schema))
}

func TestSQLWriter(t *testing.T) {
	schema := testSchema()
	buf := new(bytes.Buffer)
	w := NewSQLWriter(buf, "people")
	require.NoError(t, w.WriteSchema(schema))
	require.NoError(t, w.WriteRow(dataset.NewRow(schema, 0, []string{"O'Brien", "40"})))
	deleted := dataset.NewRow(schema, 1, []string{"Bob", ""})
	deleted.Deleted = true
	require.NoError(t, w.WriteRow(deleted))
	require.NoError(t, w.Close())
	assert.Equal(t,
		"CREATE TABLE `people` (`name` TEXT, `age` BIGINT, `_deleted` BOOLEAN);\n"+
			"INSERT INTO `people` VALUES ('O''Brien','40',0);\n"+
			"INSERT INTO `people` VALUES ('Bob',NULL,1);\n",
		buf.String())
}

func TestSQLWriterPreviewUnsupported(t *testing.T) {
	schema := testSchema()
	w := NewSQLWriter(new(bytes.Buffer), "people")
	require.NoError(t, w.WriteSchema(schema))
	row := dataset.NewRow(schema, 0, []string{"a", "1"})
	assert.Error(t, w.WriteRowDiff(row, row))
}

func TestSQLWriterBooleans(t *testing.T) {
	schema := dataset.MustSchema(
		dataset.ColumnDescriptor{ID: "0000", Name: "name"},
		dataset.ColumnDescriptor{ID: "0001", Name: "active", Type: dataset.TypeBoolean},
	)
	buf := new(bytes.Buffer)
	w := NewSQLWriter(buf, "people")
	require.NoError(t, w.WriteSchema(schema))
	require.NoError(t, w.WriteRow(dataset.NewRow(schema, 0, []string{"Ann", "true"})))
	require.NoError(t, w.WriteRow(dataset.NewRow(schema, 1, []string{"Bob", "FALSE"})))
	require.NoError(t, w.WriteRow(dataset.NewRow(schema, 2, []string{"Cid", ""})))
	assert.Error(t, w.WriteRow(dataset.NewRow(schema, 3, []string{"Dan", "maybe"})))
	require.NoError(t, w.Close())
	assert.Equal(t,
		"CREATE TABLE `people` (`name` TEXT, `active` BOOLEAN, `_deleted` BOOLEAN);\n"+
			"INSERT INTO `people` VALUES ('Ann',1,0);\n"+
			"INSERT INTO `people` VALUES ('Bob',0,0);\n"+
			"INSERT INTO `people` VALUES ('Cid',NULL,0);\n",
		buf.String())
}

func TestSQLWriterRejectsColumnNames(t *testing.T) {
	for name, schema := range map[string]*dataset.Schema{
		"duplicate": dataset.MustSchema(
			dataset.ColumnDescriptor{ID: "a", Name: "city"},
			dataset.ColumnDescriptor{ID: "b", Name: "City"},
		),
		"reserved": dataset.MustSchema(
			dataset.ColumnDescriptor{ID: "a", Name: "_deleted"},
		),
	} {
		t.Run(name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			w := NewSQLWriter(buf, "people")
			assert.Error(t, w.WriteSchema(schema))
			require.NoError(t, w.Close())
			assert.Empty(t, buf.String())
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestSQLWriterSinkFailure(t *testing.T) {
	w := NewSQLWriter(failingWriter{}, "people")
	require.NoError(t, w.WriteSchema(testSchema()))
	assert.EqualError(t, w.Close(), "disk full")
}
