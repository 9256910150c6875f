package soap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	doc := `<?xml version="1.0"?>
<OUTPUT>
  <HEADER><COUNT>2</COUNT></HEADER>
  <RECORDS>
    <RECORD>
      <CLAIM_NO>C1</CLAIM_NO>
      <STATUS>OK</STATUS>
    </RECORD>
    <RECORD>
      <CLAIM_NO>C2</CLAIM_NO>
      <REMARK>  duplicate  </REMARK>
      <DETAIL><CODE>7</CODE></DETAIL>
    </RECORD>
  </RECORDS>
</OUTPUT>`

	table, err := Flatten(doc)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"CLAIM_NO", "STATUS", "REMARK", "DETAIL"}, table.Columns)

	v, ok := table.Cell(0, "STATUS")
	assert.True(t, ok)
	assert.Equal(t, "OK", v)

	_, ok = table.Cell(0, "REMARK")
	assert.False(t, ok, "absent child is a missing cell")

	v, _ = table.Cell(1, "REMARK")
	assert.Equal(t, "duplicate", v)

	v, ok = table.Cell(1, "DETAIL")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	assert.Equal(t, []string{"C2", "", "duplicate", ""}, table.Values(1))

	_, ok = table.Cell(5, "STATUS")
	assert.False(t, ok)
}

func TestFlatten_NoRecords(t *testing.T) {
	table, err := Flatten("<R><OTHER>1</OTHER></R>")
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Columns)
}

func TestFlatten_MalformedYieldsEmptyTable(t *testing.T) {
	for _, doc := range []string{"", "not xml", "<R><RECORD><A>1</A></R>", "<R><RECORD><A>1"} {
		table, err := Flatten(doc)
		assert.Equal(t, 0, table.Len(), "doc %q", doc)
		assert.Empty(t, table.Columns, "doc %q", doc)
		if doc != "" && doc != "not xml" {
			assert.Error(t, err, "doc %q", doc)
		}
	}
}

func TestFlatten_NestedRecords(t *testing.T) {
	doc := `<ROOT>
  <RECORD>
    <CLAIM_NO>C1</CLAIM_NO>
    <RECORD>
      <CLAIM_NO>C1-A</CLAIM_NO>
      <CODE>7</CODE>
    </RECORD>
    <STATUS>OK</STATUS>
  </RECORD>
  <GROUP><RECORD><CLAIM_NO>C2</CLAIM_NO></RECORD></GROUP>
</ROOT>`

	table, err := Flatten(doc)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"CLAIM_NO", "RECORD", "STATUS", "CODE"}, table.Columns)

	assert.Equal(t, []string{"C1", "", "OK", ""}, table.Values(0))
	assert.Equal(t, []string{"C1-A", "", "", "7"}, table.Values(1))
	assert.Equal(t, []string{"C2", "", "", ""}, table.Values(2))

	_, ok := table.Cell(1, "STATUS")
	assert.False(t, ok)
}

func TestFlatten_LeadingTextOnly(t *testing.T) {
	table, err := Flatten(`<R><RECORD><MSG>head <B>bold</B> tail</MSG><EMPTY/></RECORD></R>`)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	v, _ := table.Cell(0, "MSG")
	assert.Equal(t, "head", v)
	v, ok := table.Cell(0, "EMPTY")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}
