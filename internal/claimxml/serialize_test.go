package claimxml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize_Empty(t *testing.T) {
	got, err := Serialize(Document{})
	require.NoError(t, err)
	assert.Equal(t, "<INPUT></INPUT>", got)
}

func TestSerialize_Records(t *testing.T) {
	doc := Document{Records: []Record{
		{Fields: []Field{{Tag: "CLAIM_NUMBER", Value: "C-1"}, {Tag: "TXT_REMARKS", Value: "a < b & c"}}},
		{Fields: []Field{{Tag: "CLAIM_NUMBER", Value: "C-2"}, {Tag: "TXT_REMARKS", Value: ""}}},
	}}

	got, err := Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t,
		"<INPUT>"+
			"<RECORD><CLAIM_NUMBER>C-1</CLAIM_NUMBER><TXT_REMARKS>a &lt; b &amp; c</TXT_REMARKS></RECORD>"+
			"<RECORD><CLAIM_NUMBER>C-2</CLAIM_NUMBER><TXT_REMARKS></TXT_REMARKS></RECORD>"+
			"</INPUT>",
		got)
}

func TestSerialize_RoundTrip(t *testing.T) {
	headers := []string{"Claim Number", "Num Account", "Dat Admission", "Txt Name Of Hospital Clinic"}
	rows := []Row{
		{Cells: []Cell{TextCell("CL001"), TextCell("1.23E+11"), NumberCell(44197), TextCell("Apollo & Co.")}},
		{Cells: []Cell{TextCell("CL002"), NumberCell(42), TextCell("02/03/2024")}},
		{Cells: []Cell{EmptyCell(), EmptyCell(), EmptyCell(), EmptyCell()}},
	}

	doc, err := NewConverter().Convert(headers, rows)
	require.NoError(t, err)
	require.Equal(t, 3, doc.Len())

	out, err := Serialize(doc)
	require.NoError(t, err)

	parsed, err := Parse(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)

	v, ok := fieldValue(parsed.Records[0], "NUM_ACCOUNT")
	require.True(t, ok)
	assert.Equal(t, "123000000000", v)

	v, _ = fieldValue(parsed.Records[0], "TXT_NAME_OF_HOSPITAL_CLINIC")
	assert.Equal(t, "Apollo  Co.", v)

	// Short rows still produce every declared field.
	v, ok = fieldValue(parsed.Records[1], "TXT_NAME_OF_HOSPITAL_CLINIC")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestSerialize_IllegalTagStillParses(t *testing.T) {
	doc, err := NewConverter().Convert([]string{"1st Visit", "", "Amount (INR)"},
		[]Row{{Cells: []Cell{TextCell("yes"), TextCell("x"), NumberCell(10)}}})
	require.NoError(t, err)

	out, err := Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, "<INPUT><RECORD><_1ST_VISIT>yes</_1ST_VISIT><_>x</_><AMOUNT__INR_>10</AMOUNT__INR_></RECORD></INPUT>", out)

	_, err = Parse(strings.NewReader(out))
	assert.NoError(t, err)
}

func TestConvert_TagCollision(t *testing.T) {
	headers := []string{"Claim No", "claim  no", "Other"}
	rows := []Row{{Cells: []Cell{TextCell("first"), TextCell("second"), TextCell("o")}}}

	doc, err := NewConverter().Convert(headers, rows)
	require.NoError(t, err)
	require.Len(t, doc.Records[0].Fields, 2)
	assert.Equal(t, Field{Tag: "CLAIM_NO", Value: "second"}, doc.Records[0].Fields[0])

	strict := NewConverter()
	strict.StrictTags = true
	_, err = strict.Convert(headers, rows)
	assert.ErrorIs(t, err, ErrTagCollision)
}

func TestParse_WrongRoot(t *testing.T) {
	for _, in := range []string{"<OUTPUT></OUTPUT>", "<INPUT><RECORD>", "", "just text"} {
		_, err := Parse(strings.NewReader(in))
		assert.ErrorIs(t, err, ErrNotClaimDocument, "input %q", in)
	}
}

func fieldValue(r Record, tag string) (string, bool) {
	for _, f := range r.Fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}
