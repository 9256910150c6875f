package soap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseEnvelope(resultTag, escaped string) string {
	return `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">` +
		`<s:Body><ClaimIntimationResponse xmlns="http://tempuri.org/">` +
		`<` + resultTag + `>` + escaped + `</` + resultTag + `>` +
		`</ClaimIntimationResponse></s:Body></s:Envelope>`
}

func TestUnwrap_EndToEnd(t *testing.T) {
	raw := responseEnvelope("ClaimIntimationResult",
		"&lt;R&gt;&lt;RECORD&gt;&lt;A&gt;1&lt;/A&gt;&lt;/RECORD&gt;&lt;/R&gt;")

	pretty, err := Unwrap(raw)
	require.NoError(t, err)
	assert.Equal(t,
		`<?xml version="1.0" encoding="UTF-8"?>`+"\n"+
			"<R>\n"+
			"  <RECORD>\n"+
			"    <A>1</A>\n"+
			"  </RECORD>\n"+
			"</R>",
		pretty)

	table, err := Flatten(pretty)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, []string{"A"}, table.Columns)
	v, ok := table.Cell(0, "A")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestUnwrap_DoubleEscapedAndMalformedHTML(t *testing.T) {
	// The service escapes once for the envelope and once more itself.
	inner := `<?xml version=\"1.0\" encoding=\"utf-8\"?>` +
		`<ROOT><RECORD><STATUS>Claim <B>registered</B></STATUS>` +
		`<MSG>line one<BR/>line two<br></MSG></RECORD></ROOT>`
	escaped := strings.NewReplacer("&", "&amp;amp;", "<", "&amp;lt;", ">", "&amp;gt;").Replace(inner)

	pretty, err := Unwrap(responseEnvelope("ClaimReopenResult", escaped))
	require.NoError(t, err)
	assert.NotContains(t, pretty, "<B>")
	assert.Contains(t, pretty, "<STATUS>Claim registered</STATUS>")
	assert.Contains(t, pretty, "<MSG>line one\nline two\n</MSG>")

	table, err := Flatten(pretty)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	assert.Equal(t, []string{"STATUS", "MSG"}, table.Columns)
	v, _ := table.Cell(0, "MSG")
	assert.Equal(t, "line one\nline two", v)
}

func TestUnwrap_FirstKnownTagInDocumentOrder(t *testing.T) {
	raw := `<Envelope><Body>` +
		`<Unrelated>&lt;X/&gt;</Unrelated>` +
		`<ClaimRepudiationResult>&lt;FIRST/&gt;</ClaimRepudiationResult>` +
		`<ClaimIntimationResult>&lt;SECOND/&gt;</ClaimIntimationResult>` +
		`</Body></Envelope>`

	pretty, err := Unwrap(raw)
	require.NoError(t, err)
	assert.Contains(t, pretty, "<FIRST></FIRST>")
}

func TestUnwrap_MethodDerivedResultName(t *testing.T) {
	raw := responseEnvelope("ClaimProvisionModificationResult", "&lt;OK/&gt;")
	_, err := Unwrap(raw)
	assert.NoError(t, err)
}

func TestUnwrap_TagNotFound(t *testing.T) {
	raw := responseEnvelope("SomethingElseResult", "&lt;R/&gt;")

	_, err := Unwrap(raw)
	assert.ErrorIs(t, err, ErrResultTagNotFound)
}

func TestUnwrap_InnerPayloadNotXML(t *testing.T) {
	tests := []string{
		"&lt;R&gt;&lt;RECORD&gt;&lt;/R&gt;",
		"Invalid user id or password",
		"",
	}
	for _, escaped := range tests {
		_, err := Unwrap(responseEnvelope("ClaimIntimationResult", escaped))
		assert.ErrorIs(t, err, ErrInnerPayload, "payload %q", escaped)
	}
}

func TestUnwrap_OuterEnvelopeBroken(t *testing.T) {
	_, err := Unwrap("<s:Envelope><s:Body>")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInnerPayload)
}

func TestCleanPayload(t *testing.T) {
	got := CleanPayload(`  <?xml version=\"1.0\"?><A x=\"1\">a<br />b<B>c</b></A>  `)
	assert.Equal(t, `<A x="1">a`+"\n"+`bc</A>`, got)
}

func TestPrettyPrint_KeepsPrefixes(t *testing.T) {
	got, err := PrettyPrint(`<p:R xmlns:p="urn:x"><p:A k="v">1</p:A><!-- note --></p:R>`)
	require.NoError(t, err)
	assert.Contains(t, got, `<p:R xmlns:p="urn:x">`)
	assert.Contains(t, got, `  <p:A k="v">1</p:A>`)
	assert.Contains(t, got, `<!-- note -->`)
}
