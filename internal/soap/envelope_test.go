package soap

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envelopeBody decodes just enough of a request envelope to check it.
type envelopeBody struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Call struct {
			XMLName  xml.Name
			InputXML string `xml:"v_sInputXML"`
			UserID   string `xml:"v_sUserId"`
			Password string `xml:"v_sPassword"`
		} `xml:",any"`
	} `xml:"Body"`
}

func decodeEnvelope(t *testing.T, env string) envelopeBody {
	t.Helper()
	var got envelopeBody
	require.NoError(t, xml.Unmarshal([]byte(env), &got), env)
	return got
}

func TestBuildEnvelope(t *testing.T) {
	op, err := DefaultServiceMap("").Lookup("Intimation")
	require.NoError(t, err)

	payload := "<INPUT><RECORD><A>1</A></RECORD></INPUT>"
	env := BuildEnvelope(payload, op, Credentials{UserID: "user01", Password: "p<&>ss"})

	assert.True(t, strings.HasPrefix(env, `<?xml version="1.0" encoding="utf-8"?>`))
	assert.Contains(t, env, `<soapenv:Header/>`)
	assert.Contains(t, env, `<![CDATA[`+payload+`]]>`)

	got := decodeEnvelope(t, env)
	assert.Equal(t, "ClaimIntimation", got.Body.Call.XMLName.Local)
	assert.Equal(t, TempuriNS, got.Body.Call.XMLName.Space)
	assert.Equal(t, payload, got.Body.Call.InputXML)
	assert.Equal(t, "user01", got.Body.Call.UserID)
	assert.Equal(t, "p<&>ss", got.Body.Call.Password)
}

func TestBuildEnvelope_CDATATerminatorInPayload(t *testing.T) {
	op, err := DefaultServiceMap("").Lookup("Reopen")
	require.NoError(t, err)

	payload := "<INPUT><RECORD><TXT_REMARKS>a]]>b]]></TXT_REMARKS></RECORD></INPUT>"
	env := BuildEnvelope(payload, op, Credentials{UserID: "u", Password: "p"})

	assert.Contains(t, env, "]]]]><![CDATA[>")

	// The document parses and the payload survives byte for byte.
	dec := xml.NewDecoder(strings.NewReader(env))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}
	got := decodeEnvelope(t, env)
	assert.Equal(t, "ClaimReopen", got.Body.Call.XMLName.Local)
	assert.Equal(t, payload, got.Body.Call.InputXML)
}

func TestEscapeCDATA(t *testing.T) {
	assert.Equal(t, "plain", EscapeCDATA("plain"))
	assert.Equal(t, "]]]]><![CDATA[>", EscapeCDATA("]]>"))
	assert.Equal(t, "x]]]]><![CDATA[>y]]]]><![CDATA[>", EscapeCDATA("x]]>y]]>"))
}

func TestServiceMap_Lookup(t *testing.T) {
	m := DefaultServiceMap("")

	tests := []struct {
		name       string
		wantMethod string
		wantAction string
	}{
		{name: "Intimation", wantMethod: "ClaimIntimation", wantAction: "http://tempuri.org/IClaimIntimation/ClaimIntimation"},
		{name: "settlement", wantMethod: "ClaimSattlement", wantAction: "http://tempuri.org/IClaimIntimation/ClaimSattlement"},
		{name: "Sattlement", wantMethod: "ClaimSattlement", wantAction: "http://tempuri.org/IClaimIntimation/ClaimSattlement"},
		{name: "MODIFICATION", wantMethod: "ClaimProvisionModification", wantAction: "http://tempuri.org/IClaimIntimation/ClaimProvisionModification"},
		{name: " Repudiation ", wantMethod: "ClaimRepudiation", wantAction: "http://tempuri.org/IClaimRepudiation/ClaimRepudiation"},
		{name: "Reopen", wantMethod: "ClaimReopen", wantAction: "http://tempuri.org/IClaimIntimation/ClaimReOpen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := m.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMethod, op.Method)
			assert.Equal(t, tt.wantAction, op.Action)
			assert.Equal(t, DefaultEndpoint, op.URL)
		})
	}

	_, err := m.Lookup("Cancellation")
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = m.Lookup("")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestServiceMap_NamesAndResults(t *testing.T) {
	m := DefaultServiceMap("https://uat.example/svc")

	assert.Equal(t, []OperationName{Intimation, Settlement, Modification, Repudiation, Reopen}, m.Names())
	assert.Equal(t, []string{
		"ClaimIntimationResult",
		"ClaimSattlementResult",
		"ClaimModificationResult",
		"ClaimRepudiationResult",
		"ClaimReopenResult",
		"ClaimProvisionModificationResult",
	}, m.ResultElements())
}

func TestParseServiceMap(t *testing.T) {
	data := []byte(`
operations:
  intimation:
    url: https://uat.example/ClaimIntimation.svc
  Enquiry:
    url: https://uat.example/ClaimIntimation.svc
    method: ClaimEnquiry
    soap_action: http://tempuri.org/IClaimIntimation/ClaimEnquiry
    result: ClaimEnquiryResult
`)

	m, err := ParseServiceMap(data, DefaultServiceMap(""))
	require.NoError(t, err)

	op, err := m.Lookup("Intimation")
	require.NoError(t, err)
	assert.Equal(t, "https://uat.example/ClaimIntimation.svc", op.URL)
	assert.Equal(t, "ClaimIntimation", op.Method)

	op, err = m.Lookup("Settlement")
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, op.URL)

	op, err = m.Lookup("enquiry")
	require.NoError(t, err)
	assert.Equal(t, OperationName("Enquiry"), op.Name)
	assert.Equal(t, "ClaimEnquiryResult", op.Result)
	assert.Len(t, m.Names(), 6)

	_, err = ParseServiceMap([]byte("operations:\n  Bogus:\n    url: x\n"), DefaultServiceMap(""))
	assert.Error(t, err)

	_, err = ParseServiceMap([]byte("operations: [unterminated"), DefaultServiceMap(""))
	assert.Error(t, err)
}
