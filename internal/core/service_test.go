package core

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hitpa/claimupload/internal/archive"
	"github.com/hitpa/claimupload/internal/claimxml"
	"github.com/hitpa/claimupload/internal/history"
	"github.com/hitpa/claimupload/internal/soap"
	"github.com/hitpa/claimupload/internal/uploadlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const claimsCSV = "Claim No,Date Of Admission,NUM Claim Amount\n" +
	"C1,01/02/2024,\"1,500.00\"\n" +
	"C2,15/03/2024,2750\n"

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func resultEnvelope(result, inner string) string {
	return `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>` +
		`<Response xmlns="http://tempuri.org/"><` + result + `>` + xmlEscaper.Replace(inner) +
		`</` + result + `></Response></s:Body></s:Envelope>`
}

type fixture struct {
	svc     *Service
	dir     string
	keyPath string
	bodies  chan string
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir(), bodies: make(chan string, 4)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		f.bodies <- string(b)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	key, err := archive.GenerateKey()
	require.NoError(t, err)
	f.keyPath = filepath.Join(f.dir, "secret.key")
	require.NoError(t, archive.WriteKeyFile(f.keyPath, key, false))

	sink, err := uploadlog.NewSink(filepath.Join(f.dir, "logs.csv"))
	require.NoError(t, err)

	f.svc, err = New(Options{
		Operations:  soap.DefaultServiceMap(srv.URL),
		Credentials: soap.Credentials{UserID: "clerk", Password: "p&ss"},
		Client:      soap.NewClient(5 * time.Second),
		Archive:     archive.NewStore(filepath.Join(f.dir, "uploaded_files"), archive.NewKeyLoader(f.keyPath)),
		UploadLog:   sink,
		History:     history.NewXLSXStore(filepath.Join(f.dir, "response_history.xlsx")),
		Gate:        NewSubmissionGate(100 * time.Millisecond),
	})
	require.NoError(t, err)
	return f
}

func okHandler(inner string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, resultEnvelope("ClaimIntimationResult", inner))
	}
}

func TestNew_MissingCollaborators(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history")
}

func TestService_EndToEnd(t *testing.T) {
	f := newFixture(t, okHandler(
		`<ROOT><RECORD><CLAIM_NO>C1</CLAIM_NO><STATUS>Success</STATUS></RECORD>`+
			`<RECORD><CLAIM_NO>C2</CLAIM_NO><STATUS>Duplicate</STATUS></RECORD></ROOT>`))
	ctx := ContextWithIPAddress(context.Background(), "10.1.2.3")

	sheet, err := f.svc.ReadSheet(ctx, "claims.csv", []byte(claimsCSV))
	require.NoError(t, err)
	conv, err := f.svc.Convert(ctx, sheet.Headers, sheet.Rows)
	require.NoError(t, err)
	assert.Equal(t, 2, conv.Records)

	n, err := f.svc.CheckDocument(ctx, conv.XML)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, strings.HasPrefix(conv.XML, "<INPUT><RECORD><CLAIM_NO>C1</CLAIM_NO>"))
	assert.Contains(t, conv.XML, "<NUM_CLAIM_AMOUNT>1500.00</NUM_CLAIM_AMOUNT>")

	sub, err := f.svc.Submit(ctx, "intimation", conv.XML)
	require.NoError(t, err)
	assert.True(t, sub.Accepted)
	assert.Equal(t, http.StatusOK, sub.StatusCode)
	assert.NoError(t, sub.Err())
	assert.Equal(t, soap.Intimation, sub.Operation.Name)

	sent := <-f.bodies
	assert.Contains(t, sent, "<tem:ClaimIntimation>")
	assert.Contains(t, sent, "<![CDATA["+conv.XML+"]]>")
	assert.Contains(t, sent, "<tem:v_sPassword>p&amp;ss</tem:v_sPassword>")

	parsed, err := f.svc.ParseResponse(ctx, sub.Response.Body)
	require.NoError(t, err)
	require.Equal(t, 2, parsed.Table.Len())
	assert.Equal(t, []string{"CLAIM_NO", "STATUS"}, parsed.Table.Columns)
	assert.Contains(t, parsed.Pretty, "  <RECORD>")

	require.NoError(t, f.svc.SaveHistory(ctx, sub.Operation.Name, parsed.Table))
	hist, err := f.svc.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, hist.Len())
}

func TestService_ConvertHeuristic(t *testing.T) {
	f := newFixture(t, okHandler("<R/>"))
	ctx := context.Background()

	tests := []struct {
		name    string
		headers []string
		rows    []claimxml.Row
	}{
		{"no records", []string{"Claim No"}, nil},
		{"below minimum size", []string{"A"}, []claimxml.Row{{Cells: []claimxml.Cell{claimxml.TextCell("1")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Convert(ctx, tt.headers, tt.rows)
			assert.ErrorIs(t, err, ErrConversion)
			assert.Equal(t, "CNV001", MapError(err).Code)
		})
	}
}

func TestService_ReadSheetErrors(t *testing.T) {
	f := newFixture(t, okHandler("<R/>"))
	ctx := context.Background()

	_, err := f.svc.ReadSheet(ctx, "empty.xlsx", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = f.svc.ReadSheet(ctx, "broken.xlsx", []byte("not a workbook"))
	assert.Equal(t, "CNV002", MapError(err).Code)
}

func TestService_CheckDocument(t *testing.T) {
	f := newFixture(t, okHandler("<R/>"))
	ctx := context.Background()

	n, err := f.svc.CheckDocument(ctx, "<INPUT></INPUT>")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for _, doc := range []string{"<OUTPUT/>", "claims", "<INPUT><RECORD>"} {
		_, err := f.svc.CheckDocument(ctx, doc)
		assert.ErrorIs(t, err, claimxml.ErrNotClaimDocument, doc)
		assert.Equal(t, "CNV005", MapError(err).Code)
	}
}

func TestService_SubmitUnknownOperation(t *testing.T) {
	f := newFixture(t, okHandler("<R/>"))
	_, err := f.svc.Submit(context.Background(), "Cancellation", "<INPUT></INPUT>")
	assert.ErrorIs(t, err, soap.ErrUnknownOperation)
}

func TestService_SubmitRejectedStatusPassesThrough(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "<fault>bad credentials</fault>")
	})

	sub, err := f.svc.Submit(context.Background(), "Reopen", "<INPUT></INPUT>")
	require.NoError(t, err)
	assert.False(t, sub.Accepted)
	assert.Equal(t, http.StatusInternalServerError, sub.StatusCode)
	assert.NoError(t, sub.Err(), "the service answered")
	assert.Equal(t, "<fault>bad credentials</fault>", sub.Response.Body)
}

func TestService_SubmitTransportFailure(t *testing.T) {
	f := newFixture(t, okHandler("<R/>"))
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	f.svc.operations = soap.DefaultServiceMap(closed.URL)

	sub, err := f.svc.Submit(context.Background(), "Intimation", "<INPUT></INPUT>")
	require.NoError(t, err)
	assert.Equal(t, soap.StatusTransportFailure, sub.StatusCode)
	assert.ErrorIs(t, sub.Err(), ErrTransport)
	assert.Equal(t, "SVC002", MapError(sub.Err()).Code)
}

func TestService_SubmitBusy(t *testing.T) {
	f := newFixture(t, okHandler("<R/>"))
	require.True(t, f.svc.gate.TryAcquire("Settlement"))
	defer f.svc.gate.Release()

	_, err := f.svc.Submit(context.Background(), "Intimation", "<INPUT></INPUT>")
	assert.ErrorIs(t, err, ErrSubmissionBusy)
	assert.Equal(t, 1, f.svc.SubmissionStatus().Active)
}

func TestService_ParseResponseErrors(t *testing.T) {
	f := newFixture(t, okHandler("<R/>"))
	ctx := context.Background()

	_, err := f.svc.ParseResponse(ctx, resultEnvelope("OtherResult", "<R/>"))
	assert.ErrorIs(t, err, soap.ErrResultTagNotFound)

	_, err = f.svc.ParseResponse(ctx, resultEnvelope("ClaimSattlementResult", "Invalid User"))
	assert.ErrorIs(t, err, soap.ErrInnerPayload)

	parsed, err := f.svc.ParseResponse(ctx, resultEnvelope("ClaimSattlementResult", "<ROOT><MSG>none</MSG></ROOT>"))
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.Table.Len())
	require.NoError(t, f.svc.SaveHistory(ctx, soap.Settlement, parsed.Table))
}

func TestService_ArchiveAndLog(t *testing.T) {
	f := newFixture(t, okHandler("<R/>"))
	ctx := ContextWithIPAddress(context.Background(), "192.168.1.9")

	path, err := f.svc.Archive(ctx, "claims.csv", []byte(claimsCSV))
	require.NoError(t, err)
	assert.Equal(t, "claims.csv.enc", filepath.Base(path))

	entry, err := f.svc.LogUpload(ctx, "claims.csv")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.9", entry.ClientIP)

	entries, err := f.svc.UploadLog()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "claims.csv", entries[0].FileName)

	require.NoError(t, os.Remove(f.keyPath))
	f.svc.archive = archive.NewStore(filepath.Join(f.dir, "uploaded_files"), archive.NewKeyLoader(f.keyPath))
	_, err = f.svc.Archive(ctx, "claims.csv", []byte(claimsCSV))
	assert.Equal(t, "ENC001", MapError(err).Code)
}

func TestService_Operations(t *testing.T) {
	f := newFixture(t, okHandler("<R/>"))
	ops := f.svc.Operations()
	require.Len(t, ops, 5)
	assert.Equal(t, soap.Intimation, ops[0].Name)

	op, err := f.svc.Operation("Sattlement")
	require.NoError(t, err)
	assert.Equal(t, soap.Settlement, op.Name)
}
