package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hitpa/claimupload/internal/session"
	"github.com/hitpa/claimupload/internal/uploadlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload_EscapesUserContent(t *testing.T) {
	var buf bytes.Buffer
	err := Upload(UploadData{
		Notices:    []session.Notice{{Level: session.LevelSuccess, Message: "XML generated", Detail: "2 records"}},
		Operations: []string{"Intimation", "Settlement"},
		Selected:   "Settlement",
		FileName:   "<script>x</script>.xlsx",
		Headers:    []string{"Claim No"},
		Preview:    [][]string{{"C1"}},
		TotalRows:  1,
		XML:        "<INPUT></INPUT>",
		Records:    1,
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "&lt;script&gt;x&lt;/script&gt;.xlsx")
	assert.NotContains(t, html, "<script>x</script>")
	assert.Contains(t, html, `<option value="Settlement" selected>`)
	assert.Contains(t, html, "&lt;INPUT&gt;&lt;/INPUT&gt;")
	assert.Contains(t, html, `class="notice success"`)
	assert.Contains(t, html, `action="/submit"`)
	assert.NotContains(t, html, "Service response")
}

func TestUpload_ResponseTable(t *testing.T) {
	var buf bytes.Buffer
	err := Upload(UploadData{
		Selected: "Intimation",
		Response: &ResponseData{
			Operation:  "Intimation",
			StatusCode: 200,
			Accepted:   true,
			Raw:        "<s:Envelope/>",
			Parsed:     true,
			Columns:    []string{"CLAIM_NO", "STATUS"},
			Rows:       [][]string{{"C1", "Success"}},
		},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "returned status 200 (accepted)")
	assert.Contains(t, html, "<th>STATUS</th>")
	assert.Contains(t, html, "<td>Success</td>")
	assert.Contains(t, html, `href="/response.xlsx"`)
}

func TestLogs(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	var buf bytes.Buffer
	err := Logs(nil, []uploadlog.Entry{
		{FileName: "b.xlsx", Timestamp: time.Date(2024, 3, 2, 10, 0, 0, 0, ist), ClientIP: "10.0.0.2"},
		{FileName: "a.xlsx", Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, ist), ClientIP: "10.0.0.1"},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Total uploads: 2")
	assert.Contains(t, html, "<td>2024-03-02 10:00:00</td>")
	assert.Contains(t, html, `<a href="/logs" class="active">Logs</a>`)
}

func TestLogs_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Logs(nil, nil).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No uploads logged yet.")
}

func TestUpload_RejectedStatusAndParseError(t *testing.T) {
	var buf bytes.Buffer
	err := Upload(UploadData{
		Response: &ResponseData{Operation: "Reopen", StatusCode: 500, Raw: "SOAP request failed", ParseErr: "No result element (RSP001)"},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Reopen returned status 500 (rejected)")
	assert.Contains(t, html, `<div class="notice error" role="status">No result element (RSP001)`)
	assert.NotContains(t, html, `href="/response.xlsx"`)
}

func TestNotices_DefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Notices([]session.Notice{{Message: "plain"}}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `class="notice info"`)
}

func TestErrorPage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorPage("Something went wrong", "Try again", "ERR000").Render(context.Background(), &buf))

	html := buf.String()
	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Contains(t, html, "<small>Try again</small>")
	assert.Contains(t, html, "Error code: ERR000")
	assert.Contains(t, html, `<a href="/">Upload</a>`)
}

func TestUploadData_RowSummary(t *testing.T) {
	d := UploadData{TotalRows: 120, Preview: make([][]string, PreviewRows)}
	assert.Equal(t, "120 rows, first 50 shown", d.rowSummary())
	assert.Equal(t, "3 rows", UploadData{TotalRows: 3, Preview: make([][]string, 3)}.rowSummary())
}
