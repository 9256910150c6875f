package uploadlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSink(t *testing.T, clock ...time.Time) *Sink {
	t.Helper()
	s, err := NewSink(filepath.Join(t.TempDir(), "logs", "logs.csv"))
	require.NoError(t, err)
	i := 0
	s.now = func() time.Time {
		ts := clock[i%len(clock)]
		i++
		return ts
	}
	return s
}

func TestSink_AppendWritesHeaderOnce(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 4, 30, 0, 0, time.UTC)
	s := newTestSink(t, t1)

	e, err := s.Append("a.xlsx", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 10:00:00", e.Timestamp.Format(TimestampLayout), "UTC+5:30")

	_, err = s.Append("b.xlsx", "10.0.0.2")
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "filename,timestamp_ist,client_ip", lines[0])
	assert.Equal(t, "a.xlsx,2024-03-01 10:00:00,10.0.0.1", lines[1])
}

func TestSink_ReadAllNewestFirst(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestSink(t, base.Add(time.Hour), base.Add(3*time.Hour), base)

	for _, name := range []string{"middle.xlsx", "newest.xlsx", "oldest.xlsx"} {
		_, err := s.Append(name, "127.0.0.1")
		require.NoError(t, err)
	}

	entries, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "newest.xlsx", entries[0].FileName)
	assert.Equal(t, "middle.xlsx", entries[1].FileName)
	assert.Equal(t, "oldest.xlsx", entries[2].FileName)
}

func TestSink_ReadAllMissingFile(t *testing.T) {
	s := newTestSink(t, time.Now())
	entries, err := s.ReadAll()
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSink_ReadAllToleratesOddRows(t *testing.T) {
	s := newTestSink(t, time.Now())
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o750))
	content := "filename,timestamp_ist,client_ip\n" +
		"good.xlsx,2024-05-01 09:00:00,1.1.1.1\n" +
		"bad-ts.xlsx,yesterday,2.2.2.2\n" +
		"short.xlsx\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o640))

	entries, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "good.xlsx", entries[0].FileName)
	assert.True(t, entries[2].Timestamp.IsZero() || entries[1].Timestamp.IsZero())
}
