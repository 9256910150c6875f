// Package uploadlog records every uploaded file in an append-only CSV log.
package uploadlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
	_ "time/tzdata"
)

// TimestampLayout is how timestamps are written to the log.
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the first row of every log file.
var Header = []string{"filename", "timestamp_ist", "client_ip"}

// Entry is one logged upload.
type Entry struct {
	FileName  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp_ist"`
	ClientIP  string    `json:"client_ip"`
}

// Sink appends entries to a CSV file. Writes from this process are
// serialized; other processes appending to the same file are not locked out.
type Sink struct {
	path string
	loc  *time.Location
	now  func() time.Time

	mu sync.Mutex
}

// NewSink creates a sink writing to path with timestamps in Asia/Kolkata.
func NewSink(path string) (*Sink, error) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return nil, fmt.Errorf("load IST location: %w", err)
	}
	return &Sink{path: path, loc: loc, now: time.Now}, nil
}

// Path returns the log file path.
func (s *Sink) Path() string { return s.path }

// Append writes one row for fileName uploaded from clientIP. The header
// row is written first when the file does not exist yet.
func (s *Sink) Append(fileName, clientIP string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		FileName:  fileName,
		Timestamp: s.now().In(s.loc).Truncate(time.Second),
		ClientIP:  clientIP,
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return entry, fmt.Errorf("create log dir: %w", err)
		}
	}

	_, statErr := os.Stat(s.path)
	isNew := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return entry, fmt.Errorf("open upload log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(Header); err != nil {
			return entry, fmt.Errorf("write log header: %w", err)
		}
	}
	if err := w.Write([]string{entry.FileName, entry.Timestamp.Format(TimestampLayout), entry.ClientIP}); err != nil {
		return entry, fmt.Errorf("write log entry: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return entry, fmt.Errorf("flush upload log: %w", err)
	}
	return entry, nil
}

// ReadAll returns every logged entry, newest first. A missing log file
// yields no entries and no error.
func (s *Sink) ReadAll() ([]Entry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open upload log: %w", err)
	}
	defer f.Close()

	entries, err := parse(f, s.loc)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

func parse(r io.Reader, loc *time.Location) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var entries []Entry
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read upload log line %d: %w", line, err)
		}
		if line == 1 && len(rec) > 0 && rec[0] == Header[0] {
			continue
		}

		var e Entry
		if len(rec) > 0 {
			e.FileName = rec[0]
		}
		if len(rec) > 1 {
			// Unparsable timestamps sort last.
			if ts, err := time.ParseInLocation(TimestampLayout, rec[1], loc); err == nil {
				e.Timestamp = ts
			}
		}
		if len(rec) > 2 {
			e.ClientIP = rec[2]
		}
		entries = append(entries, e)
	}
	return entries, nil
}
