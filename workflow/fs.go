package workflow

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// FileSource reads one domain per line from a plain file.
type FileSource struct {
	f         *os.File
	sc        *bufio.Scanner
	batchSize int
}

// NewFileSource opens path for batched line reading.
func NewFileSource(path string, batchSize int) (*FileSource, error) {
	if batchSize < 1 {
		return nil, errors.Errorf("batch size %d, need at least 1", batchSize)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening source file")
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &FileSource{f: f, sc: sc, batchSize: batchSize}, nil
}

// ReadBatch returns up to batchSize domains, skipping blank lines, and io.EOF
// once the file is drained.
func (s *FileSource) ReadBatch(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	batch := make([]string, 0, s.batchSize)
	for len(batch) < s.batchSize && s.sc.Scan() {
		line := strings.TrimSpace(s.sc.Text())
		if line == "" {
			continue
		}
		batch = append(batch, line)
	}
	if err := s.sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning source file")
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

func (s *FileSource) Close() error {
	return s.f.Close()
}

// FileDestination appends enriched records to a file, one delimited line per
// domain.
type FileDestination struct {
	f     *os.File
	w     *bufio.Writer
	delim string
}

// NewFileDestination opens path for appending, creating it if needed.
func NewFileDestination(path, delim string) (*FileDestination, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "opening destination file")
	}
	return &FileDestination{f: f, w: bufio.NewWriter(f), delim: delim}, nil
}

func (d *FileDestination) WriteBatch(ctx context.Context, recs []Enriched) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, rec := range recs {
		if _, err := d.w.WriteString(rec.Line(d.delim) + "\n"); err != nil {
			return errors.Wrap(err, "writing destination file")
		}
	}
	return errors.Wrap(d.w.Flush(), "flushing destination file")
}

func (d *FileDestination) Close() error {
	if err := d.w.Flush(); err != nil {
		d.f.Close()
		return errors.Wrap(err, "flushing destination file")
	}
	return d.f.Close()
}
