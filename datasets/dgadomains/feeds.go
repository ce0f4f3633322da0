// Package dgadomains implements the DGA domains machine learning dataset:
// fetching public domain feeds, parsing them into labeled records, and
// caching them in a local store.
package dgadomains

import (
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/gkn1fexxx/clx/datasets"
)

// ErrFeedFormat reports a feed body that produced no usable records.
var ErrFeedFormat = errors.New("feed contains no parseable domain rows")

// Feed describes one remote domain list.
type Feed struct {
	Name string // short label recorded as the source of each row
	URL  string
	Type int // datasets.TypeDGA or datasets.TypeBenign
}

// ParseDGA reads a line-oriented DGA feed. Header and comment lines start
// with '#' and are skipped, as are blank lines. Each data line is
// comma-separated with the domain in the first field.
func ParseDGA(r io.Reader) ([]datasets.Record, int, error) {
	var recs []datasets.Record
	var skipped int

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domain := strings.TrimSpace(strings.SplitN(line, ",", 2)[0])
		if !validDomain(domain) {
			skipped++
			continue
		}
		recs = append(recs, datasets.Record{Domain: domain, Type: datasets.TypeDGA})
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, errors.Wrap(err, "reading dga feed")
	}
	if len(recs) == 0 {
		return nil, skipped, ErrFeedFormat
	}
	return recs, skipped, nil
}

// ParseBenign reads a ranked benign listing in "index,domain" CSV form.
func ParseBenign(r io.Reader) ([]datasets.Record, int, error) {
	var recs []datasets.Record
	var skipped int

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, ",", 3)
		if len(fields) < 2 {
			skipped++
			continue
		}
		domain := strings.TrimSpace(fields[1])
		if !validDomain(domain) {
			skipped++
			continue
		}
		recs = append(recs, datasets.Record{Domain: domain, Type: datasets.TypeBenign})
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, errors.Wrap(err, "reading benign feed")
	}
	if len(recs) == 0 {
		return nil, skipped, ErrFeedFormat
	}
	return recs, skipped, nil
}

// Parse decodes and parses a feed body according to the feed type. name is
// used to pick the decompression: ".zip" bodies are unpacked from their first
// entry, ".gz" bodies are gunzipped, anything else is read as plain text.
func Parse(feed Feed, name string, body io.Reader) ([]datasets.Record, int, error) {
	text, err := decode(name, body)
	if err != nil {
		return nil, 0, err
	}
	if feed.Type == datasets.TypeBenign {
		return ParseBenign(text)
	}
	return ParseDGA(text)
}

func decode(name string, body io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".zip"):
		// archive/zip needs random access; feed archives are small enough
		// to buffer whole.
		buf, err := io.ReadAll(body)
		if err != nil {
			return nil, errors.Wrap(err, "buffering zip body")
		}
		zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
		if err != nil {
			return nil, errors.Wrap(err, "opening zip body")
		}
		if len(zr.File) == 0 {
			return nil, errors.New("zip body has no entries")
		}
		f, err := zr.File[0].Open()
		if err != nil {
			return nil, errors.Wrapf(err, "opening zip entry %q", zr.File[0].Name)
		}
		return f, nil
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, errors.Wrap(err, "opening gzip body")
		}
		return gz, nil
	default:
		return body, nil
	}
}

// validDomain keeps the parser honest without trying to be a full RFC
// validator: a domain has at least one dot, no spaces, and a sane length.
func validDomain(domain string) bool {
	if len(domain) < 3 || len(domain) > 253 {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	if strings.ContainsAny(domain, " \t\"'") {
		return false
	}
	return true
}
