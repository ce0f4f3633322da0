package dgadomains

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gkn1fexxx/clx/datasets"
)

const sampleDGAFeed = `## Feed of known DGA domains
## Generated for testing
#
xkpbmtsrwuhxhcp.com,Domain used by Cryptolocker,2019-06-25,http://example.com/cl.txt

qagmbvxbqvtaxwm.net,Domain used by Cryptolocker,2019-06-25,http://example.com/cl.txt
not_a_domain,whatever,2019-06-25
uiskkzodchhalwr.biz,Domain used by Cryptolocker,2019-06-25,http://example.com/cl.txt
`

func TestParseDGA(t *testing.T) {
	recs, skipped, err := ParseDGA(strings.NewReader(sampleDGAFeed))
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, recs, 3)
	assert.Equal(t, "xkpbmtsrwuhxhcp.com", recs[0].Domain)
	assert.Equal(t, "qagmbvxbqvtaxwm.net", recs[1].Domain)
	assert.Equal(t, "uiskkzodchhalwr.biz", recs[2].Domain)
	for _, rec := range recs {
		assert.Equal(t, datasets.TypeDGA, rec.Type)
	}
}

func TestParseDGAEmpty(t *testing.T) {
	_, _, err := ParseDGA(strings.NewReader("## only headers\n#\n"))
	assert.ErrorIs(t, err, ErrFeedFormat)
}

func TestParseBenign(t *testing.T) {
	body := "1,google.com\n2,youtube.com\n3,\n4,facebook.com\nbogusline\n"
	recs, skipped, err := ParseBenign(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, 2, skipped)
	require.Len(t, recs, 3)
	assert.Equal(t, "google.com", recs[0].Domain)
	assert.Equal(t, "youtube.com", recs[1].Domain)
	assert.Equal(t, "facebook.com", recs[2].Domain)
	for _, rec := range recs {
		assert.Equal(t, datasets.TypeBenign, rec.Type)
	}
}

func TestParseZipBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("top-1m.csv")
	require.NoError(t, err)
	_, err = f.Write([]byte("1,google.com\n2,youtube.com\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	feed := Feed{Name: "benign", URL: "http://example.com/top-1m.csv.zip", Type: datasets.TypeBenign}
	recs, _, err := Parse(feed, "top-1m.csv.zip", &buf)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "google.com", recs[0].Domain)
}

func TestParseGzipBody(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(sampleDGAFeed))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	feed := Feed{Name: "dga", URL: "http://example.com/dga-feed.txt.gz", Type: datasets.TypeDGA}
	recs, _, err := Parse(feed, "dga-feed.txt.gz", &buf)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestValidDomain(t *testing.T) {
	assert.True(t, validDomain("example.com"))
	assert.True(t, validDomain("a.b"))
	assert.False(t, validDomain("localhost"))
	assert.False(t, validDomain("has space.com"))
	assert.False(t, validDomain(""))
	assert.False(t, validDomain(strings.Repeat("a", 300)+".com"))
}

// sanity check fuzz: no body may crash the parser or smuggle an invalid
// domain into the records
func FuzzParseDGA(f *testing.F) {
	f.Add(sampleDGAFeed)
	f.Add("# header only\n")
	f.Add("domain.com,source,2019-01-01\n")
	f.Add(",,,\n#\n\n")
	f.Fuzz(func(t *testing.T, body string) {
		recs, _, err := ParseDGA(strings.NewReader(body))
		if err != nil {
			return
		}
		for _, rec := range recs {
			if rec.Type != datasets.TypeDGA {
				t.Errorf("record %q has type %d, want %d", rec.Domain, rec.Type, datasets.TypeDGA)
			}
			if !validDomain(rec.Domain) {
				t.Errorf("invalid domain %q survived parsing", rec.Domain)
			}
		}
	})
}
