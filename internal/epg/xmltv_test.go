// SPDX-License-Identifier: MIT

package epg

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<tv generator-info-name="epg-ripper" source-info-name="upstream">
  <channel id="RTP1.pt">
    <display-name>RTP 1</display-name>
    <icon src="http://example.com/rtp1.png"/>
  </channel>
  <programme start="20240101000000 +0000" stop="20240101010000 +0000" channel="RTP1.pt" clumpidx="0/1">
    <title lang="pt">Telejornal</title>
    <desc lang="pt">Notici&#225;rio</desc>
  </programme>
  <programme start="20240101010000 +0000" stop="20240101020000 +0000" channel="RTP1.pt">
    <title lang="pt">Cinema</title>
  </programme>
</tv>
`

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParsePlainFeed(t *testing.T) {
	doc, err := Parse([]byte(sampleFeed))
	require.NoError(t, err)

	assert.Equal(t, RootTag, doc.XMLName.Local)
	require.Len(t, doc.Channels, 1)
	assert.Equal(t, "RTP1.pt", doc.Channels[0].ID)
	assert.Contains(t, doc.Channels[0].Inner, "<display-name>RTP 1</display-name>")

	require.Len(t, doc.Programmes, 2)
	first := doc.Programmes[0]
	assert.Equal(t, "20240101000000 +0000", first.Start)
	assert.Equal(t, "20240101010000 +0000", first.Stop)
	assert.Equal(t, "RTP1.pt", first.Channel)
	assert.Contains(t, first.Inner, `<title lang="pt">Telejornal</title>`)

	// Attributes the processor has no model for must be carried along.
	require.Len(t, first.Attrs, 1)
	assert.Equal(t, "clumpidx", first.Attrs[0].Name.Local)
	assert.Equal(t, "0/1", first.Attrs[0].Value)
}

func TestParseGzipFramedFeed(t *testing.T) {
	framed := gzipBytes(t, []byte(sampleFeed))
	require.True(t, IsGzip(framed))

	doc, err := Parse(framed)
	require.NoError(t, err)
	assert.Len(t, doc.Programmes, 2)
}

func TestParseWrongRootStillDecodes(t *testing.T) {
	doc, err := Parse([]byte(`<guide><programme start="x"/></guide>`))
	require.NoError(t, err)
	// The wrong root is a structural validation concern, not a parse error.
	assert.Equal(t, "guide", doc.XMLName.Local)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("this is not xml <"))
	assert.Error(t, err)
}

func TestParseRejectsCorruptGzip(t *testing.T) {
	_, err := Parse([]byte{0x1f, 0x8b, 0xff, 0x00})
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(sampleFeed))
	require.NoError(t, err)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte(`<?xml version="1.0" encoding="UTF-8"?>`)))

	reparsed, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, RootTag, reparsed.XMLName.Local)
	require.Len(t, reparsed.Programmes, 2)
	assert.Equal(t, doc.Programmes[0].Start, reparsed.Programmes[0].Start)
	assert.Contains(t, reparsed.Programmes[0].Inner, "Telejornal")
	assert.Contains(t, reparsed.Channels[0].Inner, "display-name")
}

func TestStampProcessing(t *testing.T) {
	doc, err := Parse([]byte(sampleFeed))
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	doc.StampProcessing("epgshift", "1.1.0", now)

	require.NotNil(t, doc.Metadata)
	require.Len(t, doc.Metadata.Processing, 1)
	p := doc.Metadata.Processing[0]
	assert.Equal(t, "epgshift", p.Processor)
	assert.Equal(t, "1.1.0", p.Version)
	assert.Equal(t, "2024-06-01T12:00:00Z", p.Timestamp)
	assert.Equal(t, "true", p.TimeshiftApplied)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), `processor="epgshift"`)
	assert.Contains(t, string(out), `timeshift_applied="true"`)

	// Stamping twice appends a second record.
	doc.StampProcessing("epgshift", "1.1.0", now.Add(time.Hour))
	assert.Len(t, doc.Metadata.Processing, 2)
}

func TestMarshalEmptyDocumentGetsRootTag(t *testing.T) {
	var doc TV
	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(out), "<tv>") || strings.Contains(string(out), "<tv "),
		"expected tv root element, got: %s", out)
}
