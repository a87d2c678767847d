// SPDX-License-Identifier: MIT

// Package epg models an XMLTV document just deeply enough to rewrite
// programme timestamps. Everything the processor does not touch is carried
// through verbatim: unknown attributes via catch-all attr fields, element
// content via raw inner XML.
package epg

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"
)

// RootTag is the element name a well-formed feed document must carry.
const RootTag = "tv"

// maxDocumentSize bounds decompression and parsing to keep a hostile feed
// from exhausting memory.
const maxDocumentSize = 256 * 1024 * 1024

var gzipMagic = []byte{0x1f, 0x8b}

// TV is the document root. XMLName is left unconstrained so that a document
// with the wrong root tag still parses and can be rejected by validation
// instead of failing opaquely inside the decoder.
type TV struct {
	XMLName    xml.Name
	Attrs      []xml.Attr  `xml:",any,attr"`
	Channels   []Channel   `xml:"channel"`
	Programmes []Programme `xml:"programme"`
	Metadata   *Metadata   `xml:"metadata"`
	Extra      []Element   `xml:",any"`
}

// Channel is a channel record. Only the id attribute is interpreted.
type Channel struct {
	ID    string     `xml:"id,attr"`
	Attrs []xml.Attr `xml:",any,attr"`
	Inner string     `xml:",innerxml"`
}

// Programme is a programme record. The processor rewrites the start and
// stop attributes; all other attributes and the element body pass through
// untouched.
type Programme struct {
	Start   string     `xml:"start,attr"`
	Stop    string     `xml:"stop,attr"`
	Channel string     `xml:"channel,attr"`
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// Element preserves document children the processor has no model for.
type Element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   string     `xml:",innerxml"`
}

// Metadata is the processing-run record appended to published documents.
type Metadata struct {
	Processing []Processing `xml:"processing"`
}

// Processing describes one processing run.
type Processing struct {
	Processor        string `xml:"processor,attr"`
	Version          string `xml:"version,attr"`
	Timestamp        string `xml:"timestamp,attr"`
	TimeshiftApplied string `xml:"timeshift_applied,attr"`
}

// IsGzip reports whether data carries the gzip magic prefix.
func IsGzip(data []byte) bool {
	return bytes.HasPrefix(data, gzipMagic)
}

// Decompress gunzips data, bounded by the document size limit.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer func() { _ = zr.Close() }()

	out, err := io.ReadAll(io.LimitReader(zr, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("decompress feed: %w", err)
	}
	return out, nil
}

// Parse decodes a feed buffer into a document, transparently decompressing
// gzip-framed input.
func Parse(data []byte) (*TV, error) {
	if IsGzip(data) {
		plain, err := Decompress(data)
		if err != nil {
			return nil, err
		}
		data = plain
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	// Disable entity expansion to prevent XXE-style blowups.
	dec.Entity = make(map[string]string)

	var doc TV
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return &doc, nil
}

// Marshal serializes the document back to bytes, prefixed with the XML
// declaration.
func (tv *TV) Marshal() ([]byte, error) {
	if tv.XMLName.Local == "" {
		tv.XMLName.Local = RootTag
	}
	body, err := xml.MarshalIndent(tv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// StampProcessing appends a processing record describing this run to the
// document's metadata element, creating the element if needed.
func (tv *TV) StampProcessing(processor, version string, now time.Time) {
	if tv.Metadata == nil {
		tv.Metadata = &Metadata{}
	}
	tv.Metadata.Processing = append(tv.Metadata.Processing, Processing{
		Processor:        processor,
		Version:          version,
		Timestamp:        now.Format(time.RFC3339),
		TimeshiftApplied: "true",
	})
}
