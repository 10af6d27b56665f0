package transport

import (
	"context"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// EncodingPort wraps another Port and transcodes bytes through a legacy
// 8-bit charset, for displays that speak ISO-8859-1 instead of plain
// ASCII on their NMEA sentences.
type EncodingPort struct {
	inner Port
	enc   encoding.Encoding
	rd    io.Reader
	wr    io.Writer
}

// NewEncodingPort wraps inner so Read runs decoded-to-UTF-8 bytes through
// enc's decoder and Write runs UTF-8 bytes through its encoder. name picks
// a charmap.Charmap by IANA name (e.g. "ISO-8859-1"); an unknown name
// falls back to charmap.ISO8859_1.
func NewEncodingPort(inner Port, name string) *EncodingPort {
	cm := charmap.ISO8859_1
	if byName, ok := ianaCharmaps[name]; ok {
		cm = byName
	}
	return &EncodingPort{inner: inner, enc: cm}
}

var ianaCharmaps = map[string]*charmap.Charmap{
	"ISO-8859-1":   charmap.ISO8859_1,
	"ISO-8859-15":  charmap.ISO8859_15,
	"Windows-1252": charmap.Windows1252,
}

func (p *EncodingPort) Initialize(ctx context.Context) error {
	if err := p.inner.Initialize(ctx); err != nil {
		return err
	}
	p.rd = transform.NewReader(p.inner, p.enc.NewDecoder())
	p.wr = transform.NewWriter(p.inner, p.enc.NewEncoder())
	return nil
}

func (p *EncodingPort) Read(b []byte) (int, error)  { return p.rd.Read(b) }
func (p *EncodingPort) Write(b []byte) (int, error) { return p.wr.Write(b) }
func (p *EncodingPort) Flush() error                { return p.inner.Flush() }
func (p *EncodingPort) Close() error                { return p.inner.Close() }
