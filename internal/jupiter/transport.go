package jupiter

import (
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/http2"
)

const acceptEncoding = "br, zstd, gzip"

// newHTTPClient builds the pooled handle shared by every call of a Client.
func newHTTPClient(cfg ClientConfig, header http.Header) (*http.Client, error) {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		// Encoding is negotiated by headerTransport.
		DisableCompression: true,
	}

	h2, err := http2.ConfigureTransports(base)
	if err != nil {
		return nil, err
	}
	h2.ReadIdleTimeout = 30 * time.Second
	h2.PingTimeout = 15 * time.Second

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &headerTransport{base: base, header: header},
	}, nil
}

// headerTransport attaches the default headers to every request and decodes
// compressed response bodies.
type headerTransport struct {
	base   http.RoundTripper
	header http.Header
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, vs := range t.header {
		r.Header[k] = append([]string(nil), vs...)
	}
	if r.Header.Get("Accept-Encoding") == "" {
		r.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.base.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	decodeBody(resp)
	return resp, nil
}

func decodeBody(resp *http.Response) {
	var open func(io.Reader) (io.ReadCloser, error)
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		open = func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) }
	case "br":
		open = func(r io.Reader) (io.ReadCloser, error) { return io.NopCloser(brotli.NewReader(r)), nil }
	case "zstd":
		open = func(r io.Reader) (io.ReadCloser, error) {
			d, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return d.IOReadCloser(), nil
		}
	default:
		return
	}

	resp.Body = &decodingBody{body: resp.Body, open: open}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
}

// decodingBody opens the decoder on first read so an empty error body does
// not turn a status error into a transport error.
type decodingBody struct {
	body io.ReadCloser
	open func(io.Reader) (io.ReadCloser, error)
	dec  io.ReadCloser
	err  error
}

func (b *decodingBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.dec == nil {
		dec, err := b.open(b.body)
		if err != nil {
			b.err = err
			return 0, err
		}
		b.dec = dec
	}
	return b.dec.Read(p)
}

func (b *decodingBody) Close() error {
	if b.dec != nil {
		_ = b.dec.Close()
	}
	return b.body.Close()
}
