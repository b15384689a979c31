package httpclient

import (
	"io"
	"mime"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// charsetEncoding picks the text encoding named by a Content-Type header.
// Missing or unknown charsets decode as UTF-8.
func charsetEncoding(contentType string) encoding.Encoding {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return unicode.UTF8
	}
	charset := strings.TrimSpace(params["charset"])
	if charset == "" {
		return unicode.UTF8
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return unicode.UTF8
	}
	return enc
}

// newTextReader wraps r with a decoder that carries incomplete multi-byte
// sequences over to the next Read.
func newTextReader(r io.Reader, contentType string) io.Reader {
	return transform.NewReader(r, charsetEncoding(contentType).NewDecoder())
}
