// Package textenc decodes recognizer sidecars whose text encoding is not
// guaranteed. Decoders are tried in order and the first one that produces
// valid JSON wins.
package textenc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUndecodable indicates that no decoder in the chain produced valid JSON.
var ErrUndecodable = errors.New("undecodable document")

// ErrInvalidUTF8 indicates the input contains bytes that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("invalid utf-8")

// Decoder converts raw bytes in some text encoding into UTF-8.
type Decoder interface {
	Name() string
	Decode(data []byte) ([]byte, error)
}

// Compile-time interface verification.
var (
	_ Decoder = UTF8{}
	_ Decoder = Latin1{}
)

// UTF8 accepts input that is already valid UTF-8. A leading byte order
// mark is removed.
type UTF8 struct{}

func (UTF8) Name() string { return "utf-8" }

func (UTF8) Decode(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	return data, nil
}

// Latin1 reinterprets every byte as an ISO-8859-1 code point. It never
// fails on its own; the JSON parse that follows decides.
type Latin1 struct{}

func (Latin1) Name() string { return "latin-1" }

func (Latin1) Decode(data []byte) ([]byte, error) {
	return charmap.ISO8859_1.NewDecoder().Bytes(data)
}

// DefaultChain is the order used for recognizer sidecars.
var DefaultChain = []Decoder{UTF8{}, Latin1{}}

// FallbackFunc is called when a decoder fails and the next one is about
// to be tried.
type FallbackFunc func(failed Decoder, err error)

// DecodeJSON decodes data into v with the first decoder that yields valid
// JSON. Failures before the last decoder are reported through onFallback
// (which may be nil); the last failure is returned wrapped in ErrUndecodable.
func DecodeJSON(data []byte, v any, onFallback FallbackFunc, decoders ...Decoder) error {
	if len(decoders) == 0 {
		decoders = DefaultChain
	}

	var lastErr error
	for i, d := range decoders {
		err := decodeWith(d, data, v)
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("%s: %w", d.Name(), err)
		if i < len(decoders)-1 && onFallback != nil {
			onFallback(d, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrUndecodable, lastErr)
}

func decodeWith(d Decoder, data []byte, v any) error {
	text, err := d.Decode(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(text, v)
}
