package glaze

import (
	"bytes"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

var replacementChar = []byte(string(utf8.RuneError))

var (
	defaultEncodingMu sync.RWMutex
	defaultEncoding   = DefaultEncodingName
)

// SetDefaultEncoding sets the process-wide source encoding used when neither
// the template options nor the engine declare one.
func SetDefaultEncoding(name string) {
	defaultEncodingMu.Lock()
	defer defaultEncodingMu.Unlock()
	if name == "" {
		name = DefaultEncodingName
	}
	defaultEncoding = name
}

// DefaultEncoding returns the process-wide source encoding.
func DefaultEncoding() string {
	defaultEncodingMu.RLock()
	defer defaultEncodingMu.RUnlock()
	return defaultEncoding
}

// Decode converts data from the named encoding to a UTF-8 string.
// Bytes that are not valid in that encoding are an encoding error.
func Decode(data []byte, encoding string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(encoding))
	switch name {
	case EncodingUTF8, EncodingUTF8Bare:
		if !utf8.Valid(data) {
			return "", NewEncodingError(ErrMsgInvalidBytes, encoding, nil)
		}
		return string(data), nil
	case EncodingASCII, EncodingASCIIAlt:
		for _, b := range data {
			if b >= utf8.RuneSelf {
				return "", NewEncodingError(ErrMsgInvalidBytes, encoding, nil)
			}
		}
		return string(data), nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", NewEncodingError(ErrMsgUnknownEncoding, encoding, err)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", NewEncodingError(ErrMsgInvalidBytes, encoding, err)
	}
	// Decoders substitute U+FFFD for malformed input.
	if bytes.Contains(out, replacementChar) && !bytes.Contains(data, replacementChar) {
		return "", NewEncodingError(ErrMsgInvalidBytes, encoding, nil)
	}
	return string(out), nil
}
