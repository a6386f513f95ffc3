package textutil

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Encoding names accepted by Decode.
const (
	UTF8    = "utf-8"
	GBK     = "gbk"
	GB2312  = "gb2312"
	GB18030 = "gb18030"
	Big5    = "big5"
)

// SidecarEncodings is the order tried for scanner sidecar files.
var SidecarEncodings = []string{UTF8, GBK, GB2312, GB18030, Big5}

// ErrUndecodable reports that no candidate encoding produced acceptable text.
var ErrUndecodable = errors.New("no candidate encoding produced valid text")

var legacy = map[string]encoding.Encoding{
	GBK: simplifiedchinese.GBK,
	// EUC-CN is a subset of GBK.
	GB2312:  simplifiedchinese.GBK,
	GB18030: simplifiedchinese.GB18030,
	Big5:    traditionalchinese.Big5,
}

var (
	utf8BOM     = []byte{0xEF, 0xBB, 0xBF}
	replacement = []byte{0xEF, 0xBF, 0xBD}
)

// Decode converts data to UTF-8 using the first encoding, in order, that
// decodes without replacement characters and whose output accept takes.
// accept may be nil. It returns the decoded bytes and the encoding used.
func Decode(data []byte, accept func([]byte) error, encodings ...string) ([]byte, string, error) {
	if len(encodings) == 0 {
		encodings = SidecarEncodings
	}
	var lastErr error
	for _, name := range encodings {
		name = strings.ToLower(strings.TrimSpace(name))
		text, err := decodeAs(data, name)
		if err == nil && accept != nil {
			err = accept(text)
		}
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", name, err)
			continue
		}
		return text, name, nil
	}
	if lastErr == nil {
		return nil, "", ErrUndecodable
	}
	return nil, "", fmt.Errorf("%w: %w", ErrUndecodable, lastErr)
}

func decodeAs(data []byte, name string) ([]byte, error) {
	if name == UTF8 || name == "utf8" {
		text := bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(text) {
			return nil, errors.New("invalid utf-8")
		}
		return text, nil
	}
	enc, ok := legacy[name]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	text, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, err
	}
	// Legacy decoders substitute U+FFFD for invalid sequences instead of failing.
	if bytes.Contains(text, replacement) && !bytes.Contains(data, replacement) {
		return nil, errors.New("invalid byte sequence")
	}
	return text, nil
}

// SupportedEncoding reports whether Decode understands name.
func SupportedEncoding(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == UTF8 || name == "utf8" {
		return true
	}
	_, ok := legacy[name]
	return ok
}
