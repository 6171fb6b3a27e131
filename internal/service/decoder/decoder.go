// Package decoder turns base64 request payloads into BGR images.
package decoder

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	// Registered formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/fearless-dhbw/img-classification/internal/model"
)

// ErrEmptyPayload is returned for a payload with no image data.
var ErrEmptyPayload = errors.New("empty image payload")

// DecodeError reports a payload that is not a decodable image.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode image: %s: %v", e.Reason, e.Err)
	}
	return "decode image: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StripDataURI removes a leading "data:<mime>;base64," prefix if present.
func StripDataURI(payload string) string {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, "data:") {
		return payload
	}
	if i := strings.Index(payload, ","); i >= 0 {
		return payload[i+1:]
	}
	return payload
}

// DecodeBase64 decodes standard base64, padded or not, ignoring whitespace.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, &DecodeError{Reason: "no data", Err: ErrEmptyPayload}
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if rawErr != nil {
			return nil, &DecodeError{Reason: "invalid base64", Err: err}
		}
	}
	return data, nil
}

// Decode parses a base64 payload, optionally prefixed by a data URI, into an image.
func Decode(payload string) (*model.Image, error) {
	data, err := DecodeBase64(StripDataURI(payload))
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an encoded image (JPEG, PNG, GIF, BMP, TIFF, WebP).
func DecodeBytes(data []byte) (*model.Image, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Reason: "no data", Err: ErrEmptyPayload}
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Reason: "unsupported or corrupt image", Err: err}
	}

	img := model.FromImage(src)
	if img.Empty() {
		return nil, &DecodeError{Reason: fmt.Sprintf("decoded %s image is empty", format)}
	}
	return img, nil
}
