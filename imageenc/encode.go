// Package imageenc converts uploaded mockup files into inline data URIs for
// the analysis provider. Formats are sniffed from magic bytes rather than
// trusted from the filename, and WEBP uploads are re-encoded to PNG since not
// every vision endpoint accepts WEBP input.
package imageenc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/kolesa-team/go-webp/decoder"
	"github.com/kolesa-team/go-webp/webp"
)

// ErrUnsupported reports an upload whose bytes match no supported format.
type ErrUnsupported struct {
	Name string
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("unsupported image format: %s", e.Name)
}

// Encode converts raw upload bytes into a base64 data URI. The name is used
// only for error reporting.
func Encode(name string, data []byte) (string, error) {
	switch {
	case isPNG(data):
		return dataURI("image/png", data), nil
	case isJPEG(data):
		return dataURI("image/jpeg", data), nil
	case isGIF(data):
		return dataURI("image/gif", data), nil
	case isWEBP(data):
		converted, err := webpToPNG(data)
		if err != nil {
			return "", fmt.Errorf("convert webp upload %s: %w", name, err)
		}
		return dataURI("image/png", converted), nil
	default:
		return "", &ErrUnsupported{Name: name}
	}
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func webpToPNG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data), &decoder.Options{})
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func isPNG(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	return bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
}

func isJPEG(data []byte) bool {
	if len(data) < 3 {
		return false
	}
	return data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff
}

func isGIF(data []byte) bool {
	if len(data) < 6 {
		return false
	}
	return string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"
}

func isWEBP(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	return string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}
