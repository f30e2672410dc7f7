package imageenc_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/sitewright/engine/imageenc"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestEncode_PNG(t *testing.T) {
	data := pngBytes(t)

	uri, err := imageenc.Encode("mockup.png", data)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %s", uri[:40])
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Error("png payload was modified by encoding")
	}
}

func TestEncode_JPEG(t *testing.T) {
	uri, err := imageenc.Encode("photo.jpg", jpegBytes(t))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("unexpected prefix: %s", uri[:40])
	}
}

func TestEncode_SniffsBytesNotName(t *testing.T) {
	// A PNG payload with a misleading name still encodes as PNG.
	uri, err := imageenc.Encode("actually-a-png.jpg", pngBytes(t))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("format should come from magic bytes, got: %s", uri[:40])
	}
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	_, err := imageenc.Encode("notes.txt", []byte("not an image"))
	if err == nil {
		t.Fatal("Expected error for non-image bytes")
	}

	var uErr *imageenc.ErrUnsupported
	if !errors.As(err, &uErr) {
		t.Fatalf("Expected ErrUnsupported, got %T", err)
	}
	if uErr.Name != "notes.txt" {
		t.Errorf("error names %q, want notes.txt", uErr.Name)
	}
}

func TestEncode_TruncatedInput(t *testing.T) {
	if _, err := imageenc.Encode("tiny", []byte{0x89}); err == nil {
		t.Error("Expected error for truncated input")
	}
}
