package imagegen

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestToGrayscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 30, B: 90, A: 255})
		}
	}

	out, err := ToGrayscale(encodePNG(t, src))
	if err != nil {
		t.Fatalf("ToGrayscale() error: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			r, g, b, _ := decoded.At(x, y).RGBA()
			if r != g || g != b {
				t.Fatalf("pixel (%d,%d) not gray: r=%d g=%d b=%d", x, y, r, g, b)
			}
		}
	}
}

func TestToGrayscaleRejectsGarbage(t *testing.T) {
	if _, err := ToGrayscale([]byte("definitely not an image")); err == nil {
		t.Fatal("ToGrayscale() on garbage bytes should error")
	}
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTransient bool
	}{
		{"quota exceeded", errors.New("googleapi: Error 429: Quota exceeded"), true},
		{"rate limited", errors.New("rate limit reached, try again later"), true},
		{"service unavailable", errors.New("503 Service Unavailable"), true},
		{"resource exhausted", errors.New("rpc error: RESOURCE EXHAUSTED"), true},
		{"timeout", errors.New("request timeout"), true},
		{"safety block", errors.New("blocked by safety settings"), false},
		{"bad request", errors.New("400 invalid argument"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyAPIError(tt.err)
			if IsTransient(got) != tt.wantTransient {
				t.Errorf("classifyAPIError(%v) transient = %v, want %v", tt.err, IsTransient(got), tt.wantTransient)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(&TransientError{Err: errors.New("x")}) {
		t.Error("TransientError must be transient")
	}
	if IsTransient(&TerminalError{Err: errors.New("x")}) {
		t.Error("TerminalError must not be transient")
	}
	if IsTransient(&SourceImageError{Path: "a.png", Err: errors.New("x")}) {
		t.Error("SourceImageError must not be transient")
	}
	if IsTransient(errors.New("plain")) {
		t.Error("unclassified errors must not be transient")
	}
}

func TestMimeForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"ref.png", "image/png"},
		{"ref.jpg", "image/jpeg"},
		{"ref.JPEG", "image/jpeg"},
		{"ref.webp", "image/webp"},
		{"ref.gif", "image/gif"},
		{"ref.unknown", "image/png"},
	}
	for _, tt := range tests {
		if got := mimeForPath(tt.path); got != tt.want {
			t.Errorf("mimeForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
