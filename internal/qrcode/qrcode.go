// Package qrcode turns confirmation codes into scannable PNG images.
package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	goqr "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels of generated images
const DefaultSize = 256

// Image is a rendered QR code. Fallback is set when encoding failed and PNG
// holds the error glyph instead.
type Image struct {
	PNG      []byte
	Fallback bool
}

// Encode renders payload as a PNG QR code with medium error correction
func Encode(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	q, err := goqr.New(payload, goqr.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr payload: %w", err)
	}
	out, err := q.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("render qr png: %w", err)
	}
	return out, nil
}

// Render is Encode that never fails: any encoding error yields the fallback
// glyph.
func Render(payload string, size int) Image {
	out, err := Encode(payload, size)
	if err != nil {
		return Image{PNG: Fallback(size), Fallback: true}
	}
	return Image{PNG: out}
}

var (
	fallbackMu    sync.Mutex
	fallbackCache = map[int][]byte{}
)

// Fallback returns the error glyph: a white tile crossed in red
func Fallback(size int) []byte {
	if size <= 0 {
		size = DefaultSize
	}
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	if b, ok := fallbackCache[size]; ok {
		return b
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	red := color.RGBA{R: 0xe0, G: 0x20, B: 0x20, A: 0xff}
	stroke := size / 16
	if stroke < 1 {
		stroke = 1
	}
	margin := size / 4
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, white)
			if x < margin || x >= size-margin || y < margin || y >= size-margin {
				continue
			}
			if abs(x-y) <= stroke || abs(x+y-(size-1)) <= stroke {
				img.Set(x, y, red)
			}
		}
	}

	var buf bytes.Buffer
	// encoding an in-memory RGBA image cannot fail
	_ = png.Encode(&buf, img)
	fallbackCache[size] = buf.Bytes()
	return fallbackCache[size]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
