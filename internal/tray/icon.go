package tray

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// ResourceError reports an icon that could not be loaded. It is fatal at startup.
type ResourceError struct {
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("failed to load icon %s: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// LoadIcon reads the tray icon at path. An empty path selects the built-in icon.
func LoadIcon(path string) ([]byte, error) {
	if path == "" {
		return defaultIcon(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ResourceError{Path: path, Err: err}
	}
	if len(data) == 0 {
		return nil, &ResourceError{Path: path, Err: fmt.Errorf("file is empty")}
	}
	return data, nil
}

// defaultIcon draws a 32x32 PNG of a blue disc with a white ring.
func defaultIcon() []byte {
	const size = 32
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	fill := color.NRGBA{R: 0x1f, G: 0x6f, B: 0xd0, A: 0xff}
	ring := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	c := float64(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			d := dx*dx + dy*dy
			switch {
			case d <= 6*6:
				img.SetNRGBA(x, y, fill)
			case d <= 9*9:
				img.SetNRGBA(x, y, ring)
			case d <= 15*15:
				img.SetNRGBA(x, y, fill)
			}
		}
	}

	var buf bytes.Buffer
	// Encoding an in-memory NRGBA image cannot fail.
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
