package tray

import (
	"bytes"
	"image"
	"image/color"

	ico "github.com/Kodeworks/golang-image-ico"
)

var (
	iconFill   = color.NRGBA{R: 0x1f, G: 0x6f, B: 0xeb, A: 0xff}
	iconAccent = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// renderIcon draws a filled disc with a centred dot.
func renderIcon(size int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	c := float64(size-1) / 2
	outer := c * c
	inner := (c / 3) * (c / 3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)-c, float64(y)-c
			d := dx*dx + dy*dy
			switch {
			case d <= inner:
				img.SetNRGBA(x, y, iconAccent)
			case d <= outer:
				img.SetNRGBA(x, y, iconFill)
			}
		}
	}
	return img
}

// iconICO returns the tray icon encoded as .ico bytes.
func iconICO(size int) ([]byte, error) {
	var buf bytes.Buffer
	if err := ico.Encode(&buf, renderIcon(size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
