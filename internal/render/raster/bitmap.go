package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
)

// Bitmap is the captured image of one page.
type Bitmap interface {
	Width() int
	Height() int
	// PNGDataURL encodes the bitmap losslessly as a data:image/png URL.
	PNGDataURL() (string, error)
}

// Canvas is the Bitmap produced by Rasterizer.
type Canvas struct {
	img image.Image
}

// NewCanvas wraps img.
func NewCanvas(img image.Image) *Canvas {
	return &Canvas{img: img}
}

func (c *Canvas) Width() int         { return c.img.Bounds().Dx() }
func (c *Canvas) Height() int        { return c.img.Bounds().Dy() }
func (c *Canvas) Image() image.Image { return c.img }

// PNGDataURL encodes the canvas as a base64 PNG data URL.
func (c *Canvas) PNGDataURL() (string, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, c.img); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
