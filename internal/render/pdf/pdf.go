package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/gompdf/gomsheet/internal/res"
)

// Compression selects how placed images are stored.
type Compression string

const (
	CompressionNone   Compression = "NONE"
	CompressionFast   Compression = "FAST"
	CompressionMedium Compression = "MEDIUM"
	CompressionSlow   Compression = "SLOW"
)

func (c Compression) pngLevel() png.CompressionLevel {
	switch c {
	case CompressionNone:
		return png.NoCompression
	case CompressionFast:
		return png.BestSpeed
	case CompressionSlow:
		return png.BestCompression
	default:
		return png.DefaultCompression
	}
}

// Config describes the document to create.
type Config struct {
	Unit        string // "mm", "pt", "cm" or "in"
	Format      string // "A4", "Letter", ...
	Orientation string // "portrait" or "landscape"
	Compress    bool
	Title       string
	Author      string
	Creator     string
	Producer    string
}

// DefaultConfig is an A4 portrait document measured in millimetres.
func DefaultConfig() Config {
	return Config{
		Unit:        "mm",
		Format:      "A4",
		Orientation: "portrait",
		Compress:    true,
		Creator:     "gomsheet",
		Producer:    "gomsheet",
	}
}

// Document is a PDF under assembly. It starts with one empty page.
type Document struct {
	pdf    *fpdf.Fpdf
	cfg    Config
	images int
}

// New creates a document and its first page.
func New(cfg Config) (*Document, error) {
	def := DefaultConfig()
	if cfg.Unit == "" {
		cfg.Unit = def.Unit
	}
	if cfg.Format == "" {
		cfg.Format = def.Format
	}
	if cfg.Orientation == "" {
		cfg.Orientation = def.Orientation
	}

	f := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation(cfg.Orientation),
		UnitStr:        cfg.Unit,
		SizeStr:        cfg.Format,
	})
	if err := f.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to create document")
	}
	f.SetCompression(cfg.Compress)
	f.SetAutoPageBreak(false, 0)
	f.SetMargins(0, 0, 0)
	f.SetTitle(cfg.Title, true)
	f.SetAuthor(cfg.Author, true)
	f.SetCreator(cfg.Creator, true)
	f.SetProducer(cfg.Producer, true)
	f.AddPage()
	return &Document{pdf: f, cfg: cfg}, nil
}

func orientation(o string) string {
	switch o {
	case "landscape", "L", "l":
		return "L"
	default:
		return "P"
	}
}

// PageSize returns the current page's width and height in document units.
func (d *Document) PageSize() (float64, float64) {
	return d.pdf.GetPageSize()
}

// PageCount returns the number of pages added so far.
func (d *Document) PageCount() int {
	return d.pdf.PageCount()
}

// AddPage appends a page of the given format and orientation. Empty values reuse the
// document's configuration.
func (d *Document) AddPage(format, orient string) error {
	if format == "" {
		format = d.cfg.Format
	}
	if orient == "" {
		orient = d.cfg.Orientation
	}
	size := d.pdf.GetPageSizeStr(format)
	if err := d.pdf.Error(); err != nil {
		return errors.Wrapf(err, "unknown page format %q", format)
	}
	d.pdf.AddPageFormat(orientation(orient), size)
	return d.pdf.Error()
}

// AddImage places a PNG data URL on the current page at (x, y) with size w x h.
func (d *Document) AddImage(dataURL string, x, y, w, h float64, compression Compression) error {
	r, err := res.ParseDataURL(dataURL)
	if err != nil {
		return errors.Wrap(err, "failed to read image")
	}
	if r.MimeType != "image/png" {
		return fmt.Errorf("unsupported image type %q", r.MimeType)
	}
	data, err := recompress(r.Data, compression)
	if err != nil {
		return err
	}

	d.images++
	name := fmt.Sprintf("page-image-%d", d.images)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := d.pdf.Error(); err != nil {
		return errors.Wrap(err, "failed to register image")
	}
	d.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return d.pdf.Error()
}

// recompress re-encodes PNG data with the level matching compression.
func recompress(data []byte, compression Compression) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode PNG")
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: compression.pngLevel()}
	if err := enc.Encode(&buf, flatten(img)); err != nil {
		return nil, errors.Wrap(err, "failed to encode PNG")
	}
	return buf.Bytes(), nil
}

// flatten drops the alpha channel so the image is embedded without a soft mask.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			// Composite over white.
			inv := 0xffff - a
			i := out.PixOffset(x, y)
			out.Pix[i+0] = uint8((r + inv) >> 8)
			out.Pix[i+1] = uint8((g + inv) >> 8)
			out.Pix[i+2] = uint8((bl + inv) >> 8)
			out.Pix[i+3] = 0xff
		}
	}
	return out
}

// Save writes the document to path. The file only appears once it is complete.
func (d *Document) Save(path string) error {
	if err := d.pdf.Error(); err != nil {
		return errors.Wrap(err, "document is in an error state")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	tmp, err := os.CreateTemp(dir, ".gomsheet-*.pdf")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	defer os.Remove(tmp.Name())

	if err := d.pdf.Output(tmp); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write PDF")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write PDF")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "failed to move PDF into place")
	}
	return nil
}
