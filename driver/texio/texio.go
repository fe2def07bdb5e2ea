// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package texio loads and saves texture data in common
// image file formats.
package texio

import (
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"slices"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/gviegas/rhi/driver"
)

// Format is an image file format.
type Format int

// Image file formats.
const (
	PNG Format = iota
	JPEG
	GIF
	BMP
	TIFF
)

var formatNames = [...]string{
	PNG:  "png",
	JPEG: "jpeg",
	GIF:  "gif",
	BMP:  "bmp",
	TIFF: "tiff",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "unknown"
	}
	return formatNames[f]
}

// formatOf returns the Format whose name is name, as
// reported by image.Decode.
func formatOf(name string) (Format, error) {
	for i, s := range formatNames {
		if s == name {
			return Format(i), nil
		}
	}
	return 0, errors.New("texio: unknown image format " + name)
}

// JPEGQuality is the quality used when encoding JPEG.
const JPEGQuality = 90

// Image is a 2D image whose rows are tightly packed, as
// expected by Texture.Pack.
// Format is one of R8un (gray images), RGBA8un, RGBA8sRGB,
// BGRA8un or BGRA8sRGB. Color data is not premultiplied.
type Image struct {
	Width  int
	Height int
	Format driver.PixelFormat
	Data   []byte
}

// Meta returns the description of a 2D texture that can
// hold img.
func (img *Image) Meta(mips int, usg driver.Usage) driver.TextureMeta {
	return driver.Texture2D(img.Width, img.Height, img.Format, mips, usg)
}

// check checks that img describes a valid image.
func (img *Image) check() error {
	switch img.Format {
	case driver.R8un, driver.RGBA8un, driver.RGBA8sRGB, driver.BGRA8un, driver.BGRA8sRGB:
	default:
		return driver.Unsupported("image pixel format", img.Format)
	}
	if img.Width <= 0 || img.Height <= 0 {
		return &driver.RangeError{Op: "Image size", Index: min(img.Width, img.Height), Len: 0}
	}
	if n := img.Width * img.Height * img.Format.Size(); len(img.Data) != n {
		return &driver.RangeError{Op: "Image.Data", Index: len(img.Data), Len: n + 1}
	}
	return nil
}

// fromImage converts src to an Image.
// Gray images produce R8un data and everything else
// produces RGBA8un data.
func fromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if g, ok := src.(*image.Gray); ok {
		img := &Image{Width: w, Height: h, Format: driver.R8un, Data: make([]byte, w*h)}
		for y := range h {
			i := g.PixOffset(b.Min.X, b.Min.Y+y)
			copy(img.Data[y*w:(y+1)*w], g.Pix[i:i+w])
		}
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Rect, src, b.Min, xdraw.Src)
	return &Image{Width: w, Height: h, Format: driver.RGBA8un, Data: dst.Pix}
}

// toImage returns an image.Image that shares or copies
// the data of img.
func (img *Image) toImage() (image.Image, error) {
	if err := img.check(); err != nil {
		return nil, err
	}
	r := image.Rect(0, 0, img.Width, img.Height)
	switch img.Format {
	case driver.R8un:
		return &image.Gray{Pix: img.Data, Stride: img.Width, Rect: r}, nil
	case driver.BGRA8un, driver.BGRA8sRGB:
		pix := slices.Clone(img.Data)
		swapRB(pix)
		return &image.NRGBA{Pix: pix, Stride: img.Width * 4, Rect: r}, nil
	}
	return &image.NRGBA{Pix: img.Data, Stride: img.Width * 4, Rect: r}, nil
}

// Decode decodes an image from r.
// It returns the format in which the image was encoded.
func Decode(r io.Reader) (*Image, Format, error) {
	src, name, err := image.Decode(r)
	if err != nil {
		return nil, 0, err
	}
	f, err := formatOf(name)
	if err != nil {
		return nil, 0, err
	}
	img := fromImage(src)
	driver.Logger().Debug("image decoded", "format", f, "width", img.Width, "height", img.Height)
	return img, f, nil
}

// Encode encodes img to w in the given format.
// GIF encoding quantizes colors to a 256-color palette.
func Encode(w io.Writer, img *Image, f Format) error {
	m, err := img.toImage()
	if err != nil {
		return err
	}
	switch f {
	case PNG:
		return png.Encode(w, m)
	case JPEG:
		return jpeg.Encode(w, m, &jpeg.Options{Quality: JPEGQuality})
	case GIF:
		return gif.Encode(w, m, nil)
	case BMP:
		return bmp.Encode(w, m)
	case TIFF:
		return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
	}
	return driver.Unsupported("image format", f)
}

// Load decodes the image stored in s, starting from the
// beginning of the stream.
func Load(s *driver.MemStream) (*Image, Format, error) {
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return nil, 0, err
	}
	return Decode(s)
}

// Save encodes img in the given format into a new
// MemStream.
func Save(img *Image, f Format) (*driver.MemStream, error) {
	s := driver.NewMemStream(nil)
	if err := Encode(s, img, f); err != nil {
		return nil, err
	}
	return s, nil
}

// Fit returns img scaled down so that neither dimension
// exceeds maxDim, preserving the aspect ratio.
// img itself is returned if it already fits.
func Fit(img *Image, maxDim int) (*Image, error) {
	if err := img.check(); err != nil {
		return nil, err
	}
	if maxDim <= 0 {
		return nil, &driver.RangeError{Op: "Fit", Index: maxDim, Len: 0}
	}
	if img.Width <= maxDim && img.Height <= maxDim {
		return img, nil
	}
	w, h := maxDim, maxDim
	if img.Width > img.Height {
		h = max(1, img.Height*maxDim/img.Width)
	} else {
		w = max(1, img.Width*maxDim/img.Height)
	}
	src, _ := img.toImage()
	r := image.Rect(0, 0, w, h)
	var dst xdraw.Image
	var pix *[]byte
	switch img.Format {
	case driver.R8un:
		g := image.NewGray(r)
		dst, pix = g, &g.Pix
	default:
		n := image.NewNRGBA(r)
		dst, pix = n, &n.Pix
	}
	xdraw.CatmullRom.Scale(dst, r, src, src.Bounds(), xdraw.Src, nil)
	out := &Image{Width: w, Height: h, Format: img.Format, Data: *pix}
	if f := img.Format; f == driver.BGRA8un || f == driver.BGRA8sRGB {
		swapRB(out.Data)
	}
	return out, nil
}

// swapRB swaps the red and blue channels of 4-byte texels.
func swapRB(p []byte) {
	for i := 0; i+3 < len(p); i += 4 {
		p[i], p[i+2] = p[i+2], p[i]
	}
}

// Upload creates a 2D texture from img and packs it.
// The image is scaled down first if it exceeds the
// device's 2D texture limit.
func Upload(d driver.Device, img *Image, usg driver.Usage, name string) (driver.Texture, error) {
	img, err := Fit(img, d.Limits().MaxTexture2D)
	if err != nil {
		return nil, err
	}
	meta := img.Meta(1, usg|driver.UCopyDst)
	tex, err := d.NewTexture(&meta, name)
	if err != nil {
		return nil, err
	}
	if err := driver.PackNow(d, tex, img.Data); err != nil {
		tex.Destroy()
		return nil, err
	}
	return tex, nil
}
