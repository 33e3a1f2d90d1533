package lblaug

// Channels-last pixel arrays and their conversion to and from image.Image.

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

// Array is a channels-last 8-bit pixel grid. The sample for row y, column x and channel ch is
// stored at Pix[(y*W+x)*C+ch].
type Array struct {
	H, W, C int
	Pix     []uint8
}

// NewArray allocates a zeroed h x w x c array.
func NewArray(h, w, c int) *Array {
	return &Array{H: h, W: w, C: c, Pix: make([]uint8, h*w*c)}
}

// At returns the sample at row y, column x and channel ch.
func (a *Array) At(y, x, ch int) uint8 {
	return a.Pix[(y*a.W+x)*a.C+ch]
}

// row returns the samples of row y.
func (a *Array) row(y int) []uint8 {
	n := a.W * a.C
	return a.Pix[y*n : (y+1)*n]
}

// pixel returns the channel samples of the pixel at (y, x).
func (a *Array) pixel(y, x int) []uint8 {
	i := (y*a.W + x) * a.C
	return a.Pix[i : i+a.C]
}

// Channels returns the number of channels implied by the encoding of img: 1 for gray, alpha and
// paletted images, 4 for non-premultiplied images with an alpha channel (what the PNG decoder
// returns for images with transparency) and 3 for the remaining colour images.
func Channels(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16, *image.Alpha, *image.Alpha16, *image.Paletted:
		return 1
	case *image.RGBA, *image.RGBA64, *image.YCbCr, *image.CMYK:
		return 3
	}
	return 4
}

// FromImage copies img into a new Array with Channels(img) channels. Paletted images give their
// palette indices, 3 channel images give RGB and 4 channel images non-premultiplied RGBA.
func FromImage(img image.Image) *Array {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch src := img.(type) {
	case *image.Gray:
		a := NewArray(h, w, 1)
		for y := 0; y < h; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(a.row(y), src.Pix[i:i+w])
		}
		return a
	case *image.Paletted:
		a := NewArray(h, w, 1)
		for y := 0; y < h; y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(a.row(y), src.Pix[i:i+w])
		}
		return a
	case *image.Gray16, *image.Alpha, *image.Alpha16:
		a := NewArray(h, w, 1)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				a.Pix[y*w+x] = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
			}
		}
		return a
	}

	nrgba := imaging.Clone(img)
	if Channels(img) == 4 {
		return &Array{H: h, W: w, C: 4, Pix: nrgba.Pix}
	}
	a := NewArray(h, w, 3)
	for i, j := 0, 0; i < len(nrgba.Pix); i, j = i+4, j+3 {
		copy(a.Pix[j:j+3], nrgba.Pix[i:i+3])
	}
	return a
}

// ToImage converts a into an image. One channel arrays become *image.Paletted when like is
// paletted (sharing its palette) and *image.Gray otherwise. Three channel arrays become opaque
// *image.RGBA and four channel arrays *image.NRGBA.
func ToImage(a *Array, like image.Image) (image.Image, error) {
	r := image.Rect(0, 0, a.W, a.H)
	switch a.C {
	case 1:
		if p, ok := like.(*image.Paletted); ok {
			dst := image.NewPaletted(r, p.Palette)
			copy(dst.Pix, a.Pix)
			return dst, nil
		}
		dst := image.NewGray(r)
		copy(dst.Pix, a.Pix)
		return dst, nil
	case 3:
		dst := image.NewRGBA(r)
		for i, j := 0, 0; j < len(a.Pix); i, j = i+4, j+3 {
			copy(dst.Pix[i:i+3], a.Pix[j:j+3])
			dst.Pix[i+3] = 0xff
		}
		return dst, nil
	case 4:
		dst := image.NewNRGBA(r)
		copy(dst.Pix, a.Pix)
		return dst, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedChannels, "%d channels", a.C)
}

// conform converts img, typically the *image.NRGBA returned by imaging, back to the colour model
// of like so that images keep their channel count through geometric transforms.
func conform(like, img image.Image) image.Image {
	switch l := like.(type) {
	case *image.Gray, *image.Gray16, *image.Alpha, *image.Alpha16:
		dst := image.NewGray(img.Bounds())
		xdraw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, xdraw.Src)
		return dst
	case *image.Paletted:
		dst := image.NewPaletted(img.Bounds(), l.Palette)
		xdraw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, xdraw.Src)
		return dst
	case *image.RGBA, *image.RGBA64, *image.YCbCr, *image.CMYK:
		if _, ok := img.(*image.RGBA); ok {
			return img
		}
		dst := image.NewRGBA(img.Bounds())
		xdraw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, xdraw.Src)
		return dst
	}
	return img
}
