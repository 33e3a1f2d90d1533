package lblaug

import (
	"image"

	"github.com/pkg/errors"
)

// PadMode selects how PadImage fills the added border.
type PadMode int

// The known padding modes.
const (
	PadModeReflection PadMode = iota // Mirror the content about the edge pixels.
	PadModeConstant                  // Fill with a constant value.
)

// ParsePadMode returns the PadMode named s ("reflection" or "constant").
func ParsePadMode(s string) (PadMode, error) {
	switch s {
	case "reflection":
		return PadModeReflection, nil
	case "constant":
		return PadModeConstant, nil
	}
	return 0, errors.Wrapf(ErrUnknownPadMode, "%q", s)
}

func (m PadMode) String() string {
	switch m {
	case PadModeReflection:
		return "reflection"
	case PadModeConstant:
		return "constant"
	}
	return "unknown"
}

// PadImage grows img by the given number of pixels on each side using mode. value is the fill
// value for PadModeConstant and is ignored otherwise.
//
// The result keeps the encoding of img (see ToImage).
func PadImage(mode PadMode, img image.Image, top, bottom, left, right int, value uint8) (
	image.Image, error) {

	var padded *Array
	switch mode {
	case PadModeReflection:
		padded = PadReflection(FromImage(img), top, bottom, left, right)
	case PadModeConstant:
		padded = PadConstant(FromImage(img), top, bottom, left, right, value)
	default:
		return nil, errors.Wrapf(ErrUnknownPadMode, "mode %d", int(mode))
	}
	return ToImage(padded, img)
}

// PadReflection returns a new array grown by top, bottom, left and right pixels, with
// the border filled by mirroring the content about the edge rows and columns. The edge itself is
// not repeated: the row above row 0 is row 1.
//
// A side can be padded by at most size-1 pixels per mirror round. Larger amounts are deferred to
// further rounds that mirror the grown array again. An axis of size 1 has nothing to mirror, so
// its single row or column is repeated instead.
//
// a is returned as is if all pad amounts are zero.
func PadReflection(a *Array, top, bottom, left, right int) *Array {
	for top != 0 || bottom != 0 || left != 0 || right != 0 {
		var nextTop, nextBottom, nextLeft, nextRight int
		top, nextTop = capPad(top, a.H)
		bottom, nextBottom = capPad(bottom, a.H)
		left, nextLeft = capPad(left, a.W)
		right, nextRight = capPad(right, a.W)

		a = reflectOnce(a, top, bottom, left, right)
		top, bottom, left, right = nextTop, nextBottom, nextLeft, nextRight
	}
	return a
}

// capPad splits pad into the amount that can be mirrored from an axis of the given size in one
// round and the remainder.
func capPad(pad, size int) (now, next int) {
	if size <= 0 && pad > 0 {
		panic("lblaug: cannot reflection pad an empty array")
	}
	if size == 1 || pad <= size-1 {
		return pad, 0
	}
	return size - 1, pad - size + 1
}

// reflectOnce performs a single mirror round. Each pad amount must be at most size-1 of its axis
// (or anything for an axis of size 1).
func reflectOnce(a *Array, top, bottom, left, right int) *Array {
	h, w, c := a.H, a.W, a.C
	out := NewArray(h+top+bottom, w+left+right, c)
	rowLen := w * c
	colOff := left * c

	// Original content.
	for y := 0; y < h; y++ {
		dst := out.row(top + y)
		copy(dst[colOff:colOff+rowLen], a.row(y))
	}

	// Top and bottom borders, mirrored from rows of the source adjacent to the edge.
	for i := 0; i < top; i++ {
		src := top - i
		if h == 1 {
			src = 0
		}
		copy(out.row(i)[colOff:colOff+rowLen], a.row(src))
	}
	for j := 0; j < bottom; j++ {
		src := h - 2 - j
		if h == 1 {
			src = 0
		}
		copy(out.row(top+h+j)[colOff:colOff+rowLen], a.row(src))
	}

	// Left and right borders, mirrored from the rows filled above so that corners are mirrored
	// as well.
	for y := 0; y < out.H; y++ {
		for i := 0; i < left; i++ {
			src := 2*left - i
			if w == 1 {
				src = left
			}
			copy(out.pixel(y, i), out.pixel(y, src))
		}
		for j := 0; j < right; j++ {
			src := left + w - 2 - j
			if w == 1 {
				src = left
			}
			copy(out.pixel(y, left+w+j), out.pixel(y, src))
		}
	}

	return out
}

// PadConstant returns a new array grown by top, bottom, left and right pixels with the border
// filled with value in every channel.
//
// a is returned as is if all pad amounts are zero.
func PadConstant(a *Array, top, bottom, left, right int, value uint8) *Array {
	if top == 0 && bottom == 0 && left == 0 && right == 0 {
		return a
	}

	out := NewArray(a.H+top+bottom, a.W+left+right, a.C)
	if value != 0 {
		for i := range out.Pix {
			out.Pix[i] = value
		}
	}

	rowLen := a.W * a.C
	colOff := left * a.C
	for y := 0; y < a.H; y++ {
		copy(out.row(top + y)[colOff:colOff+rowLen], a.row(y))
	}
	return out
}
