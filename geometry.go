package lblaug

// Geometric transforms. Each one applies the same parameters to the image and the label.

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Resize resamples the image and label to Size x Size with bilinear filtering.
type Resize struct {
	Size int
}

// Transform implements Transform.
func (r Resize) Transform(_ *rand.Rand, s Sample) (Sample, error) {
	s.Image = resample(s.Image, r.Size, r.Size, imaging.Linear, imaging.Linear)
	if s.Label != nil {
		s.Label = resample(s.Label, r.Size, r.Size, imaging.Linear, imaging.Linear)
	}
	return s, nil
}

// RandomCrop crops a Width x Height region at a uniformly random position. Sources that are
// smaller than the target are reflection padded first, split evenly between both sides with the
// odd pixel going to the right or bottom.
type RandomCrop struct {
	Width, Height int
}

// NewRandomCrop returns a RandomCrop for square size x size crops.
func NewRandomCrop(size int) RandomCrop {
	return RandomCrop{Width: size, Height: size}
}

// Transform implements Transform.
func (c RandomCrop) Transform(rng *rand.Rand, s Sample) (Sample, error) {
	if err := s.checkSizes(); err != nil {
		return Sample{}, errors.Wrap(err, "random crop")
	}

	size := s.Image.Bounds().Size()
	w, h := size.X, size.Y
	tw, th := c.Width, c.Height

	var top, bottom, left, right int
	if w < tw {
		left = (tw - w) / 2
		right = tw - w - left
	}
	if h < th {
		top = (th - h) / 2
		bottom = th - h - top
	}
	if left > 0 || right > 0 || top > 0 || bottom > 0 {
		var err error
		if s.Label != nil {
			if s.Label, err = PadImage(PadModeReflection, s.Label, top, bottom, left, right, 0); err != nil {
				return Sample{}, err
			}
		}
		if s.Image, err = PadImage(PadModeReflection, s.Image, top, bottom, left, right, 0); err != nil {
			return Sample{}, err
		}
		size = s.Image.Bounds().Size()
		w, h = size.X, size.Y
	}
	if w == tw && h == th {
		return s, nil
	}

	x1 := rng.IntN(w - tw + 1)
	y1 := rng.IntN(h - th + 1)
	s.Image = cropAt(s.Image, x1, y1, tw, th)
	if s.Label != nil {
		s.Label = cropAt(s.Label, x1, y1, tw, th)
	}
	return s, nil
}

// RandomScale resizes the image and label by a ratio drawn uniformly from [Min, Max].
// Downsample is used when the ratio is below 1 and Upsample when it is above.
type RandomScale struct {
	Min, Max   float64
	Downsample imaging.ResampleFilter
	Upsample   imaging.ResampleFilter
}

// NewRandomScale returns a RandomScale for ratios in [1, scale] (or [scale, 1]).
func NewRandomScale(scale float64) RandomScale {
	return NewRandomScaleRange(1, scale)
}

// NewRandomScaleRange returns a RandomScale for ratios in [min, max], using Lanczos for
// downsampling and Catmull-Rom for upsampling.
func NewRandomScaleRange(min, max float64) RandomScale {
	return RandomScale{Min: min, Max: max, Downsample: imaging.Lanczos, Upsample: imaging.CatmullRom}
}

// Transform implements Transform.
func (r RandomScale) Transform(rng *rand.Rand, s Sample) (Sample, error) {
	ratio := r.Min + (r.Max-r.Min)*rng.Float64()
	if ratio == 1 {
		return s, nil
	}

	size := s.Image.Bounds().Size()
	tw := int(ratio * float64(size.X))
	th := int(ratio * float64(size.Y))
	s.Image = resample(s.Image, tw, th, r.Downsample, r.Upsample)
	if s.Label != nil {
		s.Label = resample(s.Label, tw, th, r.Downsample, r.Upsample)
	}
	return s, nil
}

// RandomRotate rotates the image and label counter-clockwise by a whole number of degrees drawn
// uniformly from [-|Angle|, |Angle|]. Both are reflection padded by their own size on every side
// before the rotation, so the corners of the result are filled with mirrored content instead of
// a background colour.
type RandomRotate struct {
	Angle int
}

// Transform implements Transform.
func (r RandomRotate) Transform(rng *rand.Rand, s Sample) (Sample, error) {
	if err := s.checkSizes(); err != nil {
		return Sample{}, errors.Wrap(err, "random rotate")
	}

	maxAngle := r.Angle
	if maxAngle < 0 {
		maxAngle = -maxAngle
	}
	angle := rng.IntN(2*maxAngle+1) - maxAngle

	var err error
	if s.Label != nil {
		if s.Label, err = rotateReflected(s.Label, float64(angle)); err != nil {
			return Sample{}, err
		}
	}
	if s.Image, err = rotateReflected(s.Image, float64(angle)); err != nil {
		return Sample{}, err
	}
	return s, nil
}

// rotateReflected rotates img by angle degrees counter-clockwise about its centre, using a
// reflection padded copy of img as the source for the regions rotated into view.
func rotateReflected(img image.Image, angle float64) (image.Image, error) {
	size := img.Bounds().Size()
	w, h := size.X, size.Y

	padded, err := PadImage(PadModeReflection, img, h, h, w, w, 0)
	if err != nil {
		return nil, err
	}
	rotated := rotate(padded, angle)
	return conform(img, imaging.Crop(rotated, image.Rect(w, h, 2*w, 2*h))), nil
}

// rotate rotates img by angle degrees counter-clockwise about its centre with bilinear
// interpolation. The canvas keeps its size; areas without a source pixel are transparent.
func rotate(img image.Image, angle float64) image.Image {
	b := img.Bounds()
	if angle == 0 {
		return imaging.Clone(img)
	}

	sin, cos := math.Sincos(angle * math.Pi / 180)
	cx := float64(b.Min.X) + float64(b.Dx())/2
	cy := float64(b.Min.Y) + float64(b.Dy())/2

	// Source to destination mapping. The y axis points down, so a counter-clockwise rotation on
	// screen moves points right of the centre upwards.
	m := f64.Aff3{
		cos, sin, cx - cos*cx - sin*cy,
		-sin, cos, cy + sin*cx - cos*cy,
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	// Shift the destination so that it covers the same coordinates as the source.
	m[2] -= float64(b.Min.X)
	m[5] -= float64(b.Min.Y)
	xdraw.BiLinear.Transform(dst, m, img, b, xdraw.Src, nil)
	return dst
}

// RandomHorizontalFlip mirrors the image and label left to right with probability 0.5.
type RandomHorizontalFlip struct{}

// Transform implements Transform.
func (RandomHorizontalFlip) Transform(rng *rand.Rand, s Sample) (Sample, error) {
	if rng.Float64() < 0.5 {
		s.Image = conform(s.Image, imaging.FlipH(s.Image))
		if s.Label != nil {
			s.Label = conform(s.Label, imaging.FlipH(s.Label))
		}
	}
	return s, nil
}

// RandomVerticalFlip mirrors the image and label top to bottom with probability 0.5.
type RandomVerticalFlip struct{}

// Transform implements Transform.
func (RandomVerticalFlip) Transform(rng *rand.Rand, s Sample) (Sample, error) {
	if rng.Float64() < 0.5 {
		s.Image = conform(s.Image, imaging.FlipV(s.Image))
		if s.Label != nil {
			s.Label = conform(s.Label, imaging.FlipV(s.Label))
		}
	}
	return s, nil
}
