package lblaug

import (
	"image"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// AddNoise adds Gaussian noise with the given mean and standard deviation, both relative to the
// [0, 1] intensity range, to every sample of the image. Results are clamped to [0, 255]. The
// label is not changed. Paletted images are noised on their indices and become gray.
type AddNoise struct {
	Mean  float64
	Sigma float64
}

// NewAddNoise returns an AddNoise with zero mean and a standard deviation of 0.01.
func NewAddNoise() AddNoise {
	return AddNoise{Mean: 0, Sigma: 0.01}
}

// Transform implements Transform.
func (n AddNoise) Transform(rng *rand.Rand, s Sample) (Sample, error) {
	var err error
	s.Image, err = addNoise(s.Image, distuv.Normal{Mu: n.Mean, Sigma: n.Sigma, Src: rng})
	return s, err
}

// addNoise returns a copy of img with a sample of dist, scaled from [0, 1] to [0, 255], added to
// every channel of every pixel. Noised palette indices may fall outside the palette, so paletted
// images come back as *image.Gray.
func addNoise(img image.Image, dist distuv.Normal) (image.Image, error) {
	a := FromImage(img)
	for i, v := range a.Pix {
		a.Pix[i] = clampUint8(float64(v) + dist.Rand()*255)
	}
	like := img
	if _, ok := img.(*image.Paletted); ok {
		like = nil
	}
	return ToImage(a, like)
}

// clampUint8 truncates v to an integer in [0, 255].
func clampUint8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// RandomIdentityMapping replaces the image with the label with probability P. Samples without a
// label are passed through.
type RandomIdentityMapping struct {
	P float64
}

// Transform implements Transform.
func (m RandomIdentityMapping) Transform(rng *rand.Rand, s Sample) (Sample, error) {
	if rng.Float64() < m.P && s.Label != nil {
		s.Image = s.Label
	}
	return s, nil
}
