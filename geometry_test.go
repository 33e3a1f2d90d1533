package lblaug

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// testImage returns an opaque w x h image with a distinct colour per pixel.
func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: uint8(x + y), A: 255})
		}
	}
	return img
}

// testLabel returns a w x h gray label whose value encodes the position of the pixel.
func testLabel(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	return img
}

func TestResize(t *testing.T) {
	s, err := Resize{Size: 2}.Transform(newRand(), Sample{Image: testImage(4, 4), Label: testLabel(4, 4)})
	require.NoError(t, err)
	require.Equal(t, image.Pt(2, 2), s.Image.Bounds().Size())
	require.Equal(t, image.Pt(2, 2), s.Label.Bounds().Size())
	require.IsType(t, &image.Gray{}, s.Label)
}

func TestRandomCropSameSize(t *testing.T) {
	in := Sample{Image: testImage(5, 4), Label: testLabel(5, 4), Extras: []interface{}{"x"}}
	s, err := RandomCrop{Width: 5, Height: 4}.Transform(newRand(), in)
	require.NoError(t, err)
	require.Equal(t, in, s)
}

func TestRandomCropPadsSmallerSource(t *testing.T) {
	img, label := testImage(3, 2), testLabel(3, 2)
	s, err := NewRandomCrop(6).Transform(newRand(), Sample{Image: img, Label: label, Extras: []interface{}{7}})
	require.NoError(t, err)
	require.Equal(t, image.Pt(6, 6), s.Image.Bounds().Size())
	require.Equal(t, image.Pt(6, 6), s.Label.Bounds().Size())
	require.Equal(t, []interface{}{7}, s.Extras)

	// Width 3 -> 6 pads 1 left and 2 right; height 2 -> 6 pads 2 on top and bottom.
	require.Equal(t, img.At(0, 0), s.Image.At(1, 2))
	require.Equal(t, label.At(2, 1), s.Label.At(3, 3))
}

func TestRandomCropPadsOneAxisThenCrops(t *testing.T) {
	img, label := testImage(8, 2), testLabel(8, 2)
	for i := 0; i < 20; i++ {
		s, err := RandomCrop{Width: 4, Height: 4}.Transform(newRand(), Sample{Image: img, Label: label})
		require.NoError(t, err)
		require.Equal(t, image.Pt(4, 4), s.Image.Bounds().Size())
		require.Equal(t, image.Pt(4, 4), s.Label.Bounds().Size())
	}
}

func TestRandomCropOffsets(t *testing.T) {
	img, label := testImage(10, 10), testLabel(10, 10)
	rng := newRand()
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		s, err := NewRandomCrop(8).Transform(rng, Sample{Image: img, Label: label})
		require.NoError(t, err)

		// Recover the offset from the encoded colour and check that the label matches.
		c := s.Image.At(0, 0).(color.RGBA)
		x, y := int(c.R)/10, int(c.G)/10
		require.LessOrEqual(t, x, 2)
		require.LessOrEqual(t, y, 2)
		require.Equal(t, label.At(x, y), s.Label.At(0, 0))
		require.Equal(t, img.At(x+7, y+7), s.Image.At(7, 7))
		seen[y*3+x] = true
	}
	require.Len(t, seen, 9, "all offsets in [0, w-tw] x [0, h-th] are drawn")
}

func TestRandomCropWithoutLabel(t *testing.T) {
	s, err := NewRandomCrop(3).Transform(newRand(), Sample{Image: testImage(5, 5)})
	require.NoError(t, err)
	require.Nil(t, s.Label)
	require.Equal(t, image.Pt(3, 3), s.Image.Bounds().Size())
}

func TestRandomCropSizeMismatch(t *testing.T) {
	_, err := NewRandomCrop(2).Transform(newRand(), Sample{Image: testImage(4, 4), Label: testLabel(4, 3)})
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestRandomScale(t *testing.T) {
	in := Sample{Image: testImage(8, 6), Label: testLabel(8, 6)}

	s, err := NewRandomScaleRange(1, 1).Transform(newRand(), in)
	require.NoError(t, err)
	require.Equal(t, in, s)

	s, err = NewRandomScaleRange(0.5, 0.5).Transform(newRand(), in)
	require.NoError(t, err)
	require.Equal(t, image.Pt(4, 3), s.Image.Bounds().Size())
	require.Equal(t, image.Pt(4, 3), s.Label.Bounds().Size())
	require.IsType(t, &image.Gray{}, s.Label)

	s, err = NewRandomScale(2).Transform(newRand(), in)
	require.NoError(t, err)
	size := s.Image.Bounds().Size()
	require.GreaterOrEqual(t, size.X, 8)
	require.LessOrEqual(t, size.X, 16)
	require.Equal(t, size, s.Label.Bounds().Size())
}

func TestRandomRotateZeroAngle(t *testing.T) {
	img, label := testImage(5, 3), testLabel(5, 3)
	s, err := RandomRotate{Angle: 0}.Transform(newRand(), Sample{Image: img, Label: label})
	require.NoError(t, err)
	require.Equal(t, FromImage(img), FromImage(s.Image))
	require.Equal(t, FromImage(label), FromImage(s.Label))
}

func TestRandomRotateKeepsSize(t *testing.T) {
	rng := newRand()
	for i := 0; i < 5; i++ {
		s, err := RandomRotate{Angle: 30}.Transform(rng, Sample{Image: testImage(7, 5), Label: testLabel(7, 5)})
		require.NoError(t, err)
		require.Equal(t, image.Pt(7, 5), s.Image.Bounds().Size())
		require.Equal(t, image.Pt(7, 5), s.Label.Bounds().Size())
		require.IsType(t, &image.Gray{}, s.Label)
		require.IsType(t, &image.RGBA{}, s.Image)
		// Reflection padding leaves no transparent corners.
		require.True(t, s.Image.(*image.RGBA).Opaque())
	}

	s, err := RandomRotate{Angle: 10}.Transform(rng, Sample{Image: testImage(4, 4)})
	require.NoError(t, err)
	require.Nil(t, s.Label)
}

func TestRotateQuarterTurn(t *testing.T) {
	label := testLabel(4, 4)
	out, err := rotateReflected(label, 90)
	require.NoError(t, err)

	// Counter-clockwise: the destination pixel (x, y) comes from the source pixel (3-y, x).
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := int(label.GrayAt(3-y, x).Y)
			got := int(out.(*image.Gray).GrayAt(x, y).Y)
			require.InDelta(t, want, got, 1, "pixel (%d, %d)", x, y)
		}
	}
}

func TestRandomRotateNegativeAngle(t *testing.T) {
	rng := newRand()
	for i := 0; i < 10; i++ {
		s, err := RandomRotate{Angle: -5}.Transform(rng, Sample{Image: testImage(4, 3), Label: testLabel(4, 3)})
		require.NoError(t, err)
		require.Equal(t, image.Pt(4, 3), s.Image.Bounds().Size())
	}
}

func TestRandomRotateSizeMismatch(t *testing.T) {
	_, err := RandomRotate{Angle: 5}.Transform(newRand(), Sample{Image: testImage(4, 4), Label: testLabel(3, 4)})
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestRandomFlipsKeepPairsTogether(t *testing.T) {
	img, label := testImage(4, 3), testLabel(4, 3)
	rng := newRand()

	for _, flip := range []Transform{RandomHorizontalFlip{}, RandomVerticalFlip{}} {
		flipped := 0
		for i := 0; i < 100; i++ {
			s, err := flip.Transform(rng, Sample{Image: img, Label: label})
			require.NoError(t, err)
			require.IsType(t, &image.Gray{}, s.Label)

			// The image colour encodes the source position; the label must come from the same one.
			c := s.Image.At(0, 0).(color.RGBA)
			x, y := int(c.R)/10, int(c.G)/10
			require.Equal(t, label.At(x, y), s.Label.At(0, 0))
			if x != 0 || y != 0 {
				flipped++
			}
		}
		require.Greater(t, flipped, 20)
		require.Less(t, flipped, 80)
	}
}
