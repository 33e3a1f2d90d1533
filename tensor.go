package lblaug

import (
	"image"
	"math/rand/v2"
)

// Tensor is a channel-first (C, H, W) float32 tensor.
type Tensor struct {
	Shape []int
	Data  []float32
}

// At returns the value at channel ch, row y and column x.
func (t *Tensor) At(ch, y, x int) float32 {
	return t.Data[(ch*t.Shape[1]+y)*t.Shape[2]+x]
}

// ImageToTensor converts img into a (C, H, W) tensor with values scaled from [0, 255] to
// [0.0, 1.0]. The channel count follows the encoding of img (see Channels).
func ImageToTensor(img image.Image) *Tensor {
	return arrayToTensor(FromImage(img))
}

// arrayToTensor transposes a from HWC to CHW, dividing every value by 255.
func arrayToTensor(a *Array) *Tensor {
	t := &Tensor{Shape: []int{a.C, a.H, a.W}, Data: make([]float32, len(a.Pix))}
	plane := a.H * a.W
	for i := 0; i < plane; i++ {
		px := a.Pix[i*a.C : (i+1)*a.C]
		for ch, v := range px {
			t.Data[ch*plane+i] = float32(v) / 255
		}
	}
	return t
}

// ToTensor converts the image, and the label if there is one, to tensors stored in
// Sample.Tensors.
type ToTensor struct{}

// Transform implements Transform.
func (ToTensor) Transform(_ *rand.Rand, s Sample) (Sample, error) {
	s.Tensors = []*Tensor{ImageToTensor(s.Image)}
	if s.Label != nil {
		s.Tensors = append(s.Tensors, ImageToTensor(s.Label))
	}
	return s, nil
}
