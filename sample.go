// Package lblaug implements paired augmentations for image/label training samples.
//
// Every geometric transform applies identical parameters to the image and its label, so the two
// keep their spatial correspondence. Randomness comes from a *rand.Rand owned by the caller,
// normally through a Pipeline; generators are not safe for concurrent use, so each worker needs
// its own.
package lblaug

import (
	"fmt"
	"image"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// Sample is the unit threaded through a chain of transforms.
type Sample struct {
	Image  image.Image
	Label  image.Image   // Optional dense label map, same size as Image.
	Extras []interface{} // Passed through all transforms untouched.

	// Tensors is set by ToTensor: the image tensor, followed by the label tensor if there is a
	// label.
	Tensors []*Tensor
}

// checkSizes returns ErrSizeMismatch if the sample has a label of a different size than its
// image.
func (s Sample) checkSizes() error {
	if s.Label == nil {
		return nil
	}
	is, ls := s.Image.Bounds().Size(), s.Label.Bounds().Size()
	if is != ls {
		return errors.Wrapf(ErrSizeMismatch, "%v / %v", is, ls)
	}
	return nil
}

// Transform is a single augmentation step. Implementations hold their configuration and draw
// all random choices from rng.
type Transform interface {
	Transform(rng *rand.Rand, s Sample) (Sample, error)
}

// TransformFunc adapts a function to the Transform interface.
type TransformFunc func(rng *rand.Rand, s Sample) (Sample, error)

// Transform calls f(rng, s).
func (f TransformFunc) Transform(rng *rand.Rand, s Sample) (Sample, error) {
	return f(rng, s)
}

// Compose applies its transforms in order, each consuming the sample produced by the previous
// one. The first error stops the chain.
type Compose struct {
	Transforms []Transform
	Logger     *log.Logger // Optional; logs every step at debug level.
}

// Transform implements Transform, so that Compose values can be nested.
func (c *Compose) Transform(rng *rand.Rand, s Sample) (Sample, error) {
	for i, t := range c.Transforms {
		var err error
		if s, err = t.Transform(rng, s); err != nil {
			return Sample{}, errors.Wrapf(err, "transform %d (%T)", i, t)
		}
		if c.Logger != nil {
			c.Logger.Debug("Applied transform", "index", i, "type", transformName(t),
				"size", s.Image.Bounds().Size())
		}
	}
	return s, nil
}

// transformName returns the type name of t without the package qualifier.
func transformName(t Transform) string {
	name := fmt.Sprintf("%T", t)
	return name[strings.LastIndex(name, ".")+1:]
}

// Pipeline is a Compose together with the generator that drives it.
type Pipeline struct {
	Compose
	rng *rand.Rand
}

// NewPipeline returns a pipeline of transforms seeded with seed.
func NewPipeline(seed uint64, transforms ...Transform) *Pipeline {
	return NewPipelineWithRand(rand.New(rand.NewPCG(seed, seed)), transforms...)
}

// NewPipelineWithRand returns a pipeline of transforms that draws from rng.
func NewPipelineWithRand(rng *rand.Rand, transforms ...Transform) *Pipeline {
	return &Pipeline{Compose: Compose{Transforms: transforms}, rng: rng}
}

// Apply runs the pipeline on the image, the optional label and any extras.
func (p *Pipeline) Apply(img, label image.Image, extras ...interface{}) (Sample, error) {
	return p.Transform(p.rng, Sample{Image: img, Label: label, Extras: extras})
}
