package lblaug

// TOML pipeline configuration.

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// TransformConfig describes one transform of a pipeline. Only the fields used by Type are read.
type TransformConfig struct {
	Type string `toml:"type"` // See PipelineConfig.Build for the known types.

	Size       []int     `toml:"size"`       // resize: [n]; random_crop: [n] or [width, height].
	Angle      int       `toml:"angle"`      // random_rotate: max. absolute angle in degrees.
	Scale      []float64 `toml:"scale"`      // random_scale: [max] (min is 1) or [min, max].
	Downsample string    `toml:"downsample"` // random_scale: filter for ratios < 1.
	Upsample   string    `toml:"upsample"`   // random_scale: filter for ratios > 1.
	Mean       float64   `toml:"mean"`       // add_noise.
	Sigma      *float64  `toml:"sigma"`      // add_noise; defaults to 0.01.
	P          float64   `toml:"p"`          // random_identity: probability.
}

// PipelineConfig is the decoded form of a pipeline file:
//
//	seed = 42
//
//	[[transform]]
//	type = "random_crop"
//	size = [256, 256]
//
//	[[transform]]
//	type = "to_tensor"
type PipelineConfig struct {
	Seed       uint64            `toml:"seed"`
	Transforms []TransformConfig `toml:"transform"`
}

// LoadPipelineConfig decodes the TOML pipeline file at path.
func LoadPipelineConfig(path string) (PipelineConfig, error) {
	var c PipelineConfig
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return PipelineConfig{}, errors.Wrapf(err, "failed to read pipeline config %q", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return PipelineConfig{}, errors.Wrapf(ErrInvalidConfig, "%q: unknown keys %v", path, undecoded)
	}
	return c, nil
}

// ParsePipelineConfig decodes a TOML pipeline from text.
func ParsePipelineConfig(text string) (PipelineConfig, error) {
	var c PipelineConfig
	md, err := toml.Decode(text, &c)
	if err != nil {
		return PipelineConfig{}, errors.Wrap(err, "failed to parse pipeline config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return PipelineConfig{}, errors.Wrapf(ErrInvalidConfig, "unknown keys %v", undecoded)
	}
	return c, nil
}

// Build returns the transforms described by c. The known types are resize, random_crop,
// random_scale, random_rotate, random_hflip, random_vflip, add_noise, random_identity and
// to_tensor.
func (c PipelineConfig) Build() ([]Transform, error) {
	transforms := make([]Transform, 0, len(c.Transforms))
	for i, tc := range c.Transforms {
		t, err := tc.build()
		if err != nil {
			return nil, errors.Wrapf(err, "transform %d", i)
		}
		transforms = append(transforms, t)
	}
	return transforms, nil
}

// NewPipeline builds the transforms of c into a Pipeline seeded with c.Seed.
func (c PipelineConfig) NewPipeline() (*Pipeline, error) {
	transforms, err := c.Build()
	if err != nil {
		return nil, err
	}
	return NewPipeline(c.Seed, transforms...), nil
}

func (tc TransformConfig) build() (Transform, error) {
	switch strings.ToLower(tc.Type) {
	case "resize":
		if len(tc.Size) != 1 || tc.Size[0] <= 0 {
			return nil, errors.Wrapf(ErrInvalidConfig, "resize: size must be [n] with n > 0, got %v", tc.Size)
		}
		return Resize{Size: tc.Size[0]}, nil

	case "random_crop":
		switch {
		case len(tc.Size) == 1 && tc.Size[0] > 0:
			return NewRandomCrop(tc.Size[0]), nil
		case len(tc.Size) == 2 && tc.Size[0] > 0 && tc.Size[1] > 0:
			return RandomCrop{Width: tc.Size[0], Height: tc.Size[1]}, nil
		}
		return nil, errors.Wrapf(ErrInvalidConfig, "random_crop: invalid size %v", tc.Size)

	case "random_scale":
		var s RandomScale
		switch {
		case len(tc.Scale) == 1 && tc.Scale[0] > 0:
			s = NewRandomScale(tc.Scale[0])
		case len(tc.Scale) == 2 && tc.Scale[0] > 0 && tc.Scale[1] >= tc.Scale[0]:
			s = NewRandomScaleRange(tc.Scale[0], tc.Scale[1])
		default:
			return nil, errors.Wrapf(ErrInvalidConfig, "random_scale: invalid scale %v", tc.Scale)
		}
		var err error
		if tc.Downsample != "" {
			if s.Downsample, err = ParseResampleFilter(tc.Downsample); err != nil {
				return nil, err
			}
		}
		if tc.Upsample != "" {
			if s.Upsample, err = ParseResampleFilter(tc.Upsample); err != nil {
				return nil, err
			}
		}
		return s, nil

	case "random_rotate":
		if tc.Angle < 0 {
			return nil, errors.Wrapf(ErrInvalidConfig, "random_rotate: negative angle %d", tc.Angle)
		}
		return RandomRotate{Angle: tc.Angle}, nil

	case "random_hflip":
		return RandomHorizontalFlip{}, nil

	case "random_vflip":
		return RandomVerticalFlip{}, nil

	case "add_noise":
		n := NewAddNoise()
		n.Mean = tc.Mean
		if tc.Sigma != nil {
			n.Sigma = *tc.Sigma
		}
		if n.Sigma < 0 {
			return nil, errors.Wrapf(ErrInvalidConfig, "add_noise: negative sigma %v", n.Sigma)
		}
		return n, nil

	case "random_identity":
		if tc.P < 0 || tc.P > 1 {
			return nil, errors.Wrapf(ErrInvalidConfig, "random_identity: p must be in [0, 1], got %v", tc.P)
		}
		return RandomIdentityMapping{P: tc.P}, nil

	case "to_tensor":
		return ToTensor{}, nil
	}
	return nil, errors.Wrapf(ErrInvalidConfig, "unknown transform type %q", tc.Type)
}

// ParseResampleFilter returns the imaging filter called name, one of nearest, box, linear,
// gaussian, lanczos or catmullrom.
func ParseResampleFilter(name string) (imaging.ResampleFilter, error) {
	switch name {
	case "nearest":
		return imaging.NearestNeighbor, nil
	case "box":
		return imaging.Box, nil
	case "linear":
		return imaging.Linear, nil
	case "gaussian":
		return imaging.Gaussian, nil
	case "lanczos":
		return imaging.Lanczos, nil
	case "catmullrom":
		return imaging.CatmullRom, nil
	}
	return imaging.ResampleFilter{}, errors.Wrapf(ErrInvalidConfig, "unknown resampling filter %q", name)
}
