package lblaug

import (
	"image"
	_ "image/gif" // Register the GIF decoder for label maps stored as GIFs.
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// resample resizes img to width x height (at least 1x1), selecting downsamplingFilter or
// upsamplingFilter based on the direction of the rescaling operation. The result keeps the
// encoding of img.
func resample(img image.Image, width, height int,
	downsamplingFilter, upsamplingFilter imaging.ResampleFilter) image.Image {

	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	imgSize := img.Bounds().Size()
	var filter imaging.ResampleFilter
	if width*height < imgSize.X*imgSize.Y {
		filter = downsamplingFilter
	} else {
		filter = upsamplingFilter
	}

	return conform(img, imaging.Resize(img, width, height, filter))
}

// cropAt returns the width x height region of img whose top-left corner is at offset (x, y)
// from the top-left corner of img's bounds. The result keeps the encoding of img.
func cropAt(img image.Image, x, y, width, height int) image.Image {
	origin := img.Bounds().Min.Add(image.Pt(x, y))
	r := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(width, height))}
	return conform(img, imaging.Crop(img, r))
}

// loadImage reads and decodes the image at path and returns the results of image.Decode.
func loadImage(path string) (img image.Image, format string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	img, format, err = image.Decode(f)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to decode %q", path)
	}
	return img, format, nil
}

// saveImage writes img to path, encoding it as JPG for .jpg/.jpeg paths and as PNG otherwise.
// Label maps should be written as PNG to stay lossless.
func saveImage(path string, img image.Image, jpegQuality int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithErrCheck(f, &err)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	default:
		err = png.Encode(f, img)
	}
	return err
}
