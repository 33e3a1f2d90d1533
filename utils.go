package lblaug

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// FilePair is an image file and its optional label file.
type FilePair struct {
	ImagePath string
	LabelPath string // Empty if there is no label.
}

// imageExts are the file extensions of the image formats that loadImage can decode.
var imageExts = []string{".png", ".jpg", ".jpeg", ".gif"}

// filesByExtInDir returns all regular files with one of the file extensions exts (compared
// case-insensitively) found directly in directory dirPath, sorted by name. All files are returned
// if no extension is given.
func filesByExtInDir(dirPath string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read directory %q", dirPath)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		// Must be a regular file or a symlink and have one of the requested extensions.
		if (!e.Type().IsRegular() && e.Type()&os.ModeSymlink == 0) || !hasExt(name, exts) {
			continue
		}
		files = append(files, filepath.Join(dirPath, name))
	}
	sort.Strings(files)

	return files, nil
}

// hasExt reports whether the extension of name is one of exts, or whether exts is empty.
func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// splitPath splits the given file path into the dir name, the base name without extension and the
// extension (without the dot).
func splitPath(path string) (dir, baseNoExt, ext string, err error) {
	dir, file := filepath.Split(path)
	ext = filepath.Ext(file)
	if ext == "" {
		return "", "", "", errors.Errorf("missing file extension in %q", path)
	}

	dir = strings.TrimSuffix(dir, string(os.PathSeparator))
	baseNoExt = file[0 : len(file)-len(ext)]
	ext = ext[1:]

	return dir, baseNoExt, ext, nil
}

// mapFileNamesToPaths maps the base names of the given file paths, with the file type extensions
// stripped off, to the paths.
func mapFileNamesToPaths(filePaths []string) map[string]string {
	mapping := make(map[string]string, len(filePaths))
	for _, path := range filePaths {
		_, baseNoExt, _, err := splitPath(path)
		if err != nil {
			log.Warn(err)
			continue
		}
		mapping[baseNoExt] = path
	}

	return mapping
}

// PairFiles matches the images (PNG, JPEG or GIF) in imageDir by file name, ignoring the
// extension, to the label images in labelDir. Other files are ignored. Images without a label
// are skipped. If labelDir is empty, all images are returned without labels.
func PairFiles(imageDir, labelDir string) ([]FilePair, error) {
	imageFiles, err := filesByExtInDir(imageDir, imageExts...)
	if err != nil {
		return nil, err
	}

	if labelDir == "" {
		pairs := make([]FilePair, len(imageFiles))
		for i, path := range imageFiles {
			pairs[i].ImagePath = path
		}
		return pairs, nil
	}

	labelFiles, err := filesByExtInDir(labelDir, imageExts...)
	if err != nil {
		return nil, err
	}
	labelsByName := mapFileNamesToPaths(labelFiles)

	pairs := make([]FilePair, 0, len(imageFiles))
	for _, imagePath := range imageFiles {
		_, baseNoExt, _, err := splitPath(imagePath)
		if err != nil {
			log.Warnf("Skipping %q: %v", imagePath, err)
			continue
		}
		labelPath, found := labelsByName[baseNoExt]
		if !found {
			log.Warnf("No corresponding label file, skipping %q", imagePath)
			continue
		}
		pairs = append(pairs, FilePair{ImagePath: imagePath, LabelPath: labelPath})
	}
	log.Infof("Matched %d of %d images to labels", len(pairs), len(imageFiles))

	return pairs, nil
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}
