package lblaug

import (
	"math/rand/v2"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// writePairs writes n 6x6 image/label pairs named p0 ... pn-1 and returns them.
func writePairs(t *testing.T, n int) []FilePair {
	t.Helper()
	imageDir, labelDir := t.TempDir(), t.TempDir()
	for i := 0; i < n; i++ {
		name := string(rune('0' + i))
		require.NoError(t, saveImage(filepath.Join(imageDir, "p"+name+".png"), testImage(6, 6), 0))
		require.NoError(t, saveImage(filepath.Join(labelDir, "p"+name+".png"), testLabel(6, 6), 0))
	}
	pairs, err := PairFiles(imageDir, labelDir)
	require.NoError(t, err)
	require.Len(t, pairs, n)
	return pairs
}

func TestAugmentFiles(t *testing.T) {
	pairs := writePairs(t, 2)
	outDir := t.TempDir()

	samples, err := AugmentFiles(pairs, AugmentOptions{
		Transforms:  []Transform{NewRandomCrop(4), RandomHorizontalFlip{}, ToTensor{}},
		Seed:        3,
		Repeat:      2,
		ImageOutDir: outDir,
		Workers:     3,
	})
	require.NoError(t, err)
	require.Len(t, samples, 4)

	for i, s := range samples {
		require.Equal(t, pairs[i/2].ImagePath, s.Extras[0])
		require.Len(t, s.Tensors, 2)
		require.Equal(t, []int{3, 4, 4}, s.Tensors[0].Shape)
		require.Equal(t, []int{1, 4, 4}, s.Tensors[1].Shape)
	}

	for _, name := range []string{"p0_00", "p0_01", "p1_00", "p1_01"} {
		img, _, err := loadImage(filepath.Join(outDir, name+".png"))
		require.NoError(t, err)
		require.Equal(t, 4, img.Bounds().Dx())

		label, _, err := loadImage(filepath.Join(outDir, name+"_label.png"))
		require.NoError(t, err)
		require.Equal(t, 1, Channels(label))
	}
}

func TestAugmentFilesDeterministic(t *testing.T) {
	pairs := writePairs(t, 3)
	run := func(workers int) []Sample {
		samples, err := AugmentFiles(pairs, AugmentOptions{
			Transforms: []Transform{RandomRotate{Angle: 20}, NewRandomCrop(5), NewAddNoise(), ToTensor{}},
			Seed:       11,
			Repeat:     2,
			Workers:    workers,
		})
		require.NoError(t, err)
		return samples
	}

	a, b := run(1), run(4)
	require.Len(t, a, 6)
	for i := range a {
		require.Equal(t, a[i].Tensors, b[i].Tensors, "sample %d", i)
	}
	// The repeats of a pair use different generators.
	require.NotEqual(t, a[0].Tensors, a[1].Tensors)
}

func TestAugmentFilesWithoutLabels(t *testing.T) {
	pairs := writePairs(t, 1)
	pairs[0].LabelPath = ""
	outDir := t.TempDir()

	samples, err := AugmentFiles(pairs, AugmentOptions{
		Transforms:  []Transform{Resize{Size: 3}},
		ImageOutDir: outDir,
	})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Nil(t, samples[0].Label)
	require.FileExists(t, filepath.Join(outDir, "p0.png"))
	require.NoFileExists(t, filepath.Join(outDir, "p0_label.png"))
}

func TestAugmentFilesErrors(t *testing.T) {
	pairs := writePairs(t, 2)
	pairs[1].ImagePath = filepath.Join(t.TempDir(), "missing.png")
	_, err := AugmentFiles(pairs, AugmentOptions{Transforms: []Transform{ToTensor{}}})
	require.Error(t, err)

	pairs = writePairs(t, 1)
	small := filepath.Join(t.TempDir(), "small.png")
	require.NoError(t, saveImage(small, testLabel(3, 3), 0))
	pairs[0].LabelPath = small
	_, err = AugmentFiles(pairs, AugmentOptions{Transforms: []Transform{NewRandomCrop(2)}})
	require.ErrorIs(t, err, ErrSizeMismatch)
	require.Contains(t, err.Error(), pairs[0].ImagePath)
}

func TestAugmentFilesStopsAfterError(t *testing.T) {
	pairs := append([]FilePair{{ImagePath: filepath.Join(t.TempDir(), "missing.png")}}, writePairs(t, 8)...)

	var calls atomic.Int32
	count := TransformFunc(func(_ *rand.Rand, s Sample) (Sample, error) {
		calls.Add(1)
		return s, nil
	})
	_, err := AugmentFiles(pairs, AugmentOptions{Transforms: []Transform{count}, Repeat: 2, Workers: 1})
	require.Error(t, err)
	require.Equal(t, int32(0), calls.Load(), "no job runs after the first failure")
}
