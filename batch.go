package lblaug

// Concurrent augmentation of image/label files.

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// AugmentOptions configures AugmentFiles.
type AugmentOptions struct {
	Transforms  []Transform
	Seed        uint64      // Base seed; every job derives its own generator from it.
	Repeat      int         // Augmented samples per file pair; values < 1 mean 1.
	ImageOutDir string      // If set, augmented images and labels are written here as PNG.
	Workers     int         // Concurrent jobs; values < 1 mean 2*runtime.NumCPU().
	Logger      *log.Logger // Optional.
}

// augmentJob is one run of the transforms over one file pair.
type augmentJob struct {
	index  int // Position in the output.
	pair   *FilePair
	repeat int
}

// AugmentFiles loads every pair, runs the transforms over it opts.Repeat times and returns the
// samples in pair order, with the repeats of a pair next to each other. The image path of the
// pair is stored as the first element of Sample.Extras.
//
// Jobs run concurrently, but the generator of each job is seeded from opts.Seed and the job's
// position, so the results do not depend on scheduling.
func AugmentFiles(pairs []FilePair, opts AugmentOptions) ([]Sample, error) {
	repeat := opts.Repeat
	if repeat < 1 {
		repeat = 1
	}
	numJobs := len(pairs) * repeat

	// Limit the number of goroutines in flight, as they load potentially large images into memory.
	numTasks := opts.Workers
	if numTasks < 1 {
		numTasks = 2 * runtime.NumCPU()
	}
	if numJobs < numTasks {
		numTasks = numJobs
	}
	if opts.Logger != nil {
		opts.Logger.Infof("Augmenting %d file pairs (%d samples) with %d workers", len(pairs), numJobs,
			numTasks)
	}

	samples := make([]Sample, numJobs)
	workQueue := make(chan augmentJob, 2*numTasks)
	errCh := make(chan error, 1)
	failed := make(chan struct{}) // Closed on the first error.
	var failOnce sync.Once
	var wg sync.WaitGroup

	wg.Add(numTasks)
	for i := 0; i < numTasks; i++ {
		go func() {
			defer wg.Done()
			for job := range workQueue {
				// Drain the queue without doing any work once a job has failed.
				select {
				case <-failed:
					continue
				default:
				}

				s, err := augmentFile(job, opts)
				if err != nil {
					failOnce.Do(func() {
						errCh <- err
						close(failed)
					})
					continue
				}
				samples[job.index] = s
			}
		}()
	}

	// Feed the work queue until all jobs are queued or one has failed.
feed:
	for i := range pairs {
		for r := 0; r < repeat; r++ {
			select {
			case workQueue <- augmentJob{index: i*repeat + r, pair: &pairs[i], repeat: r}:
			case <-failed:
				break feed
			}
		}
	}
	close(workQueue)

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, err
	}

	return samples, nil
}

// augmentFile loads the files of job, transforms them and writes the results if requested.
func augmentFile(job augmentJob, opts AugmentOptions) (Sample, error) {
	img, _, err := loadImage(job.pair.ImagePath)
	if err != nil {
		return Sample{}, err
	}
	s := Sample{Image: img, Extras: []interface{}{job.pair.ImagePath}}
	if job.pair.LabelPath != "" {
		if s.Label, _, err = loadImage(job.pair.LabelPath); err != nil {
			return Sample{}, err
		}
	}

	rng := rand.New(rand.NewPCG(opts.Seed, uint64(job.index)))
	c := Compose{Transforms: opts.Transforms, Logger: opts.Logger}
	if s, err = c.Transform(rng, s); err != nil {
		return Sample{}, errors.Wrapf(err, "failed to augment %q", job.pair.ImagePath)
	}

	if opts.ImageOutDir == "" {
		return s, nil
	}

	_, baseNoExt, _, err := splitPath(job.pair.ImagePath)
	if err != nil {
		return Sample{}, err
	}
	if opts.Repeat > 1 {
		baseNoExt = fmt.Sprintf("%s_%02d", baseNoExt, job.repeat)
	}
	if err := saveImage(filepath.Join(opts.ImageOutDir, baseNoExt+".png"), s.Image, 0); err != nil {
		return Sample{}, err
	}
	if s.Label != nil {
		if err := saveImage(filepath.Join(opts.ImageOutDir, baseNoExt+"_label.png"), s.Label, 0); err != nil {
			return Sample{}, err
		}
	}

	return s, nil
}
