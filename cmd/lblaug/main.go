// Applies a pipeline of paired image/label augmentations to a directory of images and their
// label maps, writing the augmented images and/or TFRecord tensors.
package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sensorable/lblaug"
)

// augmentFlags holds the flag values of the augment command.
type augmentFlags struct {
	configPath     string // The TOML pipeline file.
	imageDirPath   string // The input directory with the images.
	labelDirPath   string // The input directory with the label maps (optional).
	imageOutDir    string // The output directory for augmented images and labels.
	recordsOutPath string // The TFRecord output file.
	numShardFiles  int    // The number of TFRecord shard files to create.
	repeat         int    // The number of augmented samples per input pair.
	seed           int64  // Overrides the seed from the config file when >= 0.
	workers        int    // The number of concurrent workers.
}

// newLogger creates a logger with timestamp formatting that writes to stderr.
func newLogger(verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "lblaug",
		Short:         "Paired image/label augmentation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.AddCommand(newAugmentCmd(&verbose))
	return root
}

func newAugmentCmd(verbose *bool) *cobra.Command {
	flags := augmentFlags{}
	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Augment images and labels with a pipeline from a TOML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(*verbose)
			log.SetDefault(logger)
			if err := flags.validate(); err != nil {
				return err
			}
			return runAugment(flags, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "The pipeline `file` (TOML)")
	f.StringVar(&flags.imageDirPath, "images", "", "The `path` to the image input directory")
	f.StringVar(&flags.labelDirPath, "labels", "",
		"The `path` to the label input directory; labels are matched to images by file name")
	f.StringVar(&flags.imageOutDir, "images-out", "",
		"The `path` to the output directory for augmented images and labels (PNG)")
	f.StringVar(&flags.recordsOutPath, "records-out", "", "The TFRecord output `file`")
	f.IntVar(&flags.numShardFiles, "num-shards", 1, "The number of TFRecord shard files to create")
	f.IntVar(&flags.repeat, "repeat", 1, "The number of augmented samples per image")
	f.Int64Var(&flags.seed, "seed", -1, "Overrides the seed of the pipeline file when >= 0")
	f.IntVar(&flags.workers, "workers", 0, "The number of concurrent workers (0 for 2 per CPU)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("images")
	return cmd
}

// validate checks and cleans the path arguments.
func (f *augmentFlags) validate() error {
	if f.imageOutDir == "" && f.recordsOutPath == "" {
		return errors.New("at least one of --images-out and --records-out is required")
	}
	if f.repeat < 1 {
		return errors.Errorf("invalid --repeat %d", f.repeat)
	}
	if f.numShardFiles < 1 {
		return errors.Errorf("invalid --num-shards %d", f.numShardFiles)
	}

	f.imageDirPath = filepath.Clean(f.imageDirPath)
	if f.labelDirPath != "" {
		f.labelDirPath = filepath.Clean(f.labelDirPath)
	}
	if f.imageOutDir != "" {
		f.imageOutDir = filepath.Clean(f.imageOutDir)
		if f.imageOutDir == f.imageDirPath || f.imageOutDir == f.labelDirPath {
			return errors.New("the input and output paths cannot be identical")
		}
	}
	return nil
}

func runAugment(flags augmentFlags, logger *log.Logger) error {
	start := time.Now()

	config, err := lblaug.LoadPipelineConfig(flags.configPath)
	if err != nil {
		return err
	}
	if flags.seed >= 0 {
		config.Seed = uint64(flags.seed)
	}
	transforms, err := config.Build()
	if err != nil {
		return err
	}
	logger.Debug("Loaded pipeline", "transforms", len(transforms), "seed", config.Seed)

	pairs, err := lblaug.PairFiles(flags.imageDirPath, flags.labelDirPath)
	if err != nil {
		return err
	}

	if flags.imageOutDir != "" {
		if err := os.MkdirAll(flags.imageOutDir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create the image output directory")
		}
	}

	samples, err := lblaug.AugmentFiles(pairs, lblaug.AugmentOptions{
		Transforms:  transforms,
		Seed:        config.Seed,
		Repeat:      flags.repeat,
		ImageOutDir: flags.imageOutDir,
		Workers:     flags.workers,
		Logger:      logger,
	})
	if err != nil {
		return errors.Wrap(err, "image augmentation failed")
	}

	if flags.recordsOutPath != "" {
		if err := lblaug.WriteTFRecord(flags.recordsOutPath, samples, flags.numShardFiles); err != nil {
			return errors.Wrap(err, "failed to write TFRecords")
		}
	}

	logger.Infof("Augmented %d samples (%s)", len(samples), time.Since(start).Round(time.Millisecond))
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal("Augmentation failed", "err", err)
	}
}
