package lblaug

// TFRecord export of sample tensors.

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/charmbracelet/log"
	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// toTFFeatures converts a sample to the default feature map: the image tensor and shape, the
// label tensor and shape if there is a label, and the file name if the first extra is a string.
//
// Samples that did not pass through ToTensor are converted here.
func toTFFeatures(s Sample) TFFeatureMap {
	tensors := s.Tensors
	if len(tensors) == 0 {
		tensors = []*Tensor{ImageToTensor(s.Image)}
		if s.Label != nil {
			tensors = append(tensors, ImageToTensor(s.Label))
		}
	}

	shape := func(t *Tensor) []int64 {
		dims := make([]int64, len(t.Shape))
		for i, d := range t.Shape {
			dims[i] = int64(d)
		}
		return dims
	}

	f := make(TFFeatureMap, 5)
	f["image/tensor"] = tensors[0].Data
	f["image/shape"] = shape(tensors[0])
	if len(tensors) > 1 {
		f["label/tensor"] = tensors[1].Data
		f["label/shape"] = shape(tensors[1])
	}
	if len(s.Extras) > 0 {
		if name, ok := s.Extras[0].(string); ok {
			f["image/filename"] = name
		}
	}
	return f
}

// WriteCustomTFRecord works like WriteTFRecord, except that it allows for the TFFeatureMap to be
// customised.
//
// Before generating a tensorflow.Example from each Sample and writing it to the TFRecord file,
// the sample and the TFFeatureMap containing the default conversion are passed to
// customiseFeature, which may modify the feature map to its liking, as long as all of its values
// can be converted to tensorflow.Feature.
func WriteCustomTFRecord(recordFilePath string, data []Sample, numShards int,
	customiseFeature func(s Sample, m TFFeatureMap)) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}
	if len(data) == 0 {
		return nil
	}

	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	var shardFile *os.File
	defer func() {
		if shardFile != nil {
			closeWithErrCheck(shardFile, &err)
		}
	}()
	shardSize := int(math.Ceil(float64(len(data)) / float64(numShards)))
	shardIdx := -1

	// Convert and serialise one sample at a time.
	for i, s := range data {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++

			// Close the previous shard file.
			if shardFile != nil {
				if err := shardFile.Close(); err != nil {
					return err
				}
				shardFile = nil
			}

			// Create the new shard file.
			shardPath := recordFilePath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return errors.Wrapf(err, "failed to create shard at %q", shardPath)
			}
			shardFile = f
		}

		features := toTFFeatures(s)
		if customiseFeature != nil {
			customiseFeature(s, features)
		}
		tfExample := example.New(features)

		if err := writeTFRecordExample(shardFile, tfExample); err != nil {
			return errors.Wrapf(err, "failed to write example %d", i)
		}
	}

	log.Infof("Wrote %d examples to %d shard(s) at %s", len(data), shardIdx+1, recordFilePath)
	return nil
}

// WriteTFRecord serialises the sample tensors as tensorflow.Example records to one or more
// TFRecord files stored under recordFilePath (with suffixes added when numShards>1).
func WriteTFRecord(recordFilePath string, data []Sample, numShards int) error {
	return WriteCustomTFRecord(recordFilePath, data, numShards, nil)
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}
