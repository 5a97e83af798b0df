// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package viper

import (
	"encoding/json"
	"math/rand"
	"time"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/reid/pkg/support/fsutil"
	"github.com/gomlx/reid/pkg/support/jsonfile"
	"github.com/gomlx/reid/pkg/support/sets"
)

// NumSplits is the number of independent train/test partitions generated for the dataset.
// Experiment results are usually averaged over all of them.
const NumSplits = 10

// Camera ids assigned to the two viewpoints.
const (
	CamA = 0
	CamB = 1
)

var (
	// ErrLengthMismatch is returned when the two camera image lists don't pair up.
	ErrLengthMismatch = errors.New("camera image lists have mismatching lengths")

	// ErrStoreCorrupt is returned when a persisted split file cannot be parsed
	// into the expected shape.
	ErrStoreCorrupt = errors.New("split file is corrupt")
)

// ImageRecord is one image of the dataset: its file path, the identity (person)
// label and the camera it was taken from.
//
// The identity is relabeled per split: it is a dense 0-based index within the
// split's train or test subset, not a global identity of the raw dataset.
//
// It serializes to JSON as a 3-element array `[path, pid, camid]`.
type ImageRecord struct {
	Path  string
	PID   int
	CamID int
}

// MarshalJSON implements json.Marshaler.
func (r ImageRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{r.Path, r.PID, r.CamID})
}

// UnmarshalJSON implements json.Unmarshaler. It requires the record to be a
// 3-element array.
func (r *ImageRecord) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return errors.Wrapf(ErrStoreCorrupt, "image record is not an array: %v", err)
	}
	if len(fields) != 3 {
		return errors.Wrapf(ErrStoreCorrupt, "image record has %d elements, expected 3", len(fields))
	}
	targets := []any{&r.Path, &r.PID, &r.CamID}
	for ii, field := range fields {
		if err := json.Unmarshal(field, targets[ii]); err != nil {
			return errors.Wrapf(ErrStoreCorrupt, "image record element %d: %v", ii, err)
		}
	}
	return nil
}

// Split is one random train/test partition trial of the dataset identities.
//
// Query and Gallery hold the same records: in VIPeR the test identities double
// as both retrieval-evaluation roles.
type Split struct {
	Train   []ImageRecord `json:"train"`
	Query   []ImageRecord `json:"query"`
	Gallery []ImageRecord `json:"gallery"`

	NumTrainPIDs   int `json:"num_train_pids"`
	NumQueryPIDs   int `json:"num_query_pids"`
	NumGalleryPIDs int `json:"num_gallery_pids"`
}

// SplitSet is the full collection of splits generated (and persisted) together.
type SplitSet []Split

// BuildSplits randomly partitions the dataset identities into numSplits independent
// train/test splits.
//
// camAPaths and camBPaths must be sorted and have the same length: index i in each
// list refers to the two photos of the same identity. It returns ErrLengthMismatch
// otherwise.
//
// Each split takes half the identities (rounded down) for training and the rest for
// testing, relabeled 0..n-1 within each subset. Each identity contributes two
// records, one per camera.
//
// rng is the source of randomness for the permutations. If nil, a time-seeded
// source is used, and results will differ from run to run; pass a seeded rng for
// reproducible splits.
func BuildSplits(camAPaths, camBPaths []string, numSplits int, rng *rand.Rand) (SplitSet, error) {
	if len(camAPaths) != len(camBPaths) {
		return nil, errors.Wrapf(ErrLengthMismatch, "cam_a has %d images, cam_b has %d",
			len(camAPaths), len(camBPaths))
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
	}
	numPIDs := len(camAPaths)
	numTrainPIDs := numPIDs / 2

	splits := make(SplitSet, 0, numSplits)
	for range numSplits {
		order := rng.Perm(numPIDs)
		trainIdxs := order[:numTrainPIDs]
		testIdxs := order[numTrainPIDs:]
		if sets.MakeWith(trainIdxs...).Intersects(sets.MakeWith(testIdxs...)) {
			exceptions.Panicf("train and test identity sets overlap after permutation of %d identities", numPIDs)
		}

		test := relabel(camAPaths, camBPaths, testIdxs)
		splits = append(splits, Split{
			Train:          relabel(camAPaths, camBPaths, trainIdxs),
			Query:          test,
			Gallery:        test,
			NumTrainPIDs:   numTrainPIDs,
			NumQueryPIDs:   numPIDs - numTrainPIDs,
			NumGalleryPIDs: numPIDs - numTrainPIDs,
		})
	}
	return splits, nil
}

// relabel emits the two per-camera records of each selected identity, assigning
// dense new identity labels in the order the indices appear.
func relabel(camAPaths, camBPaths []string, idxs []int) []ImageRecord {
	records := make([]ImageRecord, 0, 2*len(idxs))
	for pid, idx := range idxs {
		records = append(records,
			ImageRecord{Path: camAPaths[idx], PID: pid, CamID: CamA},
			ImageRecord{Path: camBPaths[idx], PID: pid, CamID: CamB})
	}
	return records
}

// LoadOrCreateSplits returns the SplitSet stored at splitsPath if one exists,
// ignoring build. Otherwise it calls build, persists the result at splitsPath
// and returns it.
//
// A split file, once written, is never regenerated: re-randomizing the splits
// would invalidate results of experiments already run against them.
//
// Not safe against concurrent invocations over the same path: two racing
// processes may both build and one write wins. Dataset preparation is expected
// to run once per machine.
func LoadOrCreateSplits(splitsPath string, build func() (SplitSet, error)) (SplitSet, error) {
	exists, err := fsutil.FileExists(splitsPath)
	if err != nil {
		return nil, err
	}
	if exists {
		return loadSplits(splitsPath)
	}

	klog.V(1).Infof("Creating %d random splits", NumSplits)
	splits, err := build()
	if err != nil {
		return nil, err
	}
	if err = jsonfile.Write(splitsPath, splits); err != nil {
		return nil, err
	}
	klog.V(1).Infof("Split file saved to %q", splitsPath)
	return splits, nil
}

func loadSplits(splitsPath string) (SplitSet, error) {
	var splits SplitSet
	if err := jsonfile.Read(splitsPath, &splits); err != nil {
		if errors.Is(err, ErrStoreCorrupt) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrStoreCorrupt, "failed to load split file %q: %v", splitsPath, err)
	}
	if err := splits.check(); err != nil {
		return nil, errors.Wrapf(ErrStoreCorrupt, "split file %q: %v", splitsPath, err)
	}
	return splits, nil
}

// check verifies a deserialized SplitSet has the expected shape. It does not
// re-validate the recorded image paths against the disk: the persisted format
// is trusted.
func (splits SplitSet) check() error {
	if len(splits) == 0 {
		return errors.New("contains no splits")
	}
	for ii, split := range splits {
		if split.Train == nil || split.Query == nil || split.Gallery == nil {
			return errors.Errorf("split %d is missing one of the train/query/gallery keys", ii)
		}
		if len(split.Train) != 2*split.NumTrainPIDs {
			return errors.Errorf("split %d has %d train records for %d train identities, expected %d",
				ii, len(split.Train), split.NumTrainPIDs, 2*split.NumTrainPIDs)
		}
		if len(split.Query) != 2*split.NumQueryPIDs {
			return errors.Errorf("split %d has %d query records for %d query identities, expected %d",
				ii, len(split.Query), split.NumQueryPIDs, 2*split.NumQueryPIDs)
		}
		if len(split.Gallery) != 2*split.NumGalleryPIDs {
			return errors.Errorf("split %d has %d gallery records for %d gallery identities, expected %d",
				ii, len(split.Gallery), split.NumGalleryPIDs, 2*split.NumGalleryPIDs)
		}
	}
	return nil
}
