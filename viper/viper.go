// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package viper prepares the VIPeR person re-identification dataset: it downloads
// the raw images if needed, generates (or loads) the 10 standard random train/test
// splits, and exposes the selected split as lists of (path, identity, camera)
// records ready to feed a training pipeline.
//
// Reference: Gray et al., "Evaluating appearance models for recognition,
// reacquisition, and tracking", PETS 2007.
//
// Dataset statistics: 632 identities, each photographed once by each of the two
// cameras, so 1264 images total.
//
// Usage:
//
//	ds, err := viper.New("~/datasets", 0, nil)
//	if err != nil { ... }
//	ds.PrintStats()
//	for _, record := range ds.Train { ... }
package viper

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"

	"github.com/gomlx/reid/pkg/support/fsutil"
)

const (
	// DownloadURL is the home of the original VIPeR archive.
	DownloadURL = "http://users.soe.ucsc.edu/~manduchi/VIPeR.v1.0.zip"

	// LocalZipFile is the name the downloaded archive is saved under.
	LocalZipFile = "VIPeR.v1.0.zip"

	// LocalDirName is the subdirectory of the dataset root holding everything
	// related to this dataset.
	LocalDirName = "viper"

	// ImagesDirName is the directory the archive unzips to, holding the two
	// per-camera image directories.
	ImagesDirName = "VIPeR"

	// CamADirName and CamBDirName are the two per-camera image directories.
	CamADirName = "cam_a"
	CamBDirName = "cam_b"

	// SplitsFileName is the persisted split definitions, alongside ImagesDirName.
	SplitsFileName = "splits.json"

	imageExt = ".bmp"
)

// ErrSplitIndexOutOfRange is returned when requesting a split id outside the
// generated set.
var ErrSplitIndexOutOfRange = errors.New("split id out of range")

// Dataset is the VIPeR dataset prepared for one selected split.
type Dataset struct {
	// BaseDir is `<root>/viper`, where the raw images and the split file live.
	BaseDir string

	// Train, Query and Gallery are the image records of the selected split.
	// Query and Gallery hold the same images.
	Train, Query, Gallery []ImageRecord

	// Number of distinct identities in each subset.
	NumTrainPIDs, NumQueryPIDs, NumGalleryPIDs int
}

// New downloads (if needed) the VIPeR dataset under `<root>/viper`, prepares its
// split file on first use and returns the dataset for the given split id
// (0 to NumSplits-1).
//
// rng is only used when the split file doesn't exist yet and the splits must be
// generated; pass nil for a time-seeded source, or a seeded *rand.Rand for
// reproducible generation. Once the split file exists it is always loaded
// verbatim and rng is ignored.
func New(root string, splitID int, rng *rand.Rand) (*Dataset, error) {
	root = fsutil.MustReplaceTildeInDir(root)
	baseDir := path.Join(root, LocalDirName)
	if err := Download(baseDir); err != nil {
		return nil, err
	}
	if err := CheckDirs(baseDir); err != nil {
		return nil, err
	}
	splits, err := PrepareSplits(baseDir, rng)
	if err != nil {
		return nil, err
	}
	ds, err := FromSplits(splits, splitID)
	if err != nil {
		return nil, err
	}
	ds.BaseDir = baseDir
	return ds, nil
}

// FromSplits assembles a Dataset from one split of an already loaded SplitSet.
// It returns ErrSplitIndexOutOfRange if splitID is not in `[0, len(splits))`.
func FromSplits(splits SplitSet, splitID int) (*Dataset, error) {
	if splitID < 0 || splitID >= len(splits) {
		return nil, errors.Wrapf(ErrSplitIndexOutOfRange,
			"received %d, but expected between 0 and %d", splitID, len(splits)-1)
	}
	split := splits[splitID]
	return &Dataset{
		Train:          split.Train,
		Query:          split.Query,
		Gallery:        split.Gallery,
		NumTrainPIDs:   split.NumTrainPIDs,
		NumQueryPIDs:   split.NumQueryPIDs,
		NumGalleryPIDs: split.NumGalleryPIDs,
	}, nil
}

// PrintStats writes a summary table of the selected split to stdout.
func (ds *Dataset) PrintStats() {
	ds.WriteStats(os.Stdout)
}

// WriteStats writes a summary table of the selected split to w.
func (ds *Dataset) WriteStats(w io.Writer) {
	fmt.Fprintln(w, "=> VIPeR loaded")
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	tw.AppendHeader(table.Row{"subset", "# ids", "# images"})
	tw.AppendRows([]table.Row{
		{"train", ds.NumTrainPIDs, len(ds.Train)},
		{"query", ds.NumQueryPIDs, len(ds.Query)},
		{"gallery", ds.NumGalleryPIDs, len(ds.Gallery)},
	})
	tw.AppendFooter(table.Row{"total", ds.NumTrainPIDs + ds.NumQueryPIDs, len(ds.Train) + len(ds.Query)})
	tw.Render()
}
