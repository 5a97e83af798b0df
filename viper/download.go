// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package viper

import (
	"math/rand"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/reid/downloader"
	"github.com/gomlx/reid/pkg/support/fsutil"
)

// ErrDatasetDirMissing is returned by CheckDirs when a required dataset
// directory is not in place.
var ErrDatasetDirMissing = errors.New("dataset directory missing")

// Download the VIPeR archive into baseDir and unzip it, if the images aren't
// there already. The archive carries no published checksum, so none is verified.
func Download(baseDir string) error {
	baseDir = fsutil.MustReplaceTildeInDir(baseDir)
	if err := fsutil.MkdirIfMissing(baseDir); err != nil {
		return err
	}
	zipPath := path.Join(baseDir, LocalZipFile)
	targetDir := path.Join(baseDir, ImagesDirName)
	return downloader.DownloadAndUnzipIfMissing(DownloadURL, zipPath, baseDir, targetDir, "")
}

// CheckDirs verifies that the dataset root and the two per-camera image
// directories exist before any split work starts. It returns
// ErrDatasetDirMissing naming the first missing directory.
func CheckDirs(baseDir string) error {
	dirs := []string{
		baseDir,
		path.Join(baseDir, ImagesDirName, CamADirName),
		path.Join(baseDir, ImagesDirName, CamBDirName),
	}
	for _, dir := range dirs {
		exists, err := fsutil.FileExists(dir)
		if err != nil {
			return err
		}
		if !exists {
			return errors.Wrapf(ErrDatasetDirMissing, "%q is not available", dir)
		}
	}
	return nil
}

// PrepareSplits loads the dataset's split file, generating and persisting it
// first if it doesn't exist yet. rng is only used for generation (see New).
func PrepareSplits(baseDir string, rng *rand.Rand) (SplitSet, error) {
	splitsPath := path.Join(baseDir, SplitsFileName)
	return LoadOrCreateSplits(splitsPath, func() (SplitSet, error) {
		camAPaths, err := listImages(path.Join(baseDir, ImagesDirName, CamADirName))
		if err != nil {
			return nil, err
		}
		camBPaths, err := listImages(path.Join(baseDir, ImagesDirName, CamBDirName))
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("Number of identities: %d", len(camAPaths))
		return BuildSplits(camAPaths, camBPaths, NumSplits, rng)
	})
}

// listImages returns the full paths of the ".bmp" images in dir, sorted
// lexicographically by file name.
//
// Identity correspondence between the two camera directories is positional
// after each is sorted independently; the raw data layout guarantees the
// pairing, it is not verified by matching file names across directories.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan images in directory %q", dir)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, imageExt) {
			continue
		}
		paths = append(paths, path.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}
