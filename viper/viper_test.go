// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package viper

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomlx/reid/pkg/support/fsutil"
)

// makeRawDataset lays out `<root>/viper/VIPeR/{cam_a,cam_b}` with numPIDs dummy
// .bmp images each, mimicking the unpacked archive so New skips the download.
func makeRawDataset(t *testing.T, root string, numPIDs int) {
	t.Helper()
	for _, camDir := range []string{CamADirName, CamBDirName} {
		dir := path.Join(root, LocalDirName, ImagesDirName, camDir)
		require.NoError(t, os.MkdirAll(dir, 0777))
		for ii := 0; ii < numPIDs; ii++ {
			imgPath := path.Join(dir, fmt.Sprintf("%03d_45.bmp", ii))
			require.NoError(t, os.WriteFile(imgPath, []byte("bmp"), 0666))
		}
		// A stray non-image file must be ignored by the listing.
		require.NoError(t, os.WriteFile(path.Join(dir, "notes.txt"), []byte("x"), 0666))
	}
}

func TestCheckDirs(t *testing.T) {
	root := t.TempDir()
	baseDir := path.Join(root, LocalDirName)
	camBDir := path.Join(baseDir, ImagesDirName, CamBDirName)

	require.ErrorIs(t, CheckDirs(baseDir), ErrDatasetDirMissing)

	// With root and cam_a in place, the failure must name cam_b specifically.
	require.NoError(t, os.MkdirAll(path.Join(baseDir, ImagesDirName, CamADirName), 0777))
	err := CheckDirs(baseDir)
	require.ErrorIs(t, err, ErrDatasetDirMissing)
	require.ErrorContains(t, err, camBDir)

	require.NoError(t, os.MkdirAll(camBDir, 0777))
	require.NoError(t, CheckDirs(baseDir))
}

func TestNew(t *testing.T) {
	const numPIDs = 6
	root := t.TempDir()
	makeRawDataset(t, root, numPIDs)

	ds, err := New(root, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Equal(t, numPIDs/2, ds.NumTrainPIDs)
	require.Equal(t, numPIDs-numPIDs/2, ds.NumQueryPIDs)
	require.Equal(t, ds.NumQueryPIDs, ds.NumGalleryPIDs)
	require.Len(t, ds.Train, 2*ds.NumTrainPIDs)
	require.Equal(t, ds.Query, ds.Gallery)
	require.True(t, fsutil.MustFileExists(path.Join(root, LocalDirName, SplitsFileName)))

	// A second run loads the persisted splits: a different seed must not matter.
	ds2, err := New(root, 0, rand.New(rand.NewSource(999)))
	require.NoError(t, err)
	require.Equal(t, ds.Train, ds2.Train)
	require.Equal(t, ds.Query, ds2.Query)
}

func TestNewSplitIndexOutOfRange(t *testing.T) {
	root := t.TempDir()
	makeRawDataset(t, root, 4)

	_, err := New(root, NumSplits, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrSplitIndexOutOfRange)
	require.ErrorContains(t, err, fmt.Sprintf("between 0 and %d", NumSplits-1))

	_, err = New(root, -1, rand.New(rand.NewSource(1)))
	require.ErrorIs(t, err, ErrSplitIndexOutOfRange)
}

func TestFromSplits(t *testing.T) {
	camAPaths, camBPaths := testCameraPaths(4)
	splits, err := BuildSplits(camAPaths, camBPaths, NumSplits, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	for splitID := range splits {
		ds, err := FromSplits(splits, splitID)
		require.NoError(t, err)
		require.Equal(t, splits[splitID].Train, ds.Train)
		require.Equal(t, splits[splitID].Query, ds.Query)
		require.Equal(t, splits[splitID].Gallery, ds.Gallery)
	}

	_, err = FromSplits(splits, len(splits))
	require.ErrorIs(t, err, ErrSplitIndexOutOfRange)
}

func TestWriteStats(t *testing.T) {
	root := t.TempDir()
	makeRawDataset(t, root, 6)
	ds, err := New(root, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	var buf bytes.Buffer
	ds.WriteStats(&buf)
	out := buf.String()
	require.Contains(t, out, "=> VIPeR loaded")
	for _, subset := range []string{"train", "query", "gallery", "total"} {
		require.Contains(t, out, subset)
	}
}
