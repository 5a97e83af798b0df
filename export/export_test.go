// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package export

import (
	"context"
	"fmt"
	"math/rand"
	"path"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomlx/reid/viper"
)

func testDataset(t *testing.T, numPIDs int) *viper.Dataset {
	t.Helper()
	var camAPaths, camBPaths []string
	for ii := 0; ii < numPIDs; ii++ {
		camAPaths = append(camAPaths, fmt.Sprintf("cam_a/%03d_45.bmp", ii))
		camBPaths = append(camBPaths, fmt.Sprintf("cam_b/%03d_90.bmp", ii))
	}
	splits, err := viper.BuildSplits(camAPaths, camBPaths, viper.NumSplits, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	ds, err := viper.FromSplits(splits, 0)
	require.NoError(t, err)
	return ds
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	ds := testDataset(t, 8)

	store, err := Open(path.Join(t.TempDir(), "viper.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	require.NoError(t, store.WriteDataset(ctx, ds))

	for subset, want := range map[string][]viper.ImageRecord{
		SubsetTrain:   ds.Train,
		SubsetQuery:   ds.Query,
		SubsetGallery: ds.Gallery,
	} {
		count, err := store.CountImages(ctx, subset)
		require.NoError(t, err)
		require.Equal(t, len(want), count, "subset %s", subset)

		records, err := store.ReadSubset(ctx, subset)
		require.NoError(t, err)
		require.Equal(t, want, records, "subset %s", subset)
	}
}

func TestWriteDatasetReplacesPreviousExport(t *testing.T) {
	ctx := context.Background()
	store, err := Open(path.Join(t.TempDir(), "viper.db"))
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	require.NoError(t, store.WriteDataset(ctx, testDataset(t, 8)))
	smaller := testDataset(t, 4)
	require.NoError(t, store.WriteDataset(ctx, smaller))

	count, err := store.CountImages(ctx, SubsetTrain)
	require.NoError(t, err)
	require.Equal(t, len(smaller.Train), count)
}
