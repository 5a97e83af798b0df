// Copyright 2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := MakeWith(1, 3, 5)
	require.True(t, s.Has(3))
	require.False(t, s.Has(2))

	s.Insert(2)
	require.True(t, s.Has(2))
	require.Len(t, s, 4)
}

func TestIntersects(t *testing.T) {
	require.True(t, MakeWith(1, 2, 3).Intersects(MakeWith(3, 4)))
	require.False(t, MakeWith(1, 2, 3).Intersects(MakeWith(4, 5)))
	require.False(t, MakeWith(1, 2, 3).Intersects(Make[int]()))
	require.False(t, Make[int]().Intersects(Make[int]()))
}

func TestEqual(t *testing.T) {
	require.True(t, MakeWith("a", "b").Equal(MakeWith("b", "a")))
	require.False(t, MakeWith("a", "b").Equal(MakeWith("a")))
	require.False(t, MakeWith("a").Equal(MakeWith("b")))
}
