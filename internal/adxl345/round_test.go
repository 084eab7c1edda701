// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package adxl345_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
)

func TestRoundedDiv(t *testing.T) {
	patterns := []struct {
		n, d, want int
	}{
		{0, 32, 0},
		{0, -3, 0},
		{5, 2, 3},
		{-5, 2, -3},
		{5, -2, -3},
		{-5, -2, 3},
		{7, -2, -4},
		{4, 4, 1},
		{-4, 4, -1},
		{6, 4, 2},
		{-6, 4, -2},
		{1, 4, 0},
		{-1, 4, 0},
		{2, 4, 1},
		{-2, 4, -1},
		{2000, 512, 4},
		{4000, 512, 8},
		{8000, 512, 16},
		{16000, 512, 31},
		{128 * 32, 32, 128},
		{-8191, 32, -256},
		{9, 1, 9},
		{-9, 1, -9},
	}
	for _, p := range patterns {
		t.Run(fmt.Sprintf("%d/%d", p.n, p.d), func(t *testing.T) {
			assert.Equal(t, p.want, adxl345.RoundedDiv(p.n, p.d))
		})
	}
}

// The helper must agree with its definition for every sign combination.
func TestRoundedDivDefinition(t *testing.T) {
	for n := -40; n <= 40; n++ {
		for _, d := range []int{-7, -4, -2, -1, 1, 2, 3, 4, 32} {
			var want int
			if (n < 0) != (d < 0) {
				want = (n - d/2) / d
			} else {
				want = (n + d/2) / d
			}
			assert.Equal(t, want, adxl345.RoundedDiv(n, d), "n=%d d=%d", n, d)
		}
	}
}
