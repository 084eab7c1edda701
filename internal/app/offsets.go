// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
)

// offsetsVersion is the current layout of the offsets file.
const offsetsVersion = 1

// OffsetsFile is the persisted result of a calibration.
type OffsetsFile struct {
	Version      int             `yaml:"version"`
	CalibratedAt time.Time       `yaml:"calibrated_at"`
	Offsets      adxl345.Offsets `yaml:"offsets"`
}

// SaveOffsets writes o to path, replacing any previous file.
func SaveOffsets(path string, o adxl345.Offsets) error {
	data, err := yaml.Marshal(OffsetsFile{
		Version:      offsetsVersion,
		CalibratedAt: time.Now().UTC().Truncate(time.Second),
		Offsets:      o,
	})
	if err != nil {
		return fmt.Errorf("marshal offsets: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write offsets file: %w", err)
	}
	return nil
}

// LoadOffsets reads an offsets file. A missing file yields an error
// matching os.ErrNotExist.
func LoadOffsets(path string) (OffsetsFile, error) {
	var f OffsetsFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read offsets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse offsets file %s: %w", path, err)
	}
	if f.Version != offsetsVersion {
		return f, fmt.Errorf("offsets file %s: unsupported version %d", path, f.Version)
	}
	return f, nil
}
