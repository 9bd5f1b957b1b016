// Copyright 2024 The Pade Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the TOML run configuration for the pade
// command: which statistic to score, how the sample columns group
// into conditions and blocks, and the resampling parameters.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/youngorchuang/pade/exprfmt"
	"github.com/youngorchuang/pade/layout"
)

// Statistic names accepted in Config.Stat.
const (
	StatFTest      = "ftest"
	StatTTest      = "ttest"
	StatPaired     = "paired"
	StatMeansRatio = "means_ratio"
)

// A Group assigns named samples to one experimental group.
type Group struct {
	Name    string   `toml:"name"`
	Samples []string `toml:"samples"`
}

// A Config describes one analysis run.
type Config struct {
	// Stat selects the test statistic: "ftest", "ttest",
	// "paired", or "means_ratio".
	Stat string `toml:"stat"`

	// Groups are the condition groups, in order. Required for
	// every statistic except "ttest".
	Groups []Group `toml:"group"`

	// Blocks optionally group samples by a blocking variable
	// (pairs for "paired", blocks for "means_ratio").
	Blocks []Group `toml:"block"`

	// NumSamples is the number of resampling draws R. Zero means
	// the resampler's default.
	NumSamples int `toml:"num_samples"`

	// Bins is the number of histogram bins for the uniform
	// first-pass scan. Zero means 1000.
	Bins int `toml:"bins"`

	// Alphas are optional tuning parameters swept over the
	// statistic's denominator.
	Alphas []float64 `toml:"alphas"`

	// Seed seeds the random source. Runs with equal seeds and
	// inputs produce identical results.
	Seed int64 `toml:"seed"`

	// Symmetric folds means-ratio values below 1 to their
	// reciprocals. Only meaningful for "means_ratio".
	Symmetric bool `toml:"symmetric"`
}

// Load reads and validates a Config from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Stat {
	case StatFTest, StatMeansRatio:
		if len(c.Groups) == 0 {
			return fmt.Errorf("stat %q needs at least one [[group]]", c.Stat)
		}
	case StatPaired:
		if len(c.Blocks) == 0 {
			return fmt.Errorf("stat %q needs [[block]] entries defining the pairs", c.Stat)
		}
	case StatTTest:
		// Scores all sample columns against zero; no groups.
	case "":
		return fmt.Errorf("missing stat")
	default:
		return fmt.Errorf("unknown stat %q", c.Stat)
	}
	if c.Stat == StatMeansRatio && len(c.Groups) != 2 {
		return fmt.Errorf("stat %q needs exactly two [[group]] entries, got %d", c.Stat, len(c.Groups))
	}
	if c.NumSamples < 0 {
		return fmt.Errorf("num_samples must be non-negative, got %d", c.NumSamples)
	}
	if c.Bins < 0 {
		return fmt.Errorf("bins must be non-negative, got %d", c.Bins)
	}
	if err := checkGroups("group", c.Groups); err != nil {
		return err
	}
	return checkGroups("block", c.Blocks)
}

// checkGroups verifies that each group in one layout is named,
// non-empty, and disjoint from its siblings. Groups and blocks may
// share samples with each other; they are separate partitions of the
// same columns.
func checkGroups(kind string, groups []Group) error {
	seen := make(map[string]string)
	for _, g := range groups {
		if g.Name == "" {
			return fmt.Errorf("%s with samples %v is missing a name", kind, g.Samples)
		}
		if len(g.Samples) == 0 {
			return fmt.Errorf("%s %q has no samples", kind, g.Name)
		}
		for _, s := range g.Samples {
			if prev, ok := seen[s]; ok {
				return fmt.Errorf("sample %q appears in both %s %q and %s %q", s, kind, prev, kind, g.Name)
			}
			seen[s] = g.Name
		}
	}
	return nil
}

// resolveGroups maps groups of sample names to groups of column
// indexes in t.
func resolveGroups(groups []Group, t *exprfmt.Table) ([][]int, error) {
	idx := make([][]int, len(groups))
	for i, g := range groups {
		for _, name := range g.Samples {
			j := t.SampleIndex(name)
			if j < 0 {
				return nil, fmt.Errorf("group %q names unknown sample %q", g.Name, name)
			}
			idx[i] = append(idx[i], j)
		}
	}
	return idx, nil
}

// ConditionLayout resolves the condition groups of c against the
// sample columns of t.
func (c *Config) ConditionLayout(t *exprfmt.Table) (layout.Layout, error) {
	groups, err := resolveGroups(c.Groups, t)
	if err != nil {
		return layout.Layout{}, err
	}
	return layout.New(groups)
}

// BlockLayout resolves the block groups of c against the sample
// columns of t. With no [[block]] entries it returns a single block
// covering every sample named by the condition groups.
func (c *Config) BlockLayout(t *exprfmt.Table) (layout.Layout, error) {
	if len(c.Blocks) > 0 {
		groups, err := resolveGroups(c.Blocks, t)
		if err != nil {
			return layout.Layout{}, err
		}
		return layout.New(groups)
	}
	cond, err := c.ConditionLayout(t)
	if err != nil {
		return layout.Layout{}, err
	}
	return layout.New([][]int{cond.Indexes()})
}

// ReducedLayout returns the null-hypothesis layout: all condition
// samples in one group, in condition order.
func (c *Config) ReducedLayout(t *exprfmt.Table) (layout.Layout, error) {
	cond, err := c.ConditionLayout(t)
	if err != nil {
		return layout.Layout{}, err
	}
	return layout.New([][]int{cond.Indexes()})
}
