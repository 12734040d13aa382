package transientnd

import (
	"encoding/json"
	"fmt"
	"os"
)

// FilterCfg describes one reconstruction kernel.
type FilterCfg struct {
	Type   string `json:"type"`             // box, tent or gaussian
	Radius Real   `json:"radius,omitempty"` // box/tent; defaults 0.5 / 1.0
	Stddev Real   `json:"stddev,omitempty"` // gaussian; defaults 2.0
}

// Build constructs the kernel described by the config entry.
func (fc FilterCfg) Build() (Filter, error) {
	switch fc.Type {
	case "", "box":
		r := fc.Radius
		if r == 0 {
			r = 0.5
		}
		return NewBoxFilter(r), nil
	case "tent":
		r := fc.Radius
		if r == 0 {
			r = 1.0
		}
		return NewTentFilter(r), nil
	case "gaussian":
		sd := fc.Stddev
		if sd == 0 {
			sd = 2.0
		}
		return NewGaussianFilter(sd), nil
	default:
		return nil, fmt.Errorf("transientnd: unknown filter type %q", fc.Type)
	}
}

// LightCfg describes the cone flash of the synthetic sweep scene.
type LightCfg struct {
	Origin    [3]Real `json:"origin"` // wall units; z is the height above the wall
	Color     RGB     `json:"color"`
	Intensity Real    `json:"intensity"`
	AngleDeg  Real    `json:"angleDeg"` // cone half-angle around straight-down
}

type Config struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	TimeBins int `json:"timeBins"`
	Spp      int `json:"spp"`

	Filter         FilterCfg  `json:"filter"`                   // spatial axes
	TemporalFilter *FilterCfg `json:"temporalFilter,omitempty"` // defaults to the spatial filter
	Progressive    Real       `json:"progressive,omitempty"`    // gaussian stddev shrink per iteration
	Iterations     int        `json:"iterations,omitempty"`
	Border         bool       `json:"border"`
	Normalize      bool       `json:"normalize,omitempty"`

	StartOpl Real `json:"startOpl,omitempty"` // optical path length at bin 0
	BinWidth Real `json:"binWidth"`           // optical path length per time bin

	WallSize Real     `json:"wallSize"` // world size of the observed square wall
	Light    LightCfg `json:"light"`

	Gamma         bool   `json:"gamma,omitempty"` // apply sRGB transfer on develop
	GIFOut        string `json:"gifOut"`
	GIFDelay      int    `json:"gifDelay,omitempty"` // 100ths of a second per frame
	Upscale       int    `json:"upscale,omitempty"`  // integer export upscale factor
	CheckpointOut string `json:"checkpointOut,omitempty"`
	Seed          int64  `json:"seed,omitempty"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("transientnd: parse %s: %w", path, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.TimeBins <= 0 {
		return nil, fmt.Errorf("transientnd: resolution must be positive, got %dx%dx%d", cfg.Width, cfg.Height, cfg.TimeBins)
	}
	if cfg.BinWidth <= 0 {
		return nil, fmt.Errorf("transientnd: binWidth must be positive, got %g", cfg.BinWidth)
	}
	if cfg.WallSize <= 0 {
		cfg.WallSize = 1
	}
	if cfg.Spp <= 0 {
		cfg.Spp = 16
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1
	}
	if cfg.GIFDelay <= 0 {
		cfg.GIFDelay = 5
	}
	if cfg.Upscale <= 0 {
		cfg.Upscale = 1
	}
	if cfg.GIFOut == "" {
		cfg.GIFOut = "transient.gif"
	}
	DebugLog("Loaded config %s: %dx%dx%d, spp=%d, iterations=%d", path, cfg.Width, cfg.Height, cfg.TimeBins, cfg.Spp, cfg.Iterations)
	return &cfg, nil
}

// buildFilters returns one kernel per block axis [x, y, time] for a given
// progressive iteration. A progressive Gaussian time filter narrows by
// Progressive stddevs per iteration, never below 0.5.
func (cfg *Config) buildFilters(iteration int) ([]Filter, error) {
	spatial, err := cfg.Filter.Build()
	if err != nil {
		return nil, err
	}
	tc := cfg.TemporalFilter
	if tc == nil {
		tc = &cfg.Filter
	}
	var temporal Filter
	if tc.Type == "gaussian" {
		sd := tc.Stddev
		if sd == 0 {
			sd = 2.0
		}
		sd -= Real(iteration) * cfg.Progressive
		if sd < 0.5 {
			sd = 0.5
		}
		temporal = NewGaussianFilter(sd)
	} else {
		temporal, err = tc.Build()
		if err != nil {
			return nil, err
		}
	}
	return []Filter{spatial, spatial, temporal}, nil
}
