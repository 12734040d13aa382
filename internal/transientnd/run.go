package transientnd

import (
	"fmt"
	"strings"
	"time"
)

// Run executes the built-in transient demo: load a config, accumulate the
// flash sweep over all progressive iterations and passes, then develop
// and export the time-resolved image.
func Run(cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	light, err := NewFlash(cfg.Light)
	if err != nil {
		return err
	}

	filters, err := cfg.buildFilters(0)
	if err != nil {
		return err
	}
	// Channels: R, G, B, alpha plus the trailing weight accumulator.
	block, err := NewBlock([]int{cfg.Width, cfg.Height, cfg.TimeBins}, 5, filters, cfg.Border, cfg.Normalize)
	if err != nil {
		return err
	}

	// A single pass may address at most MaxSamplesPerPass samples; larger
	// spp totals are split into passes rather than rejected.
	cells := cfg.Width * cfg.Height
	sppPerPass := MaxSamplesPerPass / cells
	if sppPerPass == 0 {
		return fmt.Errorf("transientnd: film of %d pixels exceeds the per-pass sample budget even at 1 spp; use a smaller film", cells)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	start := time.Now()
	for it := 0; it < cfg.Iterations; it++ {
		if it > 0 {
			// Progressive narrowing of the temporal filter; the block
			// keeps its allocation and only shifts the logical window.
			filters, err = cfg.buildFilters(it)
			if err != nil {
				return err
			}
			if err := block.ConfigureFilter(filters, cfg.Border); err != nil {
				return err
			}
		}
		remaining := cfg.Spp
		for pass := 0; remaining > 0; pass++ {
			spp := min(remaining, sppPerPass)
			DebugLog("Iteration %d pass %d: %d spp", it, pass, spp)
			Sweep(block, cfg, light, spp, seed+int64(it)*7919+int64(pass))
			remaining -= spp
		}
	}
	DebugLog("Accumulation time: %s", time.Since(start))

	if RAW {
		out := cfg.CheckpointOut
		if out == "" {
			out = strings.Replace(cfg.GIFOut, ".gif", ".ckpt", 1)
		}
		if err := block.SaveCheckpoint(out); err != nil {
			return err
		}
		DebugLog("Saved checkpoint: %s", out)
	}

	img := block.Develop(cfg.Gamma, false)
	if PNG {
		prefix := strings.Replace(cfg.GIFOut, ".gif", "", 1)
		prefix = strings.Replace(prefix, "gifs/", "pngs/", 1)
		if err := SavePNGSequence16(img, prefix, cfg.Upscale); err != nil {
			return err
		}
		DebugLog("Saved PNG sequence with prefix: %s", prefix)
	} else {
		if err := SaveAnimatedGIF(img, cfg.GIFOut, cfg.GIFDelay, cfg.Upscale); err != nil {
			return err
		}
		DebugLog("Saved animated GIF: %s", cfg.GIFOut)
	}
	return nil
}
