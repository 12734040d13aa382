package transientnd

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
)

// Flash is a cone flash light hovering above the wall plane z=0, aimed
// straight down. It is the sample source of the built-in transient demo:
// every wall point lit by the cone receives an impulse whose arrival time
// equals the optical path length from the flash.
type Flash struct {
	Origin    [3]Real
	Color     RGB
	Intensity Real
	cosAngle  Real
}

// NewFlash validates the light config and caches the cone cosine.
func NewFlash(cfg LightCfg) (*Flash, error) {
	if cfg.AngleDeg <= 0 || cfg.AngleDeg > 180 {
		return nil, fmt.Errorf("transientnd: cone half-angle must be in (0, 180] degrees, got %g", cfg.AngleDeg)
	}
	if cfg.Origin[2] <= 0 {
		return nil, fmt.Errorf("transientnd: flash must sit above the wall, got z=%g", cfg.Origin[2])
	}
	intensity := cfg.Intensity
	if intensity == 0 {
		intensity = 1
	}
	f := &Flash{
		Origin:    cfg.Origin,
		Color:     cfg.Color,
		Intensity: intensity,
		cosAngle:  math.Cos(cfg.AngleDeg * math.Pi / 180),
	}
	DebugLog("Created flash %+v", f)
	return f, nil
}

// Sweep renders one pass of the synthetic flash scene into the block:
// spp jittered samples per pixel, with the optical path length from the
// flash to the wall point mapped onto the time axis. Workers partition
// the image rows; deposits go through the block's shard locks.
func Sweep(b *Block, cfg *Config, light *Flash, spp int, seed int64) {
	width, height := cfg.Width, cfg.Height
	sx := cfg.WallSize / Real(width)
	sy := cfg.WallSize / Real(height)

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	if workers > height {
		workers = height
	}
	rowsPer, rem := height/workers, height%workers

	total := int64(width) * int64(height) * int64(spp)
	var counter int64
	nextPrint := total / 100 // every ~1%
	if nextPrint < 1 {
		nextPrint = 1
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	row := 0
	for w := 0; w < workers; w++ {
		rows := rowsPer
		if w < rem {
			rows++
		}
		go func(wid, y0, y1 int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed ^ int64(wid)*0x9e3779b9))
			s := b.newScratch()
			pos := make([]Real, 3)
			values := make([]Real, b.channelCount-1)
			for y := y0; y < y1; y++ {
				for x := 0; x < width; x++ {
					for i := 0; i < spp; i++ {
						px := Real(x) + rng.Float64()
						py := Real(y) + rng.Float64()
						dx := px*sx - light.Origin[0]
						dy := py*sy - light.Origin[1]
						dz := light.Origin[2]
						dist := math.Sqrt(dx*dx + dy*dy + dz*dz)

						// cosine both of the cone test (aim is straight
						// down) and of the receiving wall normal
						cos := dz / dist
						active := cos >= light.cosAngle

						wgt := light.Intensity * cos / (dist*dist + epsDist)
						if !isFinite(wgt) {
							active = false
							wgt = 0
						}
						pos[0], pos[1] = px, py
						pos[2] = (dist - cfg.StartOpl) / cfg.BinWidth
						values[ChR] = light.Color.R * wgt
						values[ChG] = light.Color.G * wgt
						values[ChB] = light.Color.B * wgt
						values[ChA] = 1
						b.put(pos, values, active, s)

						if fired := atomic.AddInt64(&counter, 1); fired%nextPrint == 0 {
							if Debug {
								fmt.Printf("[SWEEP] %.2f%%\n", float64(fired)*100/float64(total))
							}
						}
					}
				}
			}
		}(w, row, row+rows)
		row += rows
	}
	wg.Wait()
}
