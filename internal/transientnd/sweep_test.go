package transientnd

import (
	"encoding/json"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
)

func TestNewFlashErrors(t *testing.T) {
	if _, err := NewFlash(LightCfg{Origin: [3]Real{0, 0, 1}, AngleDeg: 0}); err == nil {
		t.Fatal("zero cone angle accepted")
	}
	if _, err := NewFlash(LightCfg{Origin: [3]Real{0, 0, 0}, AngleDeg: 60}); err == nil {
		t.Fatal("flash on the wall plane accepted")
	}
	f, err := NewFlash(LightCfg{Origin: [3]Real{0, 0, 1}, AngleDeg: 60})
	if err != nil {
		t.Fatal(err)
	}
	if f.Intensity != 1 {
		t.Fatalf("default intensity = %g, want 1", f.Intensity)
	}
}

func TestSweepDeposits(t *testing.T) {
	cfg := &Config{
		Width: 8, Height: 8, TimeBins: 16,
		WallSize: 1, BinWidth: 0.05, StartOpl: 0.9,
		Light: LightCfg{
			Origin:   [3]Real{0.5, 0.5, 1},
			Color:    RGB{R: 1, G: 1, B: 1},
			AngleDeg: 90, // whole wall lit
		},
	}
	light, err := NewFlash(cfg.Light)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBlock([]int{cfg.Width, cfg.Height, cfg.TimeBins}, 5, []Filter{NewBoxFilter(0.5)}, true, false)
	if err != nil {
		t.Fatal(err)
	}
	const spp = 4
	Sweep(b, cfg, light, spp, 1)

	// All distances fall in [1, 1.23), so every sample lands in bins 2..7
	// and contributes exactly one unit of filter weight.
	var weight Real
	data := b.Data()
	for i := b.ChannelCount() - 1; i < len(data); i += b.ChannelCount() {
		weight += data[i]
	}
	want := Real(cfg.Width * cfg.Height * spp)
	if !nearly(weight, want, 1e-9) {
		t.Fatalf("weight sum = %g, want %g", weight, want)
	}
	for i, v := range data {
		if !isFinite(v) || v < 0 {
			t.Fatalf("element %d = %g", i, v)
		}
	}

	// The same seed must reproduce the same buffer.
	b2, err := NewBlock([]int{cfg.Width, cfg.Height, cfg.TimeBins}, 5, []Filter{NewBoxFilter(0.5)}, true, false)
	if err != nil {
		t.Fatal(err)
	}
	Sweep(b2, cfg, light, spp, 1)
	got := b2.Data()
	for i := range data {
		if data[i] != got[i] {
			t.Fatalf("seeded sweep is not reproducible at element %d", i)
		}
	}
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Width: 8, Height: 8, TimeBins: 8, Spp: 2,
		Filter:         FilterCfg{Type: "box"},
		TemporalFilter: &FilterCfg{Type: "gaussian", Stddev: 1},
		Progressive:    0.5,
		Iterations:     2,
		Border:         true,
		StartOpl:       0.9,
		BinWidth:       0.05,
		WallSize:       1,
		Light: LightCfg{
			Origin:   [3]Real{0.5, 0.5, 1},
			Color:    RGB{R: 1, G: 0.5, B: 0.25},
			AngleDeg: 90,
		},
		Gamma:         true,
		GIFOut:        filepath.Join(dir, "out.gif"),
		CheckpointOut: filepath.Join(dir, "out.ckpt"),
		Upscale:       2,
		Seed:          42,
	}
	body, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "cfg.json")
	if err := os.WriteFile(cfgPath, body, 0o644); err != nil {
		t.Fatal(err)
	}

	rawWas, pngWas := RAW, PNG
	RAW, PNG = true, false
	defer func() { RAW, PNG = rawWas, pngWas }()

	if err := Run(cfgPath); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(cfg.GIFOut)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != cfg.TimeBins {
		t.Fatalf("GIF has %d frames, want %d", len(anim.Image), cfg.TimeBins)
	}
	if b := anim.Image[0].Bounds(); b.Dx() != cfg.Width*cfg.Upscale || b.Dy() != cfg.Height*cfg.Upscale {
		t.Fatalf("frame bounds %v, want %dx%d", b, cfg.Width*cfg.Upscale, cfg.Height*cfg.Upscale)
	}

	loaded, err := LoadCheckpoint(cfg.CheckpointOut)
	if err != nil {
		t.Fatal(err)
	}
	var sum Real
	for _, v := range loaded.Data() {
		sum += v
	}
	if sum <= 0 {
		t.Fatal("checkpoint holds no accumulated energy")
	}
}
