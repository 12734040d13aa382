package transientnd

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"
)

// sweepShape validates a developed tensor of shape [W, H, T, C] with RGB
// leading channels, as produced by Develop on a [W, H, timeBins] block.
func sweepShape(t *Tensor) (nx, ny, nt, ch int, err error) {
	if len(t.Shape) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("transientnd: expected a [W,H,T,C] tensor, got shape %v", t.Shape)
	}
	nx, ny, nt, ch = t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	if ch < 3 {
		return 0, 0, 0, 0, fmt.Errorf("transientnd: need at least RGB channels, got %d", ch)
	}
	return nx, ny, nt, ch, nil
}

// SaveAnimatedGIF writes a GIF with one frame per time bin (t = 0..T-1).
// delay is in 100ths of a second (e.g., 5 => 20 fps); upscale is an
// integer enlargement factor for the exported frames. Each frame is
// normalized to its own peak so the sweep stays visible as the pulse
// decays.
func SaveAnimatedGIF(ten *Tensor, path string, delay, upscale int) error {
	nx, ny, nt, ch, err := sweepShape(ten)
	if err != nil {
		return err
	}
	if upscale < 1 {
		upscale = 1
	}

	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, nt),
		Delay:     make([]int, 0, nt),
		LoopCount: 0,
	}

	toByte := func(v, scale Real) uint8 {
		if v <= 0 {
			return 0
		}
		n := v * scale // 0..1 after per-frame peak scaling
		if n > 1 {
			n = 1
		}
		return uint8(math.Round(n * 255))
	}

	for t := 0; t < nt; t++ {
		if Debug && t%max(1, nt/100) == 0 {
			fmt.Printf("[GIF] %.2f%%\n", Real(t+1)*100/Real(nt))
		}
		// 1) peak across RGB over this time bin
		frameMax := 0.0
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				base := ((x*ny+y)*nt + t) * ch
				for c := 0; c < 3; c++ {
					if v := ten.Data[base+c]; v > frameMax {
						frameMax = v
					}
				}
			}
		}
		if frameMax == 0 {
			frameMax = 1 // avoid div-by-zero, frame stays black
		}
		scale := 1.0 / frameMax

		// 2) fill RGBA
		rgba := image.NewNRGBA(image.Rect(0, 0, nx, ny))
		for y := 0; y < ny; y++ {
			rowOff := y * rgba.Stride
			for x := 0; x < nx; x++ {
				base := ((x*ny+y)*nt + t) * ch
				p := rowOff + x*4
				rgba.Pix[p+0] = toByte(ten.Data[base+ChR], scale)
				rgba.Pix[p+1] = toByte(ten.Data[base+ChG], scale)
				rgba.Pix[p+2] = toByte(ten.Data[base+ChB], scale)
				rgba.Pix[p+3] = 255
			}
		}
		if upscale > 1 {
			big := image.NewNRGBA(image.Rect(0, 0, nx*upscale, ny*upscale))
			xdraw.NearestNeighbor.Scale(big, big.Bounds(), rgba, rgba.Bounds(), xdraw.Src, nil)
			rgba = big
		}

		// 3) quantize to paletted for GIF
		pimg := image.NewPaletted(rgba.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pimg, pimg.Bounds(), rgba, image.Point{})

		out.Image = append(out.Image, pimg)
		out.Delay = append(out.Delay, delay)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, out)
}
