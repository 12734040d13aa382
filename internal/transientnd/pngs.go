package transientnd

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"
)

// SavePNGSequence16 writes one 16-bit PNG per time bin (t = 0..T-1) from
// a developed [W, H, T, C] tensor. Each frame is lossless PNG (DEFLATE)
// with 16 bits per channel; the only quantization is the per-frame peak
// normalization. upscale enlarges frames by an integer factor.
func SavePNGSequence16(ten *Tensor, prefix string, upscale int) error {
	nx, ny, nt, ch, err := sweepShape(ten)
	if err != nil {
		return err
	}
	if upscale < 1 {
		upscale = 1
	}

	toU16 := func(v, scale Real) uint16 {
		if v <= 0 {
			return 0
		}
		n := v * scale
		if n > 1 {
			n = 1
		}
		return uint16(math.Round(n * 65535.0))
	}

	// Zero-padding width based on the number of frames.
	width := 1
	if nt > 1 {
		width = int(math.Log10(Real(nt-1))) + 1
	}

	for t := 0; t < nt; t++ {
		if Debug && t%max(1, nt/100) == 0 {
			fmt.Printf("[PNG]  %.2f%%\n", Real(t+1)*100/Real(nt))
		}
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
			frameMax = 1
		}
		scale := 1.0 / frameMax

		img := image.NewNRGBA64(image.Rect(0, 0, nx, ny))
		const pxBytes = 8 // 4 channels * 2 bytes/channel
		for y := 0; y < ny; y++ {
			rowOff := y * img.Stride
			for x := 0; x < nx; x++ {
				base := ((x*ny+y)*nt + t) * ch
				r := toU16(ten.Data[base+ChR], scale)
				g := toU16(ten.Data[base+ChG], scale)
				b := toU16(ten.Data[base+ChB], scale)
				a := uint16(0xFFFF)

				p := rowOff + x*pxBytes
				// NRGBA64 stores big-endian uint16 per channel: R, G, B, A.
				img.Pix[p+0] = uint8(r >> 8)
				img.Pix[p+1] = uint8(r)
				img.Pix[p+2] = uint8(g >> 8)
				img.Pix[p+3] = uint8(g)
				img.Pix[p+4] = uint8(b >> 8)
				img.Pix[p+5] = uint8(b)
				img.Pix[p+6] = uint8(a >> 8)
				img.Pix[p+7] = uint8(a)
			}
		}
		var frame image.Image = img
		if upscale > 1 {
			big := image.NewNRGBA64(image.Rect(0, 0, nx*upscale, ny*upscale))
			xdraw.NearestNeighbor.Scale(big, big.Bounds(), img, img.Bounds(), xdraw.Src, nil)
			frame = big
		}

		full := fmt.Sprintf("%s_%0*d.png", prefix, width, t)
		f, err := os.Create(full)
		if err != nil {
			return err
		}
		enc := png.Encoder{CompressionLevel: png.BestCompression} // still lossless
		if err := enc.Encode(f, frame); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
