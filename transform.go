package sgp

import (
	"image"
	"image/color"
	"math"
)

// planeF32 is a dense H x W matrix of float32 samples, row-major. It
// backs the Y plane, and each of the four single-level Haar subbands.
type planeF32 struct {
	data          []float32
	width, height int
}

func newPlane(width, height int) *planeF32 {
	return &planeF32{data: make([]float32, width*height), width: width, height: height}
}

func (p *planeF32) at(row, col int) float32 {
	return p.data[row*p.width+col]
}

func (p *planeF32) set(row, col int, v float32) {
	p.data[row*p.width+col] = v
}

// splitYCrCb converts an RGB image to the Y plane plus the untouched
// Cr/Cb planes, using the standard-library ITU-R BT.601 full-range
// conversion (spec.md §4.C: "as used by standard image libraries" is
// exactly what image/color.RGBToYCbCr implements).
func splitYCrCb(img image.Image) (y *planeF32, cb, cr []byte, width, height int) {
	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	y = newPlane(width, height)
	cb = make([]byte, width*height)
	cr = make([]byte, width*height)

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			r, g, b, _ := img.At(bounds.Min.X+col, bounds.Min.Y+row).RGBA()
			yy, cbv, crv := color.RGBToYCbCr(byte(r>>8), byte(g>>8), byte(b>>8))
			idx := row*width + col
			y.set(row, col, float32(yy))
			cb[idx] = cbv
			cr[idx] = crv
		}
	}
	return y, cb, cr, width, height
}

// joinYCrCb recombines a (possibly modified) Y plane with the untouched
// Cb/Cr planes into an RGBA image, clipping Y to [0, 255] as required by
// spec.md §4.C.
func joinYCrCb(y *planeF32, cb, cr []byte, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			idx := row*width + col
			yv := clampByte(y.at(row, col))
			r, g, b := color.YCbCrToRGB(yv, cb[idx], cr[idx])
			out.SetRGBA(col, row, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}

func clampByte(v float32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}

// haarSubbands holds the four quadrants of a single-level 2-D Haar
// discrete wavelet transform: LL (approximation), LH, HL, HH (details).
// Only HL is ever modulated (spec.md §4.C).
type haarSubbands struct {
	LL, LH, HL, HH *planeF32
	width, height  int // dimensions of each subband: floor(W/2) x floor(H/2)
}

// haarForward performs one level of a 2-D Haar DWT on y, following the
// row-pass-then-column-pass structure of rivo-duplo's Transform (haar.go)
// adapted from its generic per-pixel Coef vectors to a single float32
// plane. Odd trailing rows/columns are dropped, matching §3's subband
// dimension rule floor(H/2) x floor(W/2).
func haarForward(y *planeF32) haarSubbands {
	height := y.height &^ 1
	width := y.width &^ 1
	subH, subW := height/2, width/2

	// Row pass: split each row into low/high halves.
	rowLo := newPlane(subW, height)
	rowHi := newPlane(subW, height)
	for row := 0; row < height; row++ {
		for col := 0; col < subW; col++ {
			a := float64(y.at(row, 2*col))
			b := float64(y.at(row, 2*col+1))
			rowLo.set(row, col, float32((a+b)/math.Sqrt2))
			rowHi.set(row, col, float32((a-b)/math.Sqrt2))
		}
	}

	// Column pass on each of the two row-pass outputs.
	var out haarSubbands
	out.width, out.height = subW, subH
	out.LL, out.LH = columnPass(rowLo, subH, subW)
	out.HL, out.HH = columnPass(rowHi, subH, subW)
	return out
}

func columnPass(p *planeF32, subH, subW int) (lo, hi *planeF32) {
	lo = newPlane(subW, subH)
	hi = newPlane(subW, subH)
	for col := 0; col < subW; col++ {
		for row := 0; row < subH; row++ {
			a := float64(p.at(2*row, col))
			b := float64(p.at(2*row+1, col))
			lo.set(row, col, float32((a+b)/math.Sqrt2))
			hi.set(row, col, float32((a-b)/math.Sqrt2))
		}
	}
	return lo, hi
}

// haarInverse is the exact inverse of haarForward: it reconstructs a
// width x height Y plane from the four subbands. width/height are the
// original (possibly odd) plane dimensions; any odd trailing row/column
// dropped during the forward transform is reconstructed by edge
// replication, matching the "pad to block size with edge values" idiom
// used by the Python reference (original_source's np.pad mode='edge').
func haarInverse(sb haarSubbands, width, height int) *planeF32 {
	evenH, evenW := sb.height*2, sb.width*2

	rowLo := inverseColumnPass(sb.LL, sb.LH, sb.height, sb.width)
	rowHi := inverseColumnPass(sb.HL, sb.HH, sb.height, sb.width)

	out := newPlane(width, height)
	for row := 0; row < evenH; row++ {
		for col := 0; col < sb.width; col++ {
			lo := float64(rowLo.at(row, col))
			hi := float64(rowHi.at(row, col))
			a := (lo + hi) / math.Sqrt2
			b := (lo - hi) / math.Sqrt2
			out.set(row, 2*col, float32(a))
			out.set(row, 2*col+1, float32(b))
		}
	}
	// Edge-replicate any odd trailing row/column dropped on the forward pass.
	if height > evenH {
		for col := 0; col < width; col++ {
			out.set(evenH, col, out.at(evenH-1, col))
		}
	}
	if width > evenW {
		for row := 0; row < height; row++ {
			out.set(row, evenW, out.at(row, evenW-1))
		}
	}
	return out
}

func inverseColumnPass(lo, hi *planeF32, subH, subW int) *planeF32 {
	out := newPlane(subW, subH*2)
	for col := 0; col < subW; col++ {
		for row := 0; row < subH; row++ {
			l := float64(lo.at(row, col))
			h := float64(hi.at(row, col))
			a := (l + h) / math.Sqrt2
			b := (l - h) / math.Sqrt2
			out.set(2*row, col, float32(a))
			out.set(2*row+1, col, float32(b))
		}
	}
	return out
}
