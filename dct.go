package sgp

import "math"

// blockDim is the side length of the square tile the DCT and QIM stages
// operate on (spec.md §3: "an 8x8 tile").
const blockDim = 8

// dctBasis[u][x] = cos(pi/8 * (x + 0.5) * u), the type-II DCT basis
// evaluated at the 8 sample points, shared by both the forward (DCT-II)
// and inverse (DCT-III) passes since DCT-III is DCT-II's transpose.
var dctBasis [blockDim][blockDim]float64

// dctScale[u] is the orthonormal scaling factor: sqrt(1/8) for u == 0,
// sqrt(2/8) otherwise.
var dctScale [blockDim]float64

func init() {
	for u := 0; u < blockDim; u++ {
		for x := 0; x < blockDim; x++ {
			dctBasis[u][x] = math.Cos(math.Pi / float64(blockDim) * (float64(x) + 0.5) * float64(u))
		}
		if u == 0 {
			dctScale[u] = math.Sqrt(1.0 / float64(blockDim))
		} else {
			dctScale[u] = math.Sqrt(2.0 / float64(blockDim))
		}
	}
}

// dct1D computes the orthonormal 1-D type-II DCT of an 8-sample line.
func dct1D(in, out *[blockDim]float64) {
	for u := 0; u < blockDim; u++ {
		var sum float64
		for x := 0; x < blockDim; x++ {
			sum += in[x] * dctBasis[u][x]
		}
		out[u] = sum * dctScale[u]
	}
}

// idct1D computes the orthonormal 1-D type-III DCT (the exact inverse of
// dct1D) of an 8-coefficient line.
func idct1D(in, out *[blockDim]float64) {
	for x := 0; x < blockDim; x++ {
		var sum float64
		for u := 0; u < blockDim; u++ {
			sum += in[u] * dctScale[u] * dctBasis[u][x]
		}
		out[x] = sum
	}
}

// dctBlock8x8 is an 8x8 grid of float64 DCT coefficients (or, before the
// forward transform, spatial samples), row-major. Separable 2-D
// transforms are applied as a row pass followed by a column pass,
// mirroring the structure of cocosip-go-dicom-codec's block-based DCT
// (dct.go) though with float orthonormal basis vectors in place of that
// file's scaled-integer fast-DCT butterfly — see DESIGN.md.
type dctBlock8x8 [blockDim][blockDim]float64

// forwardDCT2D computes the 2-D type-II DCT of an 8x8 block in place.
func forwardDCT2D(b *dctBlock8x8) {
	var tmp dctBlock8x8
	var row, out [blockDim]float64

	for r := 0; r < blockDim; r++ {
		row = b[r]
		dct1D(&row, &out)
		tmp[r] = out
	}
	for c := 0; c < blockDim; c++ {
		var col [blockDim]float64
		for r := 0; r < blockDim; r++ {
			col[r] = tmp[r][c]
		}
		dct1D(&col, &out)
		for r := 0; r < blockDim; r++ {
			b[r][c] = out[r]
		}
	}
}

// inverseDCT2D computes the 2-D type-III DCT (inverse of forwardDCT2D)
// of an 8x8 coefficient block in place.
func inverseDCT2D(b *dctBlock8x8) {
	var tmp dctBlock8x8
	var col, out [blockDim]float64

	for c := 0; c < blockDim; c++ {
		for r := 0; r < blockDim; r++ {
			col[r] = b[r][c]
		}
		idct1D(&col, &out)
		for r := 0; r < blockDim; r++ {
			tmp[r][c] = out[r]
		}
	}
	for r := 0; r < blockDim; r++ {
		row := tmp[r]
		idct1D(&row, &out)
		b[r] = out
	}
}
