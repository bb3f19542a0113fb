package sgp

import "sort"

// Redundancy is the target replication factor R from spec.md §4.E: each
// of the N payload bits is written to R independent blocks.
const Redundancy = 5

// blocksNeeded is B = N * R, the exact number of blocks the redundant
// encoder consumes.
const blocksNeeded = PayloadBits * Redundancy

// safetyBufferSize is the 2x-oversized candidate pool (spec.md §4.E
// step 3, §9: "do not tune it down").
const safetyBufferSize = 2 * blocksNeeded

type scoredBlock struct {
	coord    BlockCoord
	variance float64
}

// blockVariance computes the population variance of an 8x8 tile of subband
// at (row, col).
func blockVariance(subband *planeF32, row, col int) float64 {
	var sum, sumSq float64
	for r := row; r < row+blockDim; r++ {
		for c := col; c < col+blockDim; c++ {
			v := float64(subband.at(r, c))
			sum += v
			sumSq += v * v
		}
	}
	n := float64(blockDim * blockDim)
	mean := sum / n
	return sumSq/n - mean*mean
}

// selectEmbedBlocks implements the Adaptive Top-N Strategy (spec.md
// §4.E): rank all 8x8 tiles of subband by descending variance with
// coordinate-ascending tiebreak, take the top 2*B as a safety buffer,
// reorder that buffer by the key-driven permutation, and return the
// first B survivors. Embedding and extraction call this with identical
// arguments and therefore always agree on the same set of blocks in the
// same order.
//
// It returns an *internalError if fewer than B blocks survive the
// intersection, which happens whenever the subband holds fewer than B
// tiles; embed and extractSingleScale translate that error into
// ErrTooSmall.
func selectEmbedBlocks(subband *planeF32, key []byte, widthSub, heightSub int) ([]BlockCoord, error) {
	usableRows := (subband.height / blockDim) * blockDim
	usableCols := (subband.width / blockDim) * blockDim

	all := make([]scoredBlock, 0, (usableRows/blockDim)*(usableCols/blockDim))
	for row := 0; row < usableRows; row += blockDim {
		for col := 0; col < usableCols; col += blockDim {
			all = append(all, scoredBlock{
				coord:    BlockCoord{Row: row, Col: col},
				variance: blockVariance(subband, row, col),
			})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].variance != all[j].variance {
			return all[i].variance > all[j].variance
		}
		// Coordinate anchoring: break ties by (row, col) ascending so
		// the order is a deterministic function of the image, not of
		// sort stability (spec.md GLOSSARY).
		if all[i].coord.Row != all[j].coord.Row {
			return all[i].coord.Row < all[j].coord.Row
		}
		return all[i].coord.Col < all[j].coord.Col
	})

	bufferSize := safetyBufferSize
	if bufferSize > len(all) {
		bufferSize = len(all)
	}
	buffer := make([]BlockCoord, bufferSize)
	for i := 0; i < bufferSize; i++ {
		buffer[i] = all[i].coord
	}
	// Within the buffer, discard variance and sort by coordinate. The
	// selection below only tests membership in the buffer and follows the
	// key-driven order, so the buffer's own order does not affect which
	// blocks are chosen.
	sort.Slice(buffer, func(i, j int) bool {
		if buffer[i].Row != buffer[j].Row {
			return buffer[i].Row < buffer[j].Row
		}
		return buffer[i].Col < buffer[j].Col
	})

	order := BlockOrder(key, widthSub, heightSub)
	inBuffer := make(map[BlockCoord]bool, len(buffer))
	for _, c := range buffer {
		inBuffer[c] = true
	}

	selected := make([]BlockCoord, 0, blocksNeeded)
	for _, c := range order {
		if inBuffer[c] {
			selected = append(selected, c)
			if len(selected) == blocksNeeded {
				break
			}
		}
	}

	if len(selected) < blocksNeeded {
		return nil, &internalError{msg: "fewer than B blocks survived key intersection"}
	}
	return selected, nil
}

// voteResult is the outcome of majority voting over the R replicas of
// each of the N payload bits.
type voteResult struct {
	bits       [PayloadBits]byte
	confidence float64
}

// voteBits assigns the i-th sample in samples to bit position i mod N
// (spec.md §4.E step 5: "column-major replication across R rounds") and
// returns the majority-voted bit string plus the minimum per-bit
// confidence. len(samples) must equal blocksNeeded; selectEmbedBlocks
// and voteBits are always called with a matching count.
func voteBits(samples []int) voteResult {
	var counts [PayloadBits]int
	for i, bit := range samples {
		counts[i%PayloadBits] += bit
	}

	var result voteResult
	result.confidence = 1.0
	for i, ones := range counts {
		majority := 0
		if ones*2 > Redundancy {
			majority = 1
		}
		result.bits[i] = byte(majority)

		agree := ones
		if majority == 0 {
			agree = Redundancy - ones
		}
		conf := float64(agree) / float64(Redundancy)
		if conf < result.confidence {
			result.confidence = conf
		}
	}
	return result
}

// packBits turns the N majority-voted bits (MSB-first within each byte,
// per spec.md §3) back into the 32-byte wire record.
func (v voteResult) packBits() [RecordSize]byte {
	var buf [RecordSize]byte
	for i, bit := range v.bits {
		if bit != 0 {
			buf[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return buf
}

// unpackBits expands a 32-byte record into its 256 bits, MSB-first
// within each byte, for assignment to redundant blocks during embedding.
func unpackBits(buf [RecordSize]byte) [PayloadBits]byte {
	var bits [PayloadBits]byte
	for i := range bits {
		b := buf[i/8]
		bits[i] = (b >> (7 - uint(i%8))) & 1
	}
	return bits
}
