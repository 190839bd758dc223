// Package terrain decodes LayerData message bodies (terrain, and by
// extension wind/cloud/water patches) into elevation matrices, per §4.N.
// Grounded on `original_source/src/layer_data/{mod,idct}.rs`, with one
// deliberate deviation: that file is an acknowledged-incomplete
// prototype (its own comments call out unresolved TODOs), and two of its
// numeric details directly contradict spec.md's prose, which this module
// treats as authoritative — see tables.go and patch.go for the specific
// corrections.
package terrain

import "math"

// PatchSize is the side length (in samples) of a terrain patch; the
// protocol uses 16 for ordinary patches and 32 for "large" ones.
type PatchSize int

const (
	PatchSizeNormal PatchSize = 16
	PatchSizeLarge  PatchSize = 32
)

// Tables holds the precomputed dequantize, icosine, and diagonal-scan
// ("decopy") tables for one PatchSize, per §4.N and
// `original_source/src/layer_data/idct.rs`'s `PatchTables`.
type Tables struct {
	size       int
	Dequantize []float64
	Icosines   []float64
	Decopy     []int
}

// tableCache memoizes Tables per PatchSize, since computing the cosine
// table is the expensive part and every patch of a given size reuses it
// (mirroring the Rust prototype's `lazy_static!` TABLES_NORMAL/TABLES_LARGE).
var tableCache = map[PatchSize]*Tables{}

// TablesFor returns (computing and caching on first use) the tables for
// the given patch size.
func TablesFor(size PatchSize) *Tables {
	if t, ok := tableCache[size]; ok {
		return t
	}
	t := computeTables(int(size))
	tableCache[size] = t
	return t
}

func computeTables(n int) *Tables {
	t := &Tables{size: n}
	t.Dequantize = make([]float64, n*n)
	t.Icosines = make([]float64, n*n)
	t.Decopy = make([]int, n*n)

	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			idx := i + j*n
			t.Dequantize[idx] = 1 + 2*float64(i+j)
			// The angle is taken over the whole product, unlike the Rust
			// prototype where operator precedence leaves `.cos()` applied
			// only to the denominator — a transcription accident in an
			// admittedly-incomplete file, not an intended asymmetry (no
			// such asymmetry is claimed anywhere in spec.md, unlike the
			// LLSD date/real case, which is explicit).
			angle := (2*float64(i) + 1) * float64(j) * math.Pi / (2 * float64(n))
			t.Icosines[idx] = math.Cos(angle)
		}
	}

	fillDecopy(t.Decopy, n)
	return t
}

// fillDecopy walks the n x n grid in the zig-zag diagonal-scan order
// DCT coefficient streams use, recording each cell's position in the
// scan as the value future lookups use to reorder a linear coefficient
// stream back into its 2D position. Ported directly from
// `original_source/src/layer_data/idct.rs`'s `PatchTables::compute`.
func fillDecopy(decopy []int, n int) {
	moveDiag := false
	moveRight := true
	i, j, count := 0, 0, 0

	for i < n && j < n*n {
		decopy[i+j*n] = count
		count++

		if !moveDiag {
			if moveRight {
				if i < n-1 {
					i++
				} else {
					j++
				}
				moveRight = false
			} else {
				if j < n-1 {
					j++
				} else {
					i++
				}
				moveRight = true
			}
			moveDiag = true
		} else {
			if moveRight {
				i++
				j--
				if i == n-1 || j == 0 {
					moveDiag = false
				}
			} else {
				i--
				j++
				if i == 0 || j == n-1 {
					moveDiag = false
				}
			}
		}
	}
}
