package terrain

// idctColumn and idctRow implement the separable 2D inverse DCT used to
// reconstruct a patch from its dequantized coefficient block, ported
// directly from `original_source/src/layer_data/idct.rs`'s
// `idct_column`/`idct_row`/`idct_patch`.

func idctColumn(t *Tables, block, out []float64) {
	n := t.size
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			total := 0.0
			for u := 0; u < n; u++ {
				total += block[u*n+x] * t.Icosines[y+u*n]
			}
			out[y*n+x] = total
		}
	}
}

func idctRow(t *Tables, block, out []float64) {
	n := t.size
	oosqrt2 := 0.7071067811865475244

	for y := 0; y < n; y++ {
		total := 0.0
		for u := 0; u < n; u++ {
			c := 1.0
			if u == 0 {
				c = oosqrt2
			}
			total += block[y*n+u] * t.Icosines[0+u*n] * c
		}
		out[y*n+0] = total

		for x := 1; x < n; x++ {
			total = 0.0
			for u := 0; u < n; u++ {
				c := 1.0
				if u == 0 {
					c = oosqrt2
				}
				total += block[y*n+u] * t.Icosines[x+u*n] * c
			}
			out[y*n+x] = total
		}
	}
}

// idctPatch runs the column pass then the row pass over an n*n block of
// dequantized coefficients, returning the spatial-domain result.
func idctPatch(t *Tables, block []float64) []float64 {
	n := t.size
	tmp := make([]float64, n*n)
	out := make([]float64, n*n)
	idctColumn(t, block, tmp)
	idctRow(t, tmp, out)
	return out
}
