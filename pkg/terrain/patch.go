package terrain

import (
	"fmt"
	"math"

	"github.com/opensim-go/viewercircuit/pkg/bitio"
)

// LayerKind identifies what a LayerData body's patches represent, per
// §4.N. Byte codes are taken from `original_source/src/layer_data/mod.rs`'s
// `LayerType` enum.
type LayerKind byte

const (
	LayerKindLand       LayerKind = 0x4C // 'L'
	LayerKindWater      LayerKind = 0x57 // 'W'
	LayerKindWind       LayerKind = 0x37 // '7'
	LayerKindCloud      LayerKind = 0x38 // '8'
	LayerKindLandExtra  LayerKind = 0x4D // 'M'
	LayerKindWaterExtra LayerKind = 0x78 // 'x'
)

func (k LayerKind) String() string {
	switch k {
	case LayerKindLand:
		return "Land"
	case LayerKindWater:
		return "Water"
	case LayerKindWind:
		return "Wind"
	case LayerKindCloud:
		return "Cloud"
	case LayerKindLandExtra:
		return "LandExtra"
	case LayerKindWaterExtra:
		return "WaterExtra"
	default:
		return fmt.Sprintf("LayerKind(0x%02x)", byte(k))
	}
}

// endOfPatches is the sentinel quant/word_bits byte that terminates a
// group's patch list.
const endOfPatches = 0x61

// PatchGroupHeader precedes a group's patches.
type PatchGroupHeader struct {
	Stride    uint16
	PatchSize uint8
	LayerType LayerKind
}

// PatchHeader precedes one patch's coefficient stream.
type PatchHeader struct {
	Quant    uint32
	WordBits uint32
	DCOffset float32
	Range    uint16
	PatchX   uint32
	PatchY   uint32
}

// Patch is one decoded elevation (or wind/cloud/water) patch, located at
// (X, Y) in patch-grid coordinates, holding Size*Size samples in
// row-major order.
type Patch struct {
	X, Y int
	Size int
	Data []float64
}

// DecodePatches parses a LayerData body (the bytes after the message's
// leading LayerType byte) into a group header and its decoded patches.
func DecodePatches(layerType LayerKind, body []byte) (PatchGroupHeader, []Patch, error) {
	r := bitio.NewBitReader(body)

	stride, err := readU16LE(r)
	if err != nil {
		return PatchGroupHeader{}, nil, err
	}
	patchSizeByte, err := readU8(r)
	if err != nil {
		return PatchGroupHeader{}, nil, err
	}
	layerCode, err := readU8(r)
	if err != nil {
		return PatchGroupHeader{}, nil, err
	}

	group := PatchGroupHeader{
		Stride:    stride,
		PatchSize: patchSizeByte,
		LayerType: LayerKind(layerCode),
	}

	large := layerType == LayerKindLandExtra || layerType == LayerKindWaterExtra
	n := int(PatchSizeNormal)
	if large {
		n = int(PatchSizeLarge)
	}
	tables := TablesFor(PatchSize(n))

	var patches []Patch
	for {
		qwb, err := readU8(r)
		if err != nil {
			return group, nil, err
		}
		if qwb == endOfPatches {
			break
		}

		header := PatchHeader{
			Quant:    uint32(qwb>>4) + 2,
			WordBits: uint32(qwb&0x0F) + 2,
		}

		dcBits, err := readU32LE(r)
		if err != nil {
			return group, nil, err
		}
		// spec.md types dc_offset as a true little-endian f32: the bits
		// are reinterpreted, not numerically cast, unlike the Rust
		// prototype's `header.dc_offset as f32` over a raw u32.
		header.DCOffset = math.Float32frombits(dcBits)

		rangeVal, err := readU16LE(r)
		if err != nil {
			return group, nil, err
		}
		header.Range = rangeVal

		if large {
			x, err := r.ReadBits(32)
			if err != nil {
				return group, nil, err
			}
			y, err := r.ReadBits(32)
			if err != nil {
				return group, nil, err
			}
			header.PatchX = uint32(x)
			header.PatchY = uint32(y)
		} else {
			x, err := r.ReadBits(10)
			if err != nil {
				return group, nil, err
			}
			y, err := r.ReadBits(10)
			if err != nil {
				return group, nil, err
			}
			header.PatchX = uint32(x)
			header.PatchY = uint32(y)
		}

		coeffs, err := readCoefficients(r, n, int(header.WordBits))
		if err != nil {
			return group, nil, err
		}

		patch := decompressPatch(tables, header, coeffs, n)
		patch.X = int(header.PatchX)
		patch.Y = int(header.PatchY)
		patches = append(patches, patch)
	}

	return group, patches, nil
}

// readCoefficients reads one patch's linear coefficient stream: for each
// of n*n positions, an `exists` bit; if set, a `not_eob` bit; if that is
// also set, a sign bit and a wordBits-wide magnitude. A clear `not_eob`
// ends the stream early, leaving every later position at zero. Grounded
// on `original_source/src/layer_data/mod.rs`'s `decode_patch_data`, with
// one correction: that file reads the coefficient magnitude as a fixed
// full byte regardless of word_bits (an evident leftover from an earlier,
// unfinished pass — word_bits is computed and then never consulted
// again anywhere in the file), where spec.md is explicit that the
// magnitude is word_bits wide.
func readCoefficients(r *bitio.BitReader, n int, wordBits int) ([]int32, error) {
	total := n * n
	out := make([]int32, total)

	for i := 0; i < total; i++ {
		exists, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if !exists {
			out[i] = 0
			continue
		}

		notEOB, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if !notEOB {
			break
		}

		negative, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		magBits, err := r.ReadBits(wordBits)
		if err != nil {
			return nil, err
		}
		value := int32(magBits)
		if negative {
			value = -value
		}
		out[i] = value
	}

	return out, nil
}

// decompressPatch dequantizes, reorders via the diagonal scan table,
// inverse-DCTs, and rescales a coefficient stream into a spatial patch,
// per `original_source/src/layer_data/idct.rs`'s `decompress_patch`.
func decompressPatch(t *Tables, header PatchHeader, coeffs []int32, n int) Patch {
	block := make([]float64, n*n)
	for k := 0; k < n*n; k++ {
		block[k] = float64(coeffs[t.Decopy[k]]) * t.Dequantize[k]
	}

	spatial := idctPatch(t, block)

	factMult := float64(header.Range) / float64(uint32(1)<<header.Quant)
	factAdd := factMult*float64(uint32(1)<<(header.Quant-1)) + float64(header.DCOffset)

	out := make([]float64, n*n)
	for k := range out {
		out[k] = spatial[k]*factMult + factAdd
	}

	return Patch{Size: n, Data: out}
}

func readU8(r *bitio.BitReader) (uint8, error) {
	v, err := r.ReadBits(8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

func readU16LE(r *bitio.BitReader) (uint16, error) {
	lo, err := readU8(r)
	if err != nil {
		return 0, err
	}
	hi, err := readU8(r)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func readU32LE(r *bitio.BitReader) (uint32, error) {
	var bytes [4]byte
	for i := range bytes {
		b, err := readU8(r)
		if err != nil {
			return 0, err
		}
		bytes[i] = b
	}
	return uint32(bytes[0]) | uint32(bytes[1])<<8 | uint32(bytes[2])<<16 | uint32(bytes[3])<<24, nil
}
