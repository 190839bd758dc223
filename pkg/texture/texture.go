// Package texture defines the decoder seam for JPEG2000 texture
// codestreams fetched via pkg/capabilities. Per §4's external-collaborator
// list and the Non-goal on world-content rendering, no decoder is bundled
// here — only the interface a real viewer would implement against.
package texture

import (
	"errors"
	"image"
)

// ErrNoDecoder is returned by a Decoder that was never wired to a real
// JPEG2000 implementation (e.g. a stub used in tests).
var ErrNoDecoder = errors.New("texture: no JPEG2000 decoder configured")

// Decoder turns a raw JPEG2000 codestream, as returned by
// capabilities.Client.FetchTexture, into a decoded image. Implementations
// live outside this module (an external collaborator, per spec).
type Decoder interface {
	Decode(codestream []byte) (image.Image, error)
}

// NullDecoder always reports ErrNoDecoder; useful as a default when no
// real JPEG2000 library has been wired in yet.
type NullDecoder struct{}

func (NullDecoder) Decode([]byte) (image.Image, error) {
	return nil, ErrNoDecoder
}
