// Package frame holds the decoded video frame type handed from the
// read-decode pipeline to the renderer.
package frame

// Kind distinguishes self-contained frames from delta-encoded ones.
type Kind uint32

const (
	// FullFrame is independently decodable.
	FullFrame Kind = 1
	// DiffFrame depends on a prior frame. Decoding it is not
	// implemented; the decoders in internal/backend/gst and
	// internal/backend/soft reject it.
	DiffFrame Kind = 2
)

// Frame is a decoded, row-major RGB image produced by a DecoderStrategy.
//
// Lifetime: produced once by the decoder, consumed once by the
// renderer, then dropped. Frame does not own any external resource.
type Frame struct {
	Width     uint32
	Height    uint32
	EncoderID uint32
	Kind      Kind
	RGB       []byte
}
