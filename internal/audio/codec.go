package audio

import (
	"fmt"

	"github.com/zaf/g711"
)

// Encoding identifies a sample encoding on either side of the relay.
type Encoding string

const (
	// EncodingULaw is 8-bit G.711 µ-law at 8 kHz, one byte per sample.
	EncodingULaw Encoding = "g711_ulaw"
	// EncodingPCM16 is 16-bit little-endian linear PCM, two bytes per sample.
	EncodingPCM16 Encoding = "pcm16"
)

// Channel identifies which peer produced an audio frame.
type Channel uint8

const (
	ChannelTelephony Channel = 0x01
	ChannelEngine    Channel = 0x02
)

// Frame is a single audio buffer in flight through the relay. Frames are
// transient: each one is consumed exactly once by the codec/forwarding step
// that receives it and never persisted.
type Frame struct {
	Payload  []byte
	Encoding Encoding
	Source   Channel
}

// CodecError reports malformed input to a codec transform.
type CodecError struct {
	Op     string
	Reason string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec %s: %s", e.Op, e.Reason)
}

// Transcoder converts audio between a raw sample representation and the
// wire representation. Encode and Decode must be exact inverses up to the
// amplitude quantization of the companding scheme: N 16-bit samples map to
// N wire bytes and back. Implementations are stateless; no data is retained
// across calls.
type Transcoder interface {
	// Encode converts 16-bit little-endian PCM samples to wire bytes.
	Encode(pcm []byte) ([]byte, error)
	// Decode converts wire bytes back to 16-bit little-endian PCM samples.
	Decode(wire []byte) ([]byte, error)
}

// NewTranscoder selects a transcoder for the given wire encoding. When both
// sides of the relay use the same companding the media path should use
// Passthrough instead; this constructor covers the re-encoding case.
func NewTranscoder(wire Encoding) (Transcoder, error) {
	switch wire {
	case EncodingULaw:
		return ULawCodec{}, nil
	case EncodingPCM16:
		return Passthrough{}, nil
	default:
		return nil, fmt.Errorf("unsupported wire encoding %q", wire)
	}
}

// ULawCodec compands 16-bit linear PCM to G.711 µ-law and back.
type ULawCodec struct{}

// Encode converts 16-bit little-endian PCM to µ-law wire bytes.
// N samples (2N input bytes) produce exactly N output bytes.
func (ULawCodec) Encode(pcm []byte) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, &CodecError{Op: "encode", Reason: "empty buffer"}
	}
	if len(pcm)%2 != 0 {
		return nil, &CodecError{
			Op:     "encode",
			Reason: fmt.Sprintf("odd byte count %d for 16-bit samples", len(pcm)),
		}
	}
	return g711.EncodeUlaw(pcm), nil
}

// Decode converts µ-law wire bytes to 16-bit little-endian PCM.
// N wire bytes produce exactly N samples (2N output bytes).
func (ULawCodec) Decode(wire []byte) ([]byte, error) {
	if len(wire) == 0 {
		return nil, &CodecError{Op: "decode", Reason: "empty buffer"}
	}
	return g711.DecodeUlaw(wire), nil
}

// Passthrough forwards payloads unmodified. Used when the telephony wire
// format and the engine format are the same companding, which makes the
// conversion degenerate while keeping the codec seam in the media path.
type Passthrough struct{}

func (Passthrough) Encode(pcm []byte) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, &CodecError{Op: "encode", Reason: "empty buffer"}
	}
	out := make([]byte, len(pcm))
	copy(out, pcm)
	return out, nil
}

func (Passthrough) Decode(wire []byte) ([]byte, error) {
	if len(wire) == 0 {
		return nil, &CodecError{Op: "decode", Reason: "empty buffer"}
	}
	out := make([]byte, len(wire))
	copy(out, wire)
	return out, nil
}
