package web

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// opusFrameSamples is the largest frame libopus produces at 48kHz
// mono (120ms).
const opusFrameSamples = 5760

// OpusDecoder decodes browser microphone packets. Browsers capture at
// 48kHz mono through MediaRecorder/encodedStreams; the decoded PCM is
// resampled down the capture pipeline.
type OpusDecoder struct {
	dec *opus.Decoder
	buf []int16
}

// NewOpusDecoder creates a 48kHz mono decoder.
func NewOpusDecoder() (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(48000, 1)
	if err != nil {
		return nil, fmt.Errorf("web: create opus decoder: %w", err)
	}
	return &OpusDecoder{
		dec: dec,
		buf: make([]int16, opusFrameSamples),
	}, nil
}

// Decode returns the PCM samples for one opus packet.
// The returned slice is only valid until the next Decode call.
func (d *OpusDecoder) Decode(packet []byte) ([]int16, error) {
	n, err := d.dec.Decode(packet, d.buf)
	if err != nil {
		return nil, fmt.Errorf("web: decode opus packet: %w", err)
	}
	return d.buf[:n], nil
}
