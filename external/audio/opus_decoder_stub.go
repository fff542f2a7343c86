//go:build !opus

package audio

import "github.com/lingoroom/captiond/internal/audio"

// Without the opus build tag, packets are assumed to already be PCM16 and
// pass through untouched.
type passthroughDecoder struct{}

func NewOpusDecoder() (audio.Decoder, error) {
	return &passthroughDecoder{}, nil
}

func (d *passthroughDecoder) DecodePacket(packet []byte) ([]byte, error) {
	return packet, nil
}

func (d *passthroughDecoder) Close() {}
