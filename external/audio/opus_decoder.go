//go:build opus

package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/hraban/opus"
	"github.com/lingoroom/captiond/internal/audio"
)

const (
	sampleRate      = 48000
	channels        = 1
	frameSizeMs     = 60
	maxFrameSamples = sampleRate * frameSizeMs * channels / 1000
)

type opusDecoder struct {
	dec *opus.Decoder
	pcm []int16
}

func NewOpusDecoder() (audio.Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("create opus decoder: %w", err)
	}
	return &opusDecoder{
		dec: dec,
		pcm: make([]int16, maxFrameSamples),
	}, nil
}

func (d *opusDecoder) DecodePacket(packet []byte) ([]byte, error) {
	if len(packet) == 0 {
		return nil, nil
	}
	n, err := d.dec.Decode(packet, d.pcm)
	if err != nil {
		return nil, fmt.Errorf("decode opus packet: %w", err)
	}
	samples := n * channels
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(d.pcm[i]))
	}
	return out, nil
}

func (d *opusDecoder) Close() {
	d.dec = nil
}
