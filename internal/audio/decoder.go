package audio

// Decoder converts one speaker's compressed audio packets into the
// little-endian PCM16 byte stream the recognizer consumes. One decoder per
// connection; not safe for concurrent use.
type Decoder interface {
	DecodePacket(packet []byte) ([]byte, error)
	Close()
}

type DecoderFactory func() (Decoder, error)
