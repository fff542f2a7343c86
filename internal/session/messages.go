package session

import "github.com/lingoroom/captiond/internal/room"

// ControlMessage is one client frame. Exactly one of the fields is set:
// a config update or a base64-encoded audio packet.
type ControlMessage struct {
	Config *ConfigUpdate `json:"config,omitempty"`
	Audio  string        `json:"audio,omitempty"`
}

// ConfigUpdate mutates a connection's subtitle settings without
// reconnecting. NativeLang is optional; empty keeps the current one.
type ConfigUpdate struct {
	SubtitleMode room.SubtitleMode `json:"subtitleMode"`
	MicEnabled   bool              `json:"micEnabled"`
	NativeLang   string            `json:"nativeLang,omitempty"`
}
