package room

// SubtitleMode controls what a participant receives: nothing, the original
// language only, or original plus a translation into their native language.
type SubtitleMode string

const (
	ModeOff      SubtitleMode = "off"
	ModeOriginal SubtitleMode = "original"
	ModeDual     SubtitleMode = "dual"
)

func (m SubtitleMode) Valid() bool {
	switch m {
	case ModeOff, ModeOriginal, ModeDual:
		return true
	}
	return false
}

// Conn is the transport handle the registry fans events out to. SendJSON
// enqueues onto the connection's write pump; it must not block on slow
// peers.
type Conn interface {
	SendJSON(v any) error
	Close() error
}

type Identity struct {
	UserID      string
	DisplayName string
}

type Config struct {
	SubtitleMode SubtitleMode `json:"subtitleMode"`
	MicEnabled   bool         `json:"micEnabled"`
}

// ConnectionMeta is the registry's per-connection record. It is owned by the
// registry; callers hand it over at Join and mutate it only through
// UpdateConfig.
type ConnectionMeta struct {
	Conn       Conn
	Identity   Identity
	NativeLang string
	Config     Config
}
