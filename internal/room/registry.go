package room

import (
	"log/slog"
	"sync"
)

// Registry tracks which participants are connected to which room and fans
// subtitle events out to them. All membership mutation is linearized behind
// one mutex; rooms with no remaining connections are removed.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string][]*ConnectionMeta
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string][]*ConnectionMeta)}
}

func (r *Registry) Join(roomID string, meta *ConnectionMeta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[roomID] = append(r.rooms[roomID], meta)
	slog.Info("participant joined room", "room_id", roomID, "user_id", meta.Identity.UserID, "members", len(r.rooms[roomID]))
}

func (r *Registry) Leave(roomID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	for i, m := range members {
		if m.Conn == conn {
			r.rooms[roomID] = append(members[:i], members[i+1:]...)
			slog.Info("participant left room", "room_id", roomID, "user_id", m.Identity.UserID, "members", len(r.rooms[roomID]))
			break
		}
	}
	if len(r.rooms[roomID]) == 0 {
		delete(r.rooms, roomID)
		slog.Info("room emptied and removed", "room_id", roomID)
	}
}

// UpdateConfig applies a config-update control message. An empty nativeLang
// keeps the current one. Returns false when the connection is not a member.
func (r *Registry) UpdateConfig(roomID string, conn Conn, cfg Config, nativeLang string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rooms[roomID] {
		if m.Conn == conn {
			m.Config = cfg
			if nativeLang != "" {
				m.NativeLang = nativeLang
			}
			return true
		}
	}
	return false
}

// Broadcast delivers an event to every member whose subtitle mode is not
// off, minus the excluded connection. Send failures are swallowed: a broken
// connection cleans itself up through its own disconnect path, not here.
func (r *Registry) Broadcast(roomID string, event any, excluding Conn) {
	r.mu.RLock()
	targets := make([]*ConnectionMeta, 0, len(r.rooms[roomID]))
	for _, m := range r.rooms[roomID] {
		if m.Conn == excluding || m.Config.SubtitleMode == ModeOff {
			continue
		}
		targets = append(targets, m)
	}
	r.mu.RUnlock()

	for _, m := range targets {
		if err := m.Conn.SendJSON(event); err != nil {
			slog.Debug("broadcast send failed", "room_id", roomID, "user_id", m.Identity.UserID, "error", err)
		}
	}
}

// RequiredTargetLanguages returns the distinct native languages of members
// whose subtitle mode requests translation. This bounds the slow path to
// one translation call per language, not per member.
func (r *Registry) RequiredTargetLanguages(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	var langs []string
	for _, m := range r.rooms[roomID] {
		if m.Config.SubtitleMode == ModeOff || m.NativeLang == "" {
			continue
		}
		if _, ok := seen[m.NativeLang]; ok {
			continue
		}
		seen[m.NativeLang] = struct{}{}
		langs = append(langs, m.NativeLang)
	}
	return langs
}

// MemberCount reports current room size, zero for unknown rooms.
func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}
