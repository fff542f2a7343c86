package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lingoroom/captiond/internal/audio"
	"github.com/lingoroom/captiond/internal/auth"
	"github.com/lingoroom/captiond/internal/config"
	"github.com/lingoroom/captiond/internal/language"
	"github.com/lingoroom/captiond/internal/recognizer"
	"github.com/lingoroom/captiond/internal/room"
	"github.com/lingoroom/captiond/internal/subtitle"
)

const (
	// Recognizer results queue here between the recognizer's goroutine and
	// the per-session event loop. The loop only does in-memory work plus a
	// broadcast, so the buffer absorbs bursts of interim hypotheses.
	eventBufferSize = 64

	translateTimeout = 20 * time.Second
)

// Translator is the slow path invoked once per distinct target language
// after a final result.
type Translator interface {
	Translate(ctx context.Context, text, sourceLangHint, targetLang string) (string, string)
}

// Manager wires an authenticated connection into a room: membership,
// utterance assembly, recognition, and translation fan-out. The transport
// layer hands every decoded client frame to the connection's Session.
type Manager struct {
	cfg        *config.Config
	registry   *room.Registry
	assembler  *subtitle.Assembler
	recognizer recognizer.Recognizer
	translator Translator
	newDecoder audio.DecoderFactory
}

func NewManager(cfg *config.Config, registry *room.Registry, assembler *subtitle.Assembler, rec recognizer.Recognizer, tr Translator, newDecoder audio.DecoderFactory) *Manager {
	return &Manager{
		cfg:        cfg,
		registry:   registry,
		assembler:  assembler,
		recognizer: rec,
		translator: tr,
		newDecoder: newDecoder,
	}
}

// Session is the server half of one websocket connection. Recognizer
// callbacks are handed to the events channel and consumed by a single
// goroutine, so one speaker's results apply in receipt order.
type Session struct {
	mgr        *Manager
	roomID     string
	identity   auth.Identity
	conn       room.Conn
	speakerKey string
	decoder    audio.Decoder
	events     chan recognizer.Result

	mu           sync.Mutex
	writer       recognizer.StreamWriter
	streamCancel context.CancelFunc
	closed       bool
}

// Connect registers the connection in the room and starts its event loop.
// The microphone stays off until a config update enables it.
func (m *Manager) Connect(roomID string, conn room.Conn, identity auth.Identity) (*Session, error) {
	decoder, err := m.newDecoder()
	if err != nil {
		return nil, fmt.Errorf("failed to create audio decoder: %w", err)
	}

	s := &Session{
		mgr:        m,
		roomID:     roomID,
		identity:   identity,
		conn:       conn,
		speakerKey: subtitle.SpeakerKey(roomID, identity.UserID),
		decoder:    decoder,
		events:     make(chan recognizer.Result, eventBufferSize),
	}

	m.registry.Join(roomID, &room.ConnectionMeta{
		Conn:       conn,
		Identity:   room.Identity{UserID: identity.UserID, DisplayName: identity.DisplayName},
		NativeLang: language.NormalizeOr(identity.NativeLang, m.cfg.DefaultLanguage),
		Config:     room.Config{SubtitleMode: room.ModeDual},
	})

	go s.eventLoop()

	return s, nil
}

// HandleControl applies one decoded client frame.
func (s *Session) HandleControl(msg ControlMessage) error {
	if msg.Config != nil {
		if err := s.applyConfig(*msg.Config); err != nil {
			return err
		}
	}
	if msg.Audio != "" {
		packet, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil {
			return fmt.Errorf("failed to decode audio payload: %w", err)
		}
		s.handleAudio(packet)
	}
	return nil
}

func (s *Session) applyConfig(cfg ConfigUpdate) error {
	if !cfg.SubtitleMode.Valid() {
		return fmt.Errorf("unknown subtitle mode %q", cfg.SubtitleMode)
	}

	applied := s.mgr.registry.UpdateConfig(s.roomID, s.conn, room.Config{
		SubtitleMode: cfg.SubtitleMode,
		MicEnabled:   cfg.MicEnabled,
	}, language.Normalize(cfg.NativeLang))
	if !applied {
		return fmt.Errorf("connection is not a member of room %s", s.roomID)
	}

	if cfg.MicEnabled {
		return s.startRecognition()
	}
	s.stopRecognition()
	return nil
}

func (s *Session) startRecognition() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.writer != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	sessionID := uuid.NewString()
	writer, err := s.mgr.recognizer.StartStreaming(ctx, sessionID, s.mgr.cfg.RecognizerLanguages, &resultReceiver{session: s, sessionID: sessionID})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start recognition stream: %w", err)
	}
	s.writer = writer
	s.streamCancel = cancel
	slog.Info("recognition session started", "room_id", s.roomID, "user_id", s.identity.UserID, "session_id", sessionID)
	return nil
}

func (s *Session) stopRecognition() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endRecognitionLocked()
}

func (s *Session) endRecognitionLocked() {
	if s.writer == nil {
		return
	}
	if err := s.writer.Close(); err != nil {
		slog.Debug("failed to close recognition stream", "room_id", s.roomID, "user_id", s.identity.UserID, "error", err)
	}
	s.streamCancel()
	s.writer = nil
	s.streamCancel = nil
}

func (s *Session) handleAudio(packet []byte) {
	s.mu.Lock()
	writer := s.writer
	s.mu.Unlock()
	if writer == nil {
		// Mic is off; the client raced a config update. Drop the packet.
		return
	}

	pcm, err := s.decoder.DecodePacket(packet)
	if err != nil {
		slog.Debug("failed to decode audio packet", "room_id", s.roomID, "user_id", s.identity.UserID, "error", err)
		return
	}
	if len(pcm) == 0 {
		return
	}
	if err := writer.Write(pcm); err != nil {
		slog.Warn("failed to write audio to recognition stream", "room_id", s.roomID, "user_id", s.identity.UserID, "error", err)
	}
}

// Close tears the session down after the transport disconnects. Safe to
// call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.endRecognitionLocked()
	close(s.events)
	s.mu.Unlock()

	s.decoder.Close()
	s.mgr.registry.Leave(s.roomID, s.conn)
	s.mgr.assembler.Forget(s.speakerKey)
}

func (s *Session) eventLoop() {
	for result := range s.events {
		s.handleResult(result)
	}
}

func (s *Session) handleResult(result recognizer.Result) {
	update, ok := s.mgr.assembler.Process(s.speakerKey, result.Text, result.DetectedLang, result.IsFinal)
	if !ok {
		return
	}

	// Fast path: the original-language subtitle goes out before any
	// translation work starts.
	s.mgr.registry.Broadcast(s.roomID, subtitle.NewEvent(s.identity.UserID, update), nil)

	if update.IsFinal && !update.IsFillerOnly {
		s.fanOutTranslations(update)
	}
}

func (s *Session) fanOutTranslations(update subtitle.Update) {
	source := language.NormalizeOr(update.DetectedLang, s.mgr.cfg.DefaultLanguage)
	for _, target := range s.mgr.registry.RequiredTargetLanguages(s.roomID) {
		target := language.Normalize(target)
		if target == "" || target == source {
			continue
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), translateTimeout)
			defer cancel()
			translated, _ := s.mgr.translator.Translate(ctx, update.Text, update.DetectedLang, target)
			if translated == "" {
				return
			}
			s.mgr.registry.Broadcast(s.roomID, subtitle.NewTranslationEvent(s.identity.UserID, update.Text, translated, target), nil)
		}()
	}
}

// resultReceiver adapts recognizer callbacks onto the session's event
// channel. Callbacks arrive on the recognizer's goroutine.
type resultReceiver struct {
	session   *Session
	sessionID string
}

func (r *resultReceiver) OnResult(result recognizer.Result) {
	s := r.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- result:
	default:
		slog.Warn("recognizer event buffer full, dropping result", "room_id", s.roomID, "user_id", s.identity.UserID, "session_id", r.sessionID, "is_final", result.IsFinal)
	}
}

func (r *resultReceiver) OnCancelled(reason error) {
	s := r.session
	slog.Warn("recognition session cancelled", "room_id", s.roomID, "user_id", s.identity.UserID, "session_id", r.sessionID, "reason", reason)
	s.stopRecognition()
}
