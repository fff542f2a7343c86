package dispatch

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"github.com/lingoroom/captiond/internal/bus"
	"github.com/lingoroom/captiond/internal/language"
	"github.com/lingoroom/captiond/internal/repository"
)

const dequeueTimeout = 5 * time.Second

// Translator is the slice of the hybrid translator the worker needs.
type Translator interface {
	Translate(ctx context.Context, text, sourceLangHint, targetLang string) (string, string)
}

// RoomDirectory answers which target languages a room currently needs.
type RoomDirectory interface {
	RequiredTargetLanguages(roomID string) []string
}

// Worker consumes queued chat messages and attaches translations for every
// distinct native language in the room. A missing room key, a decryption
// failure, or an empty target set drops the item without retry; nothing a
// single item does may stop the loop.
type Worker struct {
	queue      bus.Queue
	repo       repository.Repository
	translator Translator
	rooms      RoomDirectory
	publisher  bus.Publisher

	// sem bounds concurrent translation calls across all items.
	sem chan struct{}
}

func NewWorker(queue bus.Queue, repo repository.Repository, tr Translator, rooms RoomDirectory, publisher bus.Publisher, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		queue:      queue,
		repo:       repo,
		translator: tr,
		rooms:      rooms,
		publisher:  publisher,
		sem:        make(chan struct{}, concurrency),
	}
}

func (w *Worker) Run(ctx context.Context) {
	slog.Info("translation dispatch worker started")
	for {
		if ctx.Err() != nil {
			slog.Info("translation dispatch worker stopped")
			return
		}
		item, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("translation dispatch worker stopped")
				return
			}
			slog.Error("dequeue failed", "error", err)
			continue
		}
		if item == nil {
			continue
		}
		if err := w.processItem(ctx, item); err != nil {
			slog.Error("dispatch item dropped", "error", err, "message_id", item.MessageID, "room_id", item.RoomID)
		}
	}
}

func (w *Worker) processItem(ctx context.Context, item *bus.QueueItem) error {
	secret, err := w.repo.GetRoomKey(ctx, item.RoomID)
	if err != nil {
		return err
	}
	if secret == nil {
		slog.Warn("room has no key; dropping item", "room_id", item.RoomID, "message_id", item.MessageID)
		return nil
	}

	plaintext, err := decryptContent(secret, item.Content)
	if err != nil {
		slog.Warn("message decryption failed; dropping item", "error", err, "message_id", item.MessageID)
		return nil
	}

	msg, err := w.repo.GetMessage(ctx, item.MessageID)
	if err != nil {
		return err
	}
	if msg == nil {
		slog.Warn("message no longer exists; dropping item", "message_id", item.MessageID)
		return nil
	}

	source := language.Normalize(msg.DetectedLang)
	targets := w.targetLanguages(item.RoomID, source)
	if len(targets) == 0 {
		slog.Info("no target languages for message; nothing to do", "message_id", item.MessageID, "room_id", item.RoomID)
		return nil
	}

	translations := w.translateAll(ctx, secret, string(plaintext), msg.DetectedLang, targets)
	if len(translations) == 0 {
		return nil
	}

	if err := w.repo.MergeMessageTranslations(ctx, item.MessageID, translations); err != nil {
		return err
	}

	langs := make([]string, 0, len(translations))
	for lang := range translations {
		langs = append(langs, lang)
	}
	err = w.publisher.PublishRoomUpdate(ctx, item.RoomID, map[string]any{
		"type":      "message_translations",
		"messageId": item.MessageID,
		"languages": langs,
	})
	if err != nil {
		slog.Error("failed to publish room update", "error", err, "room_id", item.RoomID, "message_id", item.MessageID)
	}
	return nil
}

func (w *Worker) targetLanguages(roomID, source string) []string {
	var targets []string
	for _, lang := range w.rooms.RequiredTargetLanguages(roomID) {
		if normalized := language.Normalize(lang); normalized != "" && normalized != source {
			targets = append(targets, normalized)
		}
	}
	return targets
}

// translateAll fans one message out to every target language under the
// worker's concurrency limit and re-encrypts each result with the room
// secret. Individual failures skip that language only.
func (w *Worker) translateAll(ctx context.Context, secret []byte, text, sourceHint string, targets []string) map[string]string {
	var (
		mu           sync.Mutex
		wg           sync.WaitGroup
		translations = make(map[string]string, len(targets))
	)
	for _, target := range targets {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()
			w.sem <- struct{}{}
			defer func() { <-w.sem }()

			translated, _ := w.translator.Translate(ctx, text, sourceHint, target)
			if translated == "" {
				return
			}
			sealed, err := encryptContent(secret, []byte(translated))
			if err != nil {
				slog.Error("failed to encrypt translation", "error", err, "target", target)
				return
			}
			mu.Lock()
			translations[target] = base64.StdEncoding.EncodeToString(sealed)
			mu.Unlock()
		}(target)
	}
	wg.Wait()
	return translations
}
