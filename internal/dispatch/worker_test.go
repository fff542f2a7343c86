package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lingoroom/captiond/internal/bus"
	"github.com/lingoroom/captiond/internal/repository"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeQueue struct {
	mu    sync.Mutex
	items []*bus.QueueItem
	errs  []error
}

func (q *fakeQueue) Enqueue(_ context.Context, item bus.QueueItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, &item)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context, _ time.Duration) (*bus.QueueItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.errs) > 0 {
		err := q.errs[0]
		q.errs = q.errs[1:]
		return nil, err
	}
	if len(q.items) == 0 {
		return nil, ctx.Err()
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, nil
}

type fakeRepo struct {
	mu       sync.Mutex
	keys     map[string][]byte
	messages map[string]*repository.ChatMessage
	merged   map[string]map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		keys:     make(map[string][]byte),
		messages: make(map[string]*repository.ChatMessage),
		merged:   make(map[string]map[string]string),
	}
}

func (r *fakeRepo) UpsertTranslation(_ context.Context, _ repository.UpsertLexiconInput) error {
	return nil
}
func (r *fakeRepo) AddUsage(_ context.Context, _ map[repository.UsageKey]int64) error { return nil }
func (r *fakeRepo) ListMostUsed(_ context.Context, _ int) ([]repository.LexiconEntry, error) {
	return nil, nil
}

func (r *fakeRepo) GetMessage(_ context.Context, id string) (*repository.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.messages[id], nil
}

func (r *fakeRepo) MergeMessageTranslations(_ context.Context, id string, translations map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merged[id] = translations
	return nil
}

func (r *fakeRepo) GetRoomKey(_ context.Context, roomID string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[roomID], nil
}

type fakeTranslator struct {
	mu    sync.Mutex
	calls []string
}

func (t *fakeTranslator) Translate(_ context.Context, text, _, target string) (string, string) {
	t.mu.Lock()
	t.calls = append(t.calls, target)
	t.mu.Unlock()
	return "[" + target + "] " + text, "en"
}

type fakeRooms struct {
	langs map[string][]string
}

func (r *fakeRooms) RequiredTargetLanguages(roomID string) []string {
	return r.langs[roomID]
}

type fakePublisher struct {
	mu      sync.Mutex
	updates []string
	err     error
}

func (p *fakePublisher) PublishRoomUpdate(_ context.Context, roomID string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.updates = append(p.updates, roomID)
	return nil
}

func encryptedItem(t *testing.T, messageID, roomID, text string) *bus.QueueItem {
	t.Helper()
	sealed, err := encryptContent(testSecret, []byte(text))
	if err != nil {
		t.Fatalf("encrypt test content: %v", err)
	}
	return &bus.QueueItem{MessageID: messageID, RoomID: roomID, Content: sealed}
}

func newTestWorker(repo *fakeRepo, tr *fakeTranslator, rooms *fakeRooms, pub *fakePublisher) *Worker {
	return NewWorker(&fakeQueue{}, repo, tr, rooms, pub, 2)
}

func TestProcessItem_TranslatesToDistinctLanguages(t *testing.T) {
	repo := newFakeRepo()
	repo.keys["room1"] = testSecret
	repo.messages["msg1"] = &repository.ChatMessage{ID: "msg1", RoomID: "room1", DetectedLang: "en"}
	tr := &fakeTranslator{}
	pub := &fakePublisher{}
	w := newTestWorker(repo, tr, &fakeRooms{langs: map[string][]string{"room1": {"vi", "ja", "en"}}}, pub)

	item := encryptedItem(t, "msg1", "room1", "hello everyone")
	if err := w.processItem(context.Background(), item); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(tr.calls) != 2 {
		t.Fatalf("expected translations for vi and ja only, got %v", tr.calls)
	}
	merged := repo.merged["msg1"]
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged translations, got %v", merged)
	}
	for lang, encoded := range merged {
		sealed, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			t.Fatalf("translation for %s is not base64: %v", lang, err)
		}
		plaintext, err := decryptContent(testSecret, sealed)
		if err != nil {
			t.Fatalf("translation for %s not decryptable: %v", lang, err)
		}
		want := "[" + lang + "] hello everyone"
		if string(plaintext) != want {
			t.Fatalf("got %q, want %q", plaintext, want)
		}
	}
	if len(pub.updates) != 1 || pub.updates[0] != "room1" {
		t.Fatalf("expected one room update, got %v", pub.updates)
	}
}

func TestProcessItem_MissingRoomKeyDropsItem(t *testing.T) {
	repo := newFakeRepo()
	tr := &fakeTranslator{}
	w := newTestWorker(repo, tr, &fakeRooms{langs: map[string][]string{"room1": {"vi"}}}, &fakePublisher{})

	item := encryptedItem(t, "msg1", "room1", "hello")
	if err := w.processItem(context.Background(), item); err != nil {
		t.Fatalf("missing key must drop silently, got %v", err)
	}
	if len(tr.calls) != 0 {
		t.Fatal("no translation expected without a room key")
	}
}

func TestProcessItem_UndecryptableContentDropsItem(t *testing.T) {
	repo := newFakeRepo()
	repo.keys["room1"] = testSecret
	tr := &fakeTranslator{}
	w := newTestWorker(repo, tr, &fakeRooms{langs: map[string][]string{"room1": {"vi"}}}, &fakePublisher{})

	item := &bus.QueueItem{MessageID: "msg1", RoomID: "room1", Content: []byte("garbage")}
	if err := w.processItem(context.Background(), item); err != nil {
		t.Fatalf("bad ciphertext must drop silently, got %v", err)
	}
	if len(tr.calls) != 0 {
		t.Fatal("no translation expected for undecryptable content")
	}
}

func TestProcessItem_NoTargetLanguagesDropsItem(t *testing.T) {
	repo := newFakeRepo()
	repo.keys["room1"] = testSecret
	repo.messages["msg1"] = &repository.ChatMessage{ID: "msg1", RoomID: "room1", DetectedLang: "en"}
	tr := &fakeTranslator{}
	pub := &fakePublisher{}
	w := newTestWorker(repo, tr, &fakeRooms{langs: map[string][]string{"room1": {"en"}}}, pub)

	item := encryptedItem(t, "msg1", "room1", "hello")
	if err := w.processItem(context.Background(), item); err != nil {
		t.Fatalf("empty target set must drop silently, got %v", err)
	}
	if len(pub.updates) != 0 {
		t.Fatal("no publish expected when nothing was translated")
	}
}

func TestRun_SurvivesItemFailuresAndStopsOnCancel(t *testing.T) {
	repo := newFakeRepo()
	repo.keys["room1"] = testSecret
	repo.messages["msg2"] = &repository.ChatMessage{ID: "msg2", RoomID: "room1", DetectedLang: "en"}

	queue := &fakeQueue{errs: []error{errors.New("transient redis error")}}
	_ = queue.Enqueue(context.Background(), *encryptedItem(t, "msg1", "missing-room", "hi"))
	_ = queue.Enqueue(context.Background(), *encryptedItem(t, "msg2", "room1", "hi"))

	tr := &fakeTranslator{}
	w := NewWorker(queue, repo, tr, &fakeRooms{langs: map[string][]string{"room1": {"vi"}}}, &fakePublisher{}, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		repo.mu.Lock()
		processed := len(repo.merged["msg2"]) > 0
		repo.mu.Unlock()
		if processed {
			break
		}
		select {
		case <-deadline:
			t.Fatal("worker did not survive earlier failures to process msg2")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sealed, err := encryptContent(testSecret, []byte("bonjour"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	plaintext, err := decryptContent(testSecret, sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(plaintext) != "bonjour" {
		t.Fatalf("got %q", plaintext)
	}
	if _, err := decryptContent([]byte("ffffffffffffffffffffffffffffffff"), sealed); err == nil {
		t.Fatal("expected failure with wrong key")
	}
}
