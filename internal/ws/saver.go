package ws

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"collabdocs/internal/services/document"
)

const saveTimeout = 5 * time.Second

// Saver coalesces bursts of edits into one document-store write per quiet
// period. Each edit re-arms the document's timer with the latest payload;
// only when the timer survives the full delay does a single write go out.
// At most one timer exists per document; an edit landing while a write is
// in flight simply arms the next cycle.
type Saver struct {
	docs  document.IDocumentService
	em    emitter
	delay time.Duration

	mu        sync.Mutex
	pending   map[string]*pendingSave
	lastSaved map[string]string // document id -> last persisted content
}

type pendingSave struct {
	timer   *time.Timer
	title   *string
	content string
}

func NewSaver(docs document.IDocumentService, em emitter, delay time.Duration) *Saver {
	return &Saver{
		docs:      docs,
		em:        em,
		delay:     delay,
		pending:   make(map[string]*pendingSave),
		lastSaved: make(map[string]string),
	}
}

// Schedule (re)arms the save timer for documentID, replacing any previously
// buffered payload with this one.
func (s *Saver) Schedule(documentID string, title *string, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[documentID]; ok {
		p.title = title
		p.content = content
		p.timer.Stop()
		p.timer.Reset(s.delay)
		return
	}

	p := &pendingSave{title: title, content: content}
	p.timer = time.AfterFunc(s.delay, func() { s.flush(documentID) })
	s.pending[documentID] = p
}

// Cancel drops any pending save for documentID. Called on room teardown so
// no timer outlives the room. A timer that fires anyway only upserts the
// latest content, which is harmless.
func (s *Saver) Cancel(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[documentID]; ok {
		p.timer.Stop()
		delete(s.pending, documentID)
	}
	// The room is gone, so the dedup snapshot must not pin memory for it.
	// A later session's first save writes unconditionally, which is correct:
	// the document may have changed through the HTTP API in the meantime.
	delete(s.lastSaved, documentID)
}

func (s *Saver) flush(documentID string) {
	s.mu.Lock()
	p, ok := s.pending[documentID]
	if !ok {
		// Canceled, or a re-arm raced the fire and a later cycle owns the payload.
		s.mu.Unlock()
		return
	}
	delete(s.pending, documentID)
	title, content := p.title, p.content
	if last, saved := s.lastSaved[documentID]; saved && last == content && title == nil {
		s.mu.Unlock()
		return // nothing new to persist
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	s.em.ToRoom(documentID, evtSavePending, nil)

	err := s.docs.UpdateDocument(ctx, documentID, document.UpdateFields{
		Title:   title,
		Content: &content,
	})
	if err != nil {
		// Not retried here; the next edit re-arms a fresh attempt.
		zap.L().Error("saver.update_failed",
			zap.String("document_id", documentID), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.lastSaved[documentID] = content
	s.mu.Unlock()

	s.em.ToRoom(documentID, evtSaveSuccess, content)
}
