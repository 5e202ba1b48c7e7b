package ws

import (
	"context"
	"sync"
	"time"

	"collabdocs/internal/services/comment"
	"collabdocs/internal/services/document"
)

// ─────────────────────────── recording emitter ──────────────────────────────

type emitCall struct {
	target     string // "conn", "room", "others"
	conn       *clientConn
	sender     *clientConn
	documentID string
	event      string
	body       any
}

type fakeEmitter struct {
	mu    sync.Mutex
	calls []emitCall
}

func (e *fakeEmitter) ToConn(c *clientConn, event string, body any) {
	e.record(emitCall{target: "conn", conn: c, event: event, body: body})
}

func (e *fakeEmitter) ToRoom(documentID, event string, body any) {
	e.record(emitCall{target: "room", documentID: documentID, event: event, body: body})
}

func (e *fakeEmitter) ToOthers(documentID string, sender *clientConn, event string, body any) {
	e.record(emitCall{target: "others", documentID: documentID, sender: sender, event: event, body: body})
}

func (e *fakeEmitter) record(c emitCall) {
	e.mu.Lock()
	e.calls = append(e.calls, c)
	e.mu.Unlock()
}

func (e *fakeEmitter) snapshot() []emitCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]emitCall, len(e.calls))
	copy(out, e.calls)
	return out
}

func (e *fakeEmitter) byEvent(event string) []emitCall {
	var out []emitCall
	for _, c := range e.snapshot() {
		if c.event == event {
			out = append(out, c)
		}
	}
	return out
}

// ─────────────────────────── fake document store ─────────────────────────────

type savedUpdate struct {
	documentID string
	fields     document.UpdateFields
}

type fakeDocs struct {
	mu      sync.Mutex
	byID    map[string]*document.DocumentDTO
	updates []savedUpdate
	failErr error  // returned by UpdateDocument when set
	onFetch func() // runs inside FetchDocument, before the lookup
}

var _ document.IDocumentService = (*fakeDocs)(nil)

func newFakeDocs(docs ...*document.DocumentDTO) *fakeDocs {
	f := &fakeDocs{byID: make(map[string]*document.DocumentDTO)}
	for _, d := range docs {
		f.byID[d.ID] = d
	}
	return f
}

func (f *fakeDocs) FetchDocument(_ context.Context, id string) (*document.DocumentDTO, error) {
	if f.onFetch != nil {
		f.onFetch()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.byID[id]; ok {
		return d, nil
	}
	return nil, document.ErrNotFound
}

func (f *fakeDocs) UpdateDocument(_ context.Context, id string, fields document.UpdateFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.updates = append(f.updates, savedUpdate{documentID: id, fields: fields})
	return nil
}

func (f *fakeDocs) savedUpdates() []savedUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]savedUpdate, len(f.updates))
	copy(out, f.updates)
	return out
}

func (f *fakeDocs) CreateDocument(_ context.Context, ownerID, title, content string) (*document.DocumentDTO, error) {
	return &document.DocumentDTO{ID: "new", OwnerID: ownerID, Title: title, Content: content}, nil
}

func (f *fakeDocs) ListDocuments(context.Context, string, int, int) ([]document.DocumentDTO, error) {
	return nil, nil
}

func (f *fakeDocs) DeleteDocument(context.Context, string, string) error { return nil }

func (f *fakeDocs) ShareDocument(context.Context, string, string, string, []string) error {
	return nil
}

// ─────────────────────────── fake comment store ──────────────────────────────

type fakeComments struct {
	mu       sync.Mutex
	created  []comment.CreateCommentParams
	failErr  error
	onCreate func() // runs inside CreateComment, before the write
}

var _ comment.ICommentService = (*fakeComments)(nil)

func (f *fakeComments) CreateComment(_ context.Context, p comment.CreateCommentParams) (*comment.CommentDTO, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.created = append(f.created, p)
	return &comment.CommentDTO{
		ID:         "c1",
		Position:   p.Position,
		Content:    p.Content,
		DocumentID: p.DocumentID,
		UserID:     p.UserID,
	}, nil
}

func (f *fakeComments) ListComments(context.Context, string) ([]comment.CommentDTO, error) {
	return nil, nil
}

// ─────────────────────────── session harness ─────────────────────────────────

type sessionHarness struct {
	hub      *Hub
	em       *fakeEmitter
	saver    *Saver
	docs     *fakeDocs
	comments *fakeComments
	deps     *collabDeps
}

func newSessionHarness(docs *fakeDocs) *sessionHarness {
	hub := NewHub()
	em := &fakeEmitter{}
	comments := &fakeComments{}
	saver := NewSaver(docs, em, 10*time.Millisecond)
	return &sessionHarness{
		hub:      hub,
		em:       em,
		saver:    saver,
		docs:     docs,
		comments: comments,
		deps: &collabDeps{
			hub:      hub,
			em:       em,
			saver:    saver,
			docs:     docs,
			comments: comments,
		},
	}
}

func (h *sessionHarness) connect(userID, name string) *connSession {
	cs := newConnSession(&clientConn{id: "conn-" + userID}, sessionUser(userID, name), h.deps)
	return cs
}
