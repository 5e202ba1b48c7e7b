package ws

import (
	"errors"

	"collabdocs/internal/services/document"
)

// Join-time denial reasons. The message text is part of the wire contract:
// it is emitted verbatim on the "error" channel to the offending connection.
var (
	ErrDocumentNotFound = errors.New("Document not found")
	ErrUserNotFound     = errors.New("User not found")
	ErrAccessDenied     = errors.New("Access denied")
)

// Decision is the gate's verdict for one user on one document.
type Decision struct {
	Allowed  bool
	CanWrite bool
}

// EvaluateAccess decides whether user may join the document's room and
// whether they may submit edits. The owner always writes; a collaborator
// gets whatever their grant says; anyone else is denied. A document with
// no collaborator list admits nobody but the owner.
func EvaluateAccess(doc *document.DocumentDTO, user *UserRef) (Decision, error) {
	if doc == nil {
		return Decision{}, ErrDocumentNotFound
	}
	if user == nil || user.ID == "" {
		return Decision{}, ErrUserNotFound
	}
	if doc.OwnerID == user.ID {
		return Decision{Allowed: true, CanWrite: true}, nil
	}
	for _, collab := range doc.Collaborators {
		if collab.UserID == user.ID {
			return Decision{Allowed: true, CanWrite: collab.CanWrite()}, nil
		}
	}
	return Decision{}, ErrAccessDenied
}
