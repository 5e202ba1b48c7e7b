package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collabdocs/internal/services/document"
)

func TestEvaluateAccess(t *testing.T) {
	doc := &document.DocumentDTO{
		ID:      "doc1",
		OwnerID: "owner",
		Collaborators: []document.Collaborator{
			{UserID: "writer", Grant: []string{document.GrantRead, document.GrantWrite}},
			{UserID: "reader", Grant: []string{document.GrantRead}},
		},
	}

	tests := []struct {
		name         string
		doc          *document.DocumentDTO
		user         *UserRef
		wantErr      error
		wantCanWrite bool
	}{
		{"owner gets full write", doc, &UserRef{ID: "owner"}, nil, true},
		{"write collaborator", doc, &UserRef{ID: "writer"}, nil, true},
		{"read-only collaborator", doc, &UserRef{ID: "reader"}, nil, false},
		{"stranger denied", doc, &UserRef{ID: "stranger"}, ErrAccessDenied, false},
		{"missing document", nil, &UserRef{ID: "owner"}, ErrDocumentNotFound, false},
		{"missing user", doc, nil, ErrUserNotFound, false},
		{"empty user id", doc, &UserRef{}, ErrUserNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := EvaluateAccess(tt.doc, tt.user)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.False(t, dec.Allowed)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec.Allowed)
			assert.Equal(t, tt.wantCanWrite, dec.CanWrite)
		})
	}
}

// A document with no collaborator list at all must deny every non-owner,
// not admit them.
func TestEvaluateAccessNilCollaborators(t *testing.T) {
	doc := &document.DocumentDTO{ID: "doc1", OwnerID: "owner"}

	_, err := EvaluateAccess(doc, &UserRef{ID: "anyone"})
	require.ErrorIs(t, err, ErrAccessDenied)

	dec, err := EvaluateAccess(doc, &UserRef{ID: "owner"})
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.True(t, dec.CanWrite)
}

func TestEvaluateAccessCollaboratorWithoutWriteGrant(t *testing.T) {
	doc := &document.DocumentDTO{
		ID:      "doc1",
		OwnerID: "owner",
		Collaborators: []document.Collaborator{
			{UserID: "nogrants"},
		},
	}
	dec, err := EvaluateAccess(doc, &UserRef{ID: "nogrants"})
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.False(t, dec.CanWrite, "empty grant list must not imply write")
}
