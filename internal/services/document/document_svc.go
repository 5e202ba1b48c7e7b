package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type Collaborator struct {
	UserID    string    `json:"user_id"`
	Grant     []string  `json:"grant"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanWrite reports whether the entry's grant list includes write access.
func (c Collaborator) CanWrite() bool {
	for _, g := range c.Grant {
		if g == GrantWrite {
			return true
		}
	}
	return false
}

type DocumentDTO struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	OwnerID       string         `json:"owner_id"`
	Collaborators []Collaborator `json:"collaborators"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// UpdateFields carries the mutable document fields; nil means "leave as is".
type UpdateFields struct {
	Title   *string
	Content *string
}

const (
	GrantRead  = "read"
	GrantWrite = "write"
)

var (
	ErrNotFound            = errors.New("document not found")
	ErrAlreadyCollaborator = errors.New("user is already a collaborator")
)

type IDocumentService interface {
	FetchDocument(ctx context.Context, id string) (*DocumentDTO, error)
	UpdateDocument(ctx context.Context, id string, fields UpdateFields) error
	CreateDocument(ctx context.Context, ownerID, title, content string) (*DocumentDTO, error)
	ListDocuments(ctx context.Context, userID string, limit, offset int) ([]DocumentDTO, error)
	DeleteDocument(ctx context.Context, id, ownerID string) error
	ShareDocument(ctx context.Context, id, ownerID, userID string, grant []string) error
}

type documentService struct {
	db *sql.DB
}

var _ IDocumentService = (*documentService)(nil)

func NewDocumentService(db *sql.DB) IDocumentService {
	return &documentService{db: db}
}

const docColumns = `id, title, content, owner_id, coalesce(collaborators,'[]'::jsonb), created_at, updated_at`

func (svc *documentService) FetchDocument(ctx context.Context, id string) (*DocumentDTO, error) {
	const q = `SELECT ` + docColumns + ` FROM documents WHERE id = $1`

	dto, err := scanDocument(svc.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (svc *documentService) UpdateDocument(ctx context.Context, id string, fields UpdateFields) error {
	const q = `
	UPDATE documents
	   SET title      = coalesce($2, title),
	       content    = coalesce($3, content),
	       updated_at = now()
	 WHERE id = $1`

	res, err := svc.db.ExecContext(ctx, q, id, nullable(fields.Title), nullable(fields.Content))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (svc *documentService) CreateDocument(ctx context.Context, ownerID, title, content string) (*DocumentDTO, error) {
	const q = `
	INSERT INTO documents (title, content, owner_id, collaborators)
	     VALUES ($1, $2, $3, '[]'::jsonb)
	  RETURNING ` + docColumns

	dto, err := scanDocument(svc.db.QueryRowContext(ctx, q, title, content, ownerID))
	if err != nil {
		return nil, err
	}
	return dto, nil
}

// ListDocuments returns the documents userID owns or collaborates on,
// most recently updated first.
func (svc *documentService) ListDocuments(ctx context.Context, userID string, limit, offset int) ([]DocumentDTO, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `
	SELECT ` + docColumns + `
	  FROM documents
	 WHERE owner_id = $1
	    OR coalesce(collaborators,'[]'::jsonb) @> jsonb_build_array(jsonb_build_object('user_id', $1::text))
	 ORDER BY updated_at DESC
	 LIMIT $2 OFFSET $3`

	rows, err := svc.db.QueryContext(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]DocumentDTO, 0, limit)
	for rows.Next() {
		dto, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *dto)
	}
	return list, rows.Err()
}

func (svc *documentService) DeleteDocument(ctx context.Context, id, ownerID string) error {
	res, err := svc.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ShareDocument appends a collaborator entry. Only the owner may share, and
// a user is listed at most once.
func (svc *documentService) ShareDocument(ctx context.Context, id, ownerID, userID string, grant []string) error {
	if len(grant) == 0 {
		grant = []string{GrantRead}
	}
	grantJSON, err := json.Marshal(grant)
	if err != nil {
		return err
	}

	const q = `
	UPDATE documents
	   SET collaborators = coalesce(collaborators,'[]'::jsonb) || jsonb_build_array(
	           jsonb_build_object(
	               'user_id', $3::text,
	               'grant', $4::jsonb,
	               'created_at', now(),
	               'updated_at', now())),
	       updated_at = now()
	 WHERE id = $1
	   AND owner_id = $2
	   AND NOT coalesce(collaborators,'[]'::jsonb) @> jsonb_build_array(jsonb_build_object('user_id', $3::text))`

	res, err := svc.db.ExecContext(ctx, q, id, ownerID, userID, string(grantJSON))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either no such owned document, or the user is already listed.
		doc, ferr := svc.FetchDocument(ctx, id)
		if ferr != nil {
			return ferr
		}
		for _, collab := range doc.Collaborators {
			if collab.UserID == userID {
				return ErrAlreadyCollaborator
			}
		}
		return ErrNotFound
	}
	return nil
}

// helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*DocumentDTO, error) {
	dto := &DocumentDTO{}
	var collabJSON []byte
	if err := row.Scan(&dto.ID, &dto.Title, &dto.Content, &dto.OwnerID,
		&collabJSON, &dto.CreatedAt, &dto.UpdatedAt); err != nil {
		return nil, err
	}
	if len(collabJSON) > 0 {
		if err := json.Unmarshal(collabJSON, &dto.Collaborators); err != nil {
			return nil, err
		}
	}
	return dto, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
