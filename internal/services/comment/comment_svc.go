package comment

import (
	"context"
	"database/sql"
	"time"
)

type CommentDTO struct {
	ID         string    `json:"id"`
	Position   string    `json:"position"` // "<index>:<length>" into the document text
	Content    string    `json:"content"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Resolved   bool      `json:"resolved"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateCommentParams struct {
	Position   string
	Content    string
	DocumentID string
	UserID     string
}

type ICommentService interface {
	CreateComment(ctx context.Context, p CreateCommentParams) (*CommentDTO, error)
	ListComments(ctx context.Context, documentID string) ([]CommentDTO, error)
}

type commentService struct {
	db *sql.DB
}

var _ ICommentService = (*commentService)(nil)

func NewCommentService(db *sql.DB) ICommentService {
	return &commentService{db: db}
}

func (svc *commentService) CreateComment(ctx context.Context, p CreateCommentParams) (*CommentDTO, error) {
	const q = `
	INSERT INTO comments (position, content, document_id, user_id, resolved)
	     VALUES ($1, $2, $3, $4, false)
	  RETURNING id, created_at`

	dto := &CommentDTO{
		Position:   p.Position,
		Content:    p.Content,
		DocumentID: p.DocumentID,
		UserID:     p.UserID,
	}
	err := svc.db.QueryRowContext(ctx, q,
		p.Position, p.Content, p.DocumentID, p.UserID,
	).Scan(&dto.ID, &dto.CreatedAt)
	if err != nil {
		return nil, err
	}
	return dto, nil
}

func (svc *commentService) ListComments(ctx context.Context, documentID string) ([]CommentDTO, error) {
	const q = `
	SELECT id, position, content, document_id, user_id, resolved, created_at
	  FROM comments
	 WHERE document_id = $1
	 ORDER BY created_at ASC`

	rows, err := svc.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []CommentDTO
	for rows.Next() {
		var c CommentDTO
		if err := rows.Scan(&c.ID, &c.Position, &c.Content,
			&c.DocumentID, &c.UserID, &c.Resolved, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
