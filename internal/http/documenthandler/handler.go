package documenthandler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"collabdocs/internal/services/comment"
	"collabdocs/internal/services/document"
	sessionsvc "collabdocs/internal/services/session"
	"collabdocs/internal/ws"
)

const userContextKey = "authenticated_user"

type Handler struct {
	docs     document.IDocumentService
	comments comment.ICommentService
	sessions sessionsvc.ISessionService
}

func New(docs document.IDocumentService, comments comment.ICommentService,
	sessions sessionsvc.ISessionService) *Handler {
	return &Handler{docs: docs, comments: comments, sessions: sessions}
}

func (h *Handler) Register(r *gin.RouterGroup) {
	r.Use(h.authenticate)
	r.GET("/documents", h.list)
	r.POST("/documents", h.create)
	r.GET("/documents/:id", h.get)
	r.PUT("/documents/:id", h.update)
	r.DELETE("/documents/:id", h.remove)
	r.POST("/documents/:id/share", h.share)
	r.GET("/documents/:id/comments", h.listComments)
	r.POST("/documents/:id/comments", h.createComment)
}

// authenticate resolves the refresh cookie to a user, same credential the
// realtime handshake uses.
func (h *Handler) authenticate(c *gin.Context) {
	token, err := c.Cookie("refreshToken")
	if err != nil || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "no refresh token provided"})
		return
	}
	user, err := h.sessions.VerifyRefreshToken(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid refresh token"})
		return
	}
	c.Set(userContextKey, *user)
	c.Next()
}

func currentUser(c *gin.Context) sessionsvc.UserDTO {
	return c.MustGet(userContextKey).(sessionsvc.UserDTO)
}

// @Summary		List documents
// @Description	Documents the caller owns or collaborates on, newest first.
// @Tags			Documents
// @Param			limit	query		int	false	"Max results (0-100)"	default(10)
// @Param			offset	query		int	false	"Offset for pagination"	default(0)
// @Success		200		{array}		document.DocumentDTO
// @Failure		400		{object}	ErrorResponse
// @Router			/documents [get]
func (h *Handler) list(c *gin.Context) {
	var q ListDocumentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.docs.ListDocuments(c.Request.Context(), currentUser(c).ID, q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Create a document
// @Tags			Documents
// @Param			body	body		CreateDocumentBody	true	"Document payload"
// @Success		201		{object}	document.DocumentDTO
// @Failure		400		{object}	ErrorResponse
// @Router			/documents [post]
func (h *Handler) create(c *gin.Context) {
	var body CreateDocumentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	dto, err := h.docs.CreateDocument(c.Request.Context(), currentUser(c).ID, body.Title, body.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// @Summary		Get a document
// @Tags			Documents
// @Param			id	path		string	true	"Document ID"
// @Success		200	{object}	document.DocumentDTO
// @Failure		403	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/documents/{id} [get]
func (h *Handler) get(c *gin.Context) {
	doc, ok := h.fetchAuthorized(c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

// @Summary		Update a document
// @Description	Requires write access (owner or write-granted collaborator).
// @Tags			Documents
// @Param			id		path	string				true	"Document ID"
// @Param			body	body	UpdateDocumentBody	true	"Fields to change"
// @Success		204
// @Failure		403	{object}	ErrorResponse
// @Failure		404	{object}	ErrorResponse
// @Router			/documents/{id} [put]
func (h *Handler) update(c *gin.Context) {
	var body UpdateDocumentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if _, ok := h.fetchAuthorized(c, true); !ok {
		return
	}
	err := h.docs.UpdateDocument(c.Request.Context(), c.Param("id"), document.UpdateFields{
		Title:   body.Title,
		Content: body.Content,
	})
	if errors.Is(err, document.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary		Delete a document
// @Description	Owner only.
// @Tags			Documents
// @Param			id	path	string	true	"Document ID"
// @Success		204
// @Failure		404	{object}	ErrorResponse
// @Router			/documents/{id} [delete]
func (h *Handler) remove(c *gin.Context) {
	err := h.docs.DeleteDocument(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if errors.Is(err, document.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary		Share a document
// @Description	Owner grants a collaborator read or write access.
// @Tags			Documents
// @Param			id		path	string				true	"Document ID"
// @Param			body	body	ShareDocumentBody	true	"Collaborator grant"
// @Success		204
// @Failure		404	{object}	ErrorResponse
// @Failure		409	{object}	ErrorResponse
// @Router			/documents/{id}/share [post]
func (h *Handler) share(c *gin.Context) {
	var body ShareDocumentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	err := h.docs.ShareDocument(c.Request.Context(), c.Param("id"), currentUser(c).ID,
		body.UserID, body.Grant)
	if errors.Is(err, document.ErrAlreadyCollaborator) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		return
	}
	if errors.Is(err, document.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary		List document comments
// @Tags			Comments
// @Param			id	path		string	true	"Document ID"
// @Success		200	{array}		comment.CommentDTO
// @Failure		403	{object}	ErrorResponse
// @Router			/documents/{id}/comments [get]
func (h *Handler) listComments(c *gin.Context) {
	if _, ok := h.fetchAuthorized(c, false); !ok {
		return
	}
	out, err := h.comments.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if out == nil {
		out = []comment.CommentDTO{}
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Comment on a document
// @Tags			Comments
// @Param			id		path		string				true	"Document ID"
// @Param			body	body		CreateCommentBody	true	"Comment payload"
// @Success		201		{object}	comment.CommentDTO
// @Failure		403		{object}	ErrorResponse
// @Router			/documents/{id}/comments [post]
func (h *Handler) createComment(c *gin.Context) {
	var body CreateCommentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if _, ok := h.fetchAuthorized(c, false); !ok {
		return
	}
	dto, err := h.comments.CreateComment(c.Request.Context(), comment.CreateCommentParams{
		Position:   fmt.Sprintf("%d:%d", body.Index, body.Length),
		Content:    body.Text,
		DocumentID: c.Param("id"),
		UserID:     currentUser(c).ID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dto)
}

// fetchAuthorized loads the document and runs the same access gate the
// realtime join uses. Responds and returns ok=false on any denial.
func (h *Handler) fetchAuthorized(c *gin.Context, needWrite bool) (*document.DocumentDTO, bool) {
	user := currentUser(c)
	doc, err := h.docs.FetchDocument(c.Request.Context(), c.Param("id"))
	if errors.Is(err, document.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return nil, false
	}

	dec, err := ws.EvaluateAccess(doc, &ws.UserRef{ID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil || !dec.Allowed {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})
		return nil, false
	}
	if needWrite && !dec.CanWrite {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "write access denied"})
		return nil, false
	}
	return doc, true
}
