package documenthandler

type CreateDocumentBody struct {
	Title   string `json:"title"   binding:"required"          example:"Meeting notes"`
	Content string `json:"content" binding:"omitempty"         example:"# Agenda"`
} // @name CreateDocumentRequest

type UpdateDocumentBody struct {
	Title   *string `json:"title"   binding:"omitempty"`
	Content *string `json:"content" binding:"omitempty"`
} // @name UpdateDocumentRequest

type ShareDocumentBody struct {
	UserID string   `json:"user_id" binding:"required"                        example:"user123"`
	Grant  []string `json:"grant"   binding:"omitempty,dive,oneof=read write" example:"read,write"`
} // @name ShareDocumentRequest

type CreateCommentBody struct {
	Text   string `json:"text"   binding:"required"`
	Index  int    `json:"index"  binding:"gte=0"`
	Length int    `json:"length" binding:"gte=0"`
} // @name CreateCommentRequest

type ListDocumentsQuery struct {
	Limit  int `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int `form:"offset,default=0"  binding:"gte=0"`
} // @name ListDocumentsQuery

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse
