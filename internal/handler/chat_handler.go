package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/propdesk/propdesk/internal/chat"
	"github.com/propdesk/propdesk/internal/pkg/errcode"
	"github.com/propdesk/propdesk/internal/pkg/response"
)

type ChatHandler struct {
	assembler *chat.Assembler
}

func NewChatHandler(assembler *chat.Assembler) *ChatHandler {
	return &ChatHandler{assembler: assembler}
}

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
}

// Send runs one chat turn. An empty conversation_id starts a new
// conversation owned by the caller.
func (h *ChatHandler) Send(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	caller := getCaller(c)
	result, err := h.assembler.Send(c.Request.Context(), chat.SendInput{
		ConversationID: req.ConversationID,
		UserID:         caller.UserID,
		Role:           caller.Role,
		Text:           req.Text,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
