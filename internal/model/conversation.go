package model

const (
	RoleClient   = "client"
	RoleAgent    = "agent"
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

type Conversation struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Title        string `json:"title"`
	Role         string `json:"role"`
	Archived     bool   `json:"archived"`
	MessageCount int    `json:"message_count"`
	Ctime        int64  `json:"ctime"`
	Mtime        int64  `json:"mtime"`
}

// Message.Seq is the per-conversation append order, assigned by the store;
// it disambiguates the two messages of a turn sharing one ctime second.
type Message struct {
	ID             string   `json:"id"`
	ConversationID string   `json:"conversation_id"`
	Seq            int64    `json:"seq"`
	Sender         string   `json:"sender"`
	Content        string   `json:"content"`
	ChunkIDs       []string `json:"chunk_ids,omitempty"`
	MsgType        string   `json:"msg_type"`
	Ctime          int64    `json:"ctime"`
}

func IsValidRole(role string) bool {
	switch role {
	case RoleClient, RoleAgent, RoleAdmin, RoleEmployee:
		return true
	}
	return false
}
