package model

// RetentionRun records the effect of one retention pass, one row per run.
type RetentionRun struct {
	ID                    int64 `json:"id"`
	StartedAt             int64 `json:"started_at"`
	ConversationsArchived int64 `json:"conversations_archived"`
	ConversationsDeleted  int64 `json:"conversations_deleted"`
	MessagesDeleted       int64 `json:"messages_deleted"`
}
