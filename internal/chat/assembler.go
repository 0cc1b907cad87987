package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/propdesk/propdesk/internal/ai"
	"github.com/propdesk/propdesk/internal/cache"
	"github.com/propdesk/propdesk/internal/model"
	appErr "github.com/propdesk/propdesk/internal/pkg/errors"
	"github.com/propdesk/propdesk/internal/repo"
	"github.com/propdesk/propdesk/internal/retrieve"
)

const (
	lockStripes    = 64
	retryBackoff   = 500 * time.Millisecond
	maxTitleLength = 60
)

// Assembler runs one chat turn: retrieve context, build the persona
// prompt, call the model, map citations back and persist the turn.
// Appends to one conversation are serialized through striped locks;
// different conversations proceed independently.
type Assembler struct {
	conversations *repo.ConversationRepo
	messages      *repo.MessageRepo
	retriever     *retrieve.Retriever
	generator     ai.IGenerator
	listing       *cache.Listing
	historyWindow int
	genTimeout    time.Duration
	locks         [lockStripes]sync.Mutex
}

func NewAssembler(
	conversations *repo.ConversationRepo,
	messages *repo.MessageRepo,
	retriever *retrieve.Retriever,
	generator ai.IGenerator,
	listing *cache.Listing,
	historyWindow int,
	genTimeout time.Duration,
) *Assembler {
	if historyWindow <= 0 {
		historyWindow = 20
	}
	if genTimeout <= 0 {
		genTimeout = 60 * time.Second
	}
	return &Assembler{
		conversations: conversations,
		messages:      messages,
		retriever:     retriever,
		generator:     generator,
		listing:       listing,
		historyWindow: historyWindow,
		genTimeout:    genTimeout,
	}
}

type SendInput struct {
	ConversationID string
	UserID         string
	Role           string
	Text           string
}

type SendResult struct {
	Conversation *model.Conversation `json:"conversation"`
	UserMessage  *model.Message      `json:"user_message"`
	Assistant    *model.Message      `json:"assistant_message"`
	Citations    []Citation          `json:"citations"`
}

func (a *Assembler) Send(ctx context.Context, input SendInput) (*SendResult, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, appErr.ErrInvalid
	}
	if !model.IsValidRole(input.Role) {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", input.UserID))

	conv, err := a.resolveConversation(ctx, input, text)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("conversation_id", conv.ID))

	lock := a.lockFor(conv.ID)
	lock.Lock()
	defer lock.Unlock()

	chunks, err := a.retriever.Query(ctx, text, retrieve.Filters{})
	if err != nil {
		return nil, err
	}
	history, err := a.messages.ListRecent(ctx, conv.ID, a.historyWindow)
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(conv.Role, chunks, history, text)
	answer, err := a.generate(ctx, prompt)
	if err != nil {
		logger.Warn("generation failed, nothing persisted", zap.Error(err))
		return nil, appErr.ErrGenerateFailed
	}

	citations := parseCitations(answer, chunks)
	chunkIDs := make([]string, 0, len(citations))
	for _, c := range citations {
		chunkIDs = append(chunkIDs, c.ChunkID)
	}

	now := time.Now().Unix()
	userMsg := &model.Message{
		ID:             newID(),
		ConversationID: conv.ID,
		Sender:         model.SenderUser,
		Content:        text,
		MsgType:        "text",
		Ctime:          now,
	}
	asstMsg := &model.Message{
		ID:             newID(),
		ConversationID: conv.ID,
		Sender:         model.SenderAssistant,
		Content:        answer,
		ChunkIDs:       chunkIDs,
		MsgType:        "text",
		Ctime:          now,
	}
	// The generated answer is complete at this point; a client disconnect
	// must not unwind a turn we are about to make durable.
	persistCtx := context.WithoutCancel(ctx)
	if err := a.messages.AppendTurn(persistCtx, conv.ID, userMsg, asstMsg, now); err != nil {
		return nil, err
	}
	conv.MessageCount += 2
	conv.Mtime = now
	a.listing.Invalidate(persistCtx, conv.UserID)

	logger.Info("chat turn persisted",
		zap.Int("context_chunks", len(chunks)),
		zap.Int("citations", len(citations)),
	)
	return &SendResult{
		Conversation: conv,
		UserMessage:  userMsg,
		Assistant:    asstMsg,
		Citations:    citations,
	}, nil
}

func (a *Assembler) resolveConversation(ctx context.Context, input SendInput, text string) (*model.Conversation, error) {
	if input.ConversationID == "" {
		now := time.Now().Unix()
		conv := &model.Conversation{
			ID:     newID(),
			UserID: input.UserID,
			Title:  deriveTitle(text),
			Role:   input.Role,
			Ctime:  now,
			Mtime:  now,
		}
		if err := a.conversations.Create(ctx, conv); err != nil {
			return nil, err
		}
		a.listing.Invalidate(ctx, input.UserID)
		return conv, nil
	}
	conv, err := a.conversations.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if input.Role != model.RoleAdmin && conv.UserID != input.UserID {
		return nil, appErr.ErrForbidden
	}
	return conv, nil
}

// generate calls the model with a bounded timeout and exactly one retry
// after a short backoff; validation never retries, transient failures do.
func (a *Assembler) generate(ctx context.Context, prompt string) (string, error) {
	answer, err := a.generateOnce(ctx, prompt)
	if err == nil {
		return answer, nil
	}
	if errors.Is(err, ai.ErrUnavailable) || ctx.Err() != nil {
		return "", err
	}
	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return a.generateOnce(ctx, prompt)
}

func (a *Assembler) generateOnce(ctx context.Context, prompt string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, a.genTimeout)
	defer cancel()
	answer, err := a.generator.Generate(genCtx, prompt)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errors.New("model returned an empty answer")
	}
	return answer, nil
}

func (a *Assembler) lockFor(convID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(convID))
	return &a.locks[h.Sum32()%lockStripes]
}

func deriveTitle(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength]) + "…"
	}
	return title
}

func newID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
