package channel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/linanwx/tutorbot/chat"
	"github.com/linanwx/tutorbot/config"
	"github.com/linanwx/tutorbot/logger"
	"github.com/linanwx/tutorbot/render"
)

// TelegramMaxMessageLength is the Bot API limit for message text.
const TelegramMaxMessageLength = 4096

// telegramSender is the subset of *bot.Bot used to reply.
type telegramSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// TelegramChannel answers Telegram messages. Each chat has its own subject,
// switched with /subject.
type TelegramChannel struct {
	store      *config.Store
	tutor      Tutor
	token      string
	allowedIDs map[int64]bool // nil = allow all

	mu       sync.Mutex
	subjects map[int64]string

	b         *bot.Bot
	cancel    context.CancelFunc
	startDone chan struct{}
}

// NewTelegramChannel creates a new Telegram channel from config.
// Returns nil if no token is configured.
func NewTelegramChannel(store *config.Store, tutor Tutor) Channel {
	cfg := store.Get()
	token := cfg.TelegramToken()
	if token == "" {
		logger.Warn("Telegram token not configured, skipping Telegram channel")
		return nil
	}

	var allowedIDs map[int64]bool
	if len(cfg.Telegram.AllowedIDs) > 0 {
		allowedIDs = make(map[int64]bool, len(cfg.Telegram.AllowedIDs))
		for _, id := range cfg.Telegram.AllowedIDs {
			allowedIDs[id] = true
		}
	}

	return &TelegramChannel{
		store:      store,
		tutor:      tutor,
		token:      token,
		allowedIDs: allowedIDs,
		subjects:   make(map[int64]string),
	}
}

// Name returns the channel name.
func (t *TelegramChannel) Name() string {
	return "telegram"
}

// Start begins polling for updates.
func (t *TelegramChannel) Start(ctx context.Context) error {
	b, err := bot.New(t.token, bot.WithDefaultHandler(t.handleUpdate))
	if err != nil {
		return fmt.Errorf("telegram bot creation failed: %w", err)
	}
	t.b = b

	me, err := b.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram connection failed: %w", err)
	}
	logger.Info("telegram bot connected", "username", me.Username)

	startCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.startDone = make(chan struct{})

	go func() {
		defer close(t.startDone)
		t.b.Start(startCtx)
	}()

	logger.Info("telegram channel started")
	return nil
}

// Stop gracefully shuts down the channel.
func (t *TelegramChannel) Stop() error {
	if t.cancel != nil {
		t.cancel()
		<-t.startDone
	}
	logger.Info("telegram channel stopped")
	return nil
}

// handleUpdate is the default handler for incoming Telegram updates.
func (t *TelegramChannel) handleUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	msg := update.Message

	fromID := int64(0)
	if msg.From != nil {
		fromID = msg.From.ID
	}
	if t.allowedIDs != nil && !t.allowedIDs[msg.Chat.ID] && !t.allowedIDs[fromID] {
		logger.Warn("telegram message from unauthorized user", "userID", fromID, "chatID", msg.Chat.ID)
		return
	}

	t.handleText(ctx, b, msg.Chat.ID, msg.Text)
}

func (t *TelegramChannel) handleText(ctx context.Context, s telegramSender, chatID int64, text string) {
	cmd, arg := splitCommand(text)
	switch cmd {
	case "/start", "/help":
		t.sendPlain(ctx, s, chatID, "Hi! Ask me anything. Current subject: "+t.subject(chatID)+
			"\nUse /subjects to list subjects and /subject <name> to switch.")
		return
	case "/subjects":
		t.sendPlain(ctx, s, chatID, t.subjectList(chatID))
		return
	case "/subject":
		t.sendPlain(ctx, s, chatID, t.switchSubject(chatID, arg))
		return
	}

	question := strings.TrimSpace(text)
	if question == "" {
		return
	}
	_, _ = s.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})

	subject := t.subject(chatID)
	res, err := t.tutor.Answer(ctx, question, subject)
	var reply render.Message
	if err != nil {
		logger.Error("telegram answer failed", "chatID", chatID, "subject", subject, "err", err)
		reply = chat.ReplyMessage(nil, err)
	} else {
		reply = chat.ReplyMessage(res.Response(), nil)
	}
	t.sendMessage(ctx, s, chatID, reply)
}

// sendMessage sends m as HTML, falling back to plain text when the HTML is
// too long or rejected.
func (t *TelegramChannel) sendMessage(ctx context.Context, s telegramSender, chatID int64, m render.Message) {
	html := render.Telegram(m)
	if utf8.RuneCountInString(html) <= TelegramMaxMessageLength {
		_, err := s.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      html,
			ParseMode: models.ParseModeHTML,
		})
		if err == nil {
			return
		}
		logger.Warn("telegram html send failed, retrying as plain text", "chatID", chatID, "err", err)
	}
	t.sendPlain(ctx, s, chatID, render.Plain(m))
}

func (t *TelegramChannel) sendPlain(ctx context.Context, s telegramSender, chatID int64, text string) {
	for _, chunk := range SplitMessage(text, TelegramMaxMessageLength) {
		if _, err := s.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: chunk}); err != nil {
			logger.Error("telegram send error", "chatID", chatID, "err", err)
			return
		}
	}
}

func (t *TelegramChannel) subject(chatID int64) string {
	t.mu.Lock()
	s, ok := t.subjects[chatID]
	t.mu.Unlock()
	if ok {
		return s
	}
	return defaultSubject(t.store.Get())
}

func (t *TelegramChannel) subjectList(chatID int64) string {
	current := t.subject(chatID)
	var sb strings.Builder
	sb.WriteString("Subjects:")
	for _, name := range t.store.Get().SubjectNames() {
		sb.WriteString("\n")
		if name == current {
			sb.WriteString("• ")
		} else {
			sb.WriteString("  ")
		}
		sb.WriteString(name)
	}
	return sb.String()
}

func (t *TelegramChannel) switchSubject(chatID int64, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Current subject: " + t.subject(chatID) + "\nUsage: /subject <name>"
	}
	for _, s := range t.store.Get().SubjectNames() {
		if strings.EqualFold(s, name) {
			t.mu.Lock()
			t.subjects[chatID] = s
			t.mu.Unlock()
			return "Subject set to " + s + "."
		}
	}
	return fmt.Sprintf("Unknown subject %q. Use /subjects to list them.", name)
}

// splitCommand returns the leading /command (without any @botname suffix)
// and its argument. Plain text yields an empty command.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	cmd, arg, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

// SplitMessage splits text into chunks of at most maxRunes runes, preferring
// newline boundaries.
func SplitMessage(text string, maxRunes int) []string {
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > maxRunes {
		cut := maxRunes
		for i := maxRunes - 1; i > maxRunes/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
