// Package bot is the Telegram capture surface: commands open slot-filling
// sessions and free text is routed to the chat's active session.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/storage"
	"github.com/xaenox/dayflow/internal/workflow"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	storage  storage.Storage
	sessions *workflow.Manager
	logger   *zap.Logger

	mu     sync.Mutex
	active map[int64]string // chat id -> session id
}

func New(token string, store storage.Storage, sessions *workflow.Manager, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:      api,
		storage:  store,
		sessions: sessions,
		logger:   logger,
		active:   make(map[int64]string),
	}, nil
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	// Updates are handled in arrival order; a chat's messages must reach
	// its session one at a time.
	for update := range updates {
		if update.Message == nil {
			continue
		}

		b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	ctx := context.Background()

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	b.mu.Lock()
	sessionID, ok := b.active[message.Chat.ID]
	b.mu.Unlock()

	if !ok {
		b.sendMessage(message.Chat.ID, "Nothing in progress. Use /task, /appointment or /goal to capture something.")
		return
	}

	b.advanceSession(ctx, message.Chat.ID, sessionID, message.Text)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "task":
		b.startSession(ctx, message, workflow.KindTask)
	case "appointment":
		b.startSession(ctx, message, workflow.KindAppointment)
	case "goal":
		b.startSession(ctx, message, workflow.KindGoal)
	case "cancel":
		b.handleCancel(message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to Dayflow! 🗓
I capture tasks, appointments and goals from plain text.

Start with /task, /appointment or /goal and just describe what you need.
Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/task - Capture a task
/appointment - Book an appointment
/goal - Set up a recurring goal
/cancel - Abandon the current conversation

During a conversation, just answer my questions in plain text.
Say 'skip' to leave an optional field empty.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleCancel(message *tgbotapi.Message) {
	b.mu.Lock()
	sessionID, ok := b.active[message.Chat.ID]
	delete(b.active, message.Chat.ID)
	b.mu.Unlock()

	if ok {
		b.sessions.End(sessionID)
		b.sendMessage(message.Chat.ID, "Cancelled. Nothing was saved.")
		return
	}
	b.sendMessage(message.Chat.ID, "Nothing to cancel.")
}

func (b *Bot) startSession(ctx context.Context, message *tgbotapi.Message, kind workflow.Kind) {
	firstText := strings.TrimSpace(message.CommandArguments())

	result, err := b.sessions.Start(ctx, kind, firstText)
	if err != nil {
		b.logger.Error("Failed to start session",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID),
			zap.String("kind", string(kind)))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't start that. Please try again.")
		return
	}

	b.mu.Lock()
	b.active[message.Chat.ID] = result.SessionID
	b.mu.Unlock()

	b.finishOrPrompt(ctx, message.Chat.ID, result)
}

func (b *Bot) advanceSession(ctx context.Context, chatID int64, sessionID, text string) {
	result, err := b.sessions.Message(ctx, sessionID, text)
	if err != nil {
		b.logger.Error("Failed to advance session",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("session_id", sessionID))
		b.mu.Lock()
		delete(b.active, chatID)
		b.mu.Unlock()
		b.sendErrorMessage(chatID, "Sorry, that conversation is gone. Start again with /task, /appointment or /goal.")
		return
	}

	// The goal handoff replaces the workflow but keeps the session id.
	b.finishOrPrompt(ctx, chatID, result)
}

func (b *Bot) finishOrPrompt(ctx context.Context, chatID int64, result *workflow.Result) {
	if result.Item == nil {
		b.sendMessage(chatID, result.Reply.Message)
		return
	}

	b.mu.Lock()
	delete(b.active, chatID)
	b.mu.Unlock()

	if err := b.storage.CreateItem(ctx, result.Item); err != nil {
		b.logger.Error("Failed to save item",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("item_id", result.Item.ID))
		b.sendErrorMessage(chatID, "Sorry, I couldn't save that. Please try again.")
		return
	}

	b.sendMessage(chatID, fmt.Sprintf("%s\n%s: %s on %s",
		result.Reply.Message, result.Item.Type, result.Item.Title, result.Item.Date))
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
