// Package bot implements the Telegram side of the application: the
// update loop, command and message handlers, inline keyboards, and the
// per-chat conversation state that channel edits flow through.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"miniflux_bot/internal/config"
	"miniflux_bot/internal/discover"
	"miniflux_bot/internal/feedconf"
	"miniflux_bot/internal/model"
	"miniflux_bot/internal/reconcile"
	"miniflux_bot/internal/resolver"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// feedService is the slice of the Miniflux client the bot uses.
type feedService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListFeeds(ctx context.Context) ([]model.Subscription, error)
	GetFeed(ctx context.Context, id int64) (*model.Subscription, error)
	CreateFeed(ctx context.Context, feedURL string, categoryID int64) (int64, error)
	UpdateFeed(ctx context.Context, id int64, feedURL string) error
	DeleteFeed(ctx context.Context, id int64) error
}

// Bot is the Telegram bot managing Miniflux subscriptions for a single
// operator.
type Bot struct {
	api      telegramAPI
	feeds    feedService
	writer   *reconcile.Writer
	codec    *feedconf.Codec
	resolver *resolver.Resolver
	prober   *discover.Prober
	cfg      *config.Config
	states   *stateStore
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token, feed service, and
// config.
func New(token string, feeds feedService, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	codec := feedconf.New(feedconf.BridgeExtractor(cfg.BridgeURLTemplate))
	return &Bot{
		api:      api,
		feeds:    feeds,
		writer:   reconcile.NewWriter(feeds),
		codec:    codec,
		resolver: resolver.New(codec),
		prober:   discover.New(http.DefaultClient),
		cfg:      cfg,
		states:   newStateStore(),
		log:      log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is
// cancelled. Updates are processed sequentially, which is what keeps
// the unlocked conversation state safe.
func (b *Bot) Run(ctx context.Context) {
	b.setCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				cb := update.CallbackQuery
				if !b.cfg.IsAdmin(cb.From.UserName) {
					continue
				}
				b.handleCallback(ctx, cb)
				continue
			}
			msg := update.Message
			if msg == nil || msg.From == nil {
				continue
			}
			if !b.cfg.IsAdmin(msg.From.UserName) {
				b.reply(msg.Chat.ID, "Access denied.")
				continue
			}
			if msg.IsCommand() {
				b.handleCommand(ctx, msg)
			} else {
				b.handleMessage(ctx, msg)
			}
		}
	}
}

func (b *Bot) setCommands() {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "How to use the bot"},
		tgbotapi.BotCommand{Command: "list", Description: "List subscriptions with their filters"},
		tgbotapi.BotCommand{Command: "add_flag", Description: "Add an exclude flag: /add_flag <channel> <flag>"},
		tgbotapi.BotCommand{Command: "remove_flag", Description: "Remove an exclude flag: /remove_flag <channel> <flag>"},
	)
	if _, err := b.api.Request(cmds); err != nil {
		b.log.Error("set bot commands", "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Error("send message", "error", err)
	}
}

func (b *Bot) editText(chatID int64, messageID int, text string) {
	b.send(tgbotapi.NewEditMessageText(chatID, messageID, text))
}
