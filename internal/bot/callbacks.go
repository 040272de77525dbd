package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"miniflux_bot/internal/feedconf"
	"miniflux_bot/internal/resolver"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Error("ack callback", "error", err)
	}
	if cb.Message == nil {
		return
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	data := cb.Data

	b.log.Debug("callback", "data", data, "chat_id", chatID, "username", cb.From.UserName)

	switch {
	case strings.HasPrefix(data, "cat_"):
		b.handleCategoryPick(ctx, chatID, messageID, strings.TrimPrefix(data, "cat_"))
	case strings.HasPrefix(data, "rss_link_"):
		b.handleLinkPick(ctx, chatID, messageID, strings.TrimPrefix(data, "rss_link_"))
	default:
		action, rest, ok := strings.Cut(data, "|")
		if !ok {
			return
		}
		switch action {
		case "add_flag", "remove_flag":
			channel, flag, ok := strings.Cut(rest, "|")
			if !ok {
				return
			}
			b.toggleFlag(ctx, chatID, messageID, channel, flag, action == "add_flag")
		case "edit_regex":
			b.promptRegexEdit(ctx, chatID, rest)
		case "edit_merge_time":
			b.promptMergeEdit(ctx, chatID, rest)
		case "delete":
			b.handleDelete(ctx, chatID, messageID, rest)
		}
	}
}

// handleCategoryPick completes the subscription flow: the pending
// channel or feed URL is subscribed in the chosen category. Pending
// state is cleared before the remote call so a failure never leaves a
// stale prompt behind.
func (b *Bot) handleCategoryPick(ctx context.Context, chatID int64, messageID int, idStr string) {
	categoryID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return
	}

	p := b.states.pendingFor(chatID)
	if p == nil || (p.channel == "" && p.feedURL == "") {
		b.editText(chatID, messageID, "Nothing pending. Send a channel or feed URL first.")
		return
	}
	b.states.clearPending(chatID)

	feedURL := p.feedURL
	label := feedURL
	if p.channel != "" {
		feedURL = feedconf.SubscribeURL(b.cfg.BridgeURLTemplate, p.channel)
		label = "@" + p.channel
	}

	feedID, err := b.feeds.CreateFeed(ctx, feedURL, categoryID)
	if err != nil {
		b.editText(chatID, messageID, fmt.Sprintf("Failed to subscribe to %s: %v", label, err))
		return
	}

	b.editText(chatID, messageID, fmt.Sprintf("Subscribed to %s (feed #%d).", label, feedID))
	if p.channel != "" {
		b.showMenu(ctx, chatID, 0, p.channel, feedID)
	}
}

// handleLinkPick resolves a discovered-feed choice back into the
// pending state and moves on to the category picker.
func (b *Bot) handleLinkPick(ctx context.Context, chatID int64, messageID int, idxStr string) {
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return
	}

	p := b.states.pendingFor(chatID)
	if p == nil || idx < 0 || idx >= len(p.links) {
		b.editText(chatID, messageID, "That choice has expired. Send the page URL again.")
		return
	}

	href := p.links[idx].Href

	subs, err := b.feeds.ListFeeds(ctx)
	if err != nil {
		b.editText(chatID, messageID, fmt.Sprintf("Failed to list subscriptions: %v", err))
		return
	}
	if resolver.HasFeedURL(subs, href) {
		b.states.clearPending(chatID)
		b.editText(chatID, messageID, "Already subscribed to this feed.")
		return
	}

	b.offerCategories(ctx, chatID, messageID, &pendingSub{feedURL: href})
}

// promptRegexEdit arms the awaiting-regex state. The state is only set
// after the subscription resolves, so an unknown channel can never trap
// the chat waiting for input.
func (b *Bot) promptRegexEdit(ctx context.Context, chatID int64, channel string) {
	subs, err := b.feeds.ListFeeds(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to list subscriptions: %v", err))
		return
	}
	sub := b.resolver.FindByChannelName(subs, channel)
	if sub == nil {
		b.reply(chatID, fmt.Sprintf("Channel @%s is not subscribed.", channel))
		return
	}

	cfg := b.codec.Decode(sub.FeedURL)
	b.states.beginEdit(chatID, editState{kind: editRegex, channel: channel, feedID: sub.ID})

	if cfg.ExcludeText == "" {
		b.reply(chatID, fmt.Sprintf(
			"No exclude regex is set for @%s.\nSend a pattern to add one, or \"-\" to leave it unset.", channel))
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"Current exclude regex for @%s: %s\nSend a new pattern, or \"-\" to remove it.", channel, cfg.ExcludeText))
}

// promptMergeEdit arms the awaiting-merge-time state.
func (b *Bot) promptMergeEdit(ctx context.Context, chatID int64, channel string) {
	subs, err := b.feeds.ListFeeds(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to list subscriptions: %v", err))
		return
	}
	sub := b.resolver.FindByChannelName(subs, channel)
	if sub == nil {
		b.reply(chatID, fmt.Sprintf("Channel @%s is not subscribed.", channel))
		return
	}

	cfg := b.codec.Decode(sub.FeedURL)
	b.states.beginEdit(chatID, editState{kind: editMergeTime, channel: channel, feedID: sub.ID})

	if cfg.MergeSeconds > 0 {
		b.reply(chatID, fmt.Sprintf(
			"Current merge window for @%s: %ds.\nSend a new value in seconds, or 0 to disable merging.",
			channel, cfg.MergeSeconds))
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"Merging is off for @%s.\nSend a window in seconds to enable it.", channel))
}

// handleDelete unsubscribes a channel.
func (b *Bot) handleDelete(ctx context.Context, chatID int64, messageID int, channel string) {
	subs, err := b.feeds.ListFeeds(ctx)
	if err != nil {
		b.editText(chatID, messageID, fmt.Sprintf("Failed to list subscriptions: %v", err))
		return
	}
	sub := b.resolver.FindByChannelName(subs, channel)
	if sub == nil {
		b.editText(chatID, messageID, fmt.Sprintf("Channel @%s is not subscribed.", channel))
		return
	}

	if err := b.feeds.DeleteFeed(ctx, sub.ID); err != nil {
		b.editText(chatID, messageID, fmt.Sprintf("Failed to delete @%s: %v", channel, err))
		return
	}
	b.editText(chatID, messageID, fmt.Sprintf("Unsubscribed from @%s (feed #%d deleted).", channel, sub.ID))
}
