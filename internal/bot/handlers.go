package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"miniflux_bot/internal/feedconf"
	"miniflux_bot/internal/miniflux"
	"miniflux_bot/internal/reconcile"
	"miniflux_bot/internal/resolver"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "list":
		b.handleList(ctx, chatID)
	case "add_flag":
		b.handleFlagCommand(ctx, chatID, args, true)
	case "remove_flag":
		b.handleFlagCommand(ctx, chatID, args, false)
	default:
		b.reply(chatID, "Unknown command. Use /start for a quick overview.")
	}
}

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `This bot manages your Miniflux subscriptions to Telegram channels.

Send me any of:
- a channel @username or t.me link
- a forwarded post from a channel
- an RSS/Atom feed URL, or a page that links to one

New channels get a category picker; known ones get a settings menu
with exclude flags, an exclude regex, and a merge window.

Commands:
/list — subscriptions grouped by category
/add_flag <channel> <flag> — add an exclude flag
/remove_flag <channel> <flag> — remove an exclude flag`)
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	subs, err := b.feeds.ListFeeds(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to list subscriptions: %v", err))
		return
	}
	if len(subs) == 0 {
		b.reply(chatID, "No subscriptions yet. Send a channel @username or a feed URL to add one.")
		return
	}

	for i, chunk := range chunkMessage(formatSubscriptionList(subs, b.codec), messageLimit) {
		if i > 0 {
			chunk = escapeMD("(continued)") + "\n" + chunk
		}
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeMarkdownV2
		msg.DisableWebPagePreview = true
		b.send(msg)
	}
}

func (b *Bot) handleFlagCommand(ctx context.Context, chatID int64, args string, add bool) {
	channel, flag, err := parseFlagArgs(args)
	if err != nil {
		if add {
			b.reply(chatID, "Usage: /add_flag <channel> <flag>")
		} else {
			b.reply(chatID, "Usage: /remove_flag <channel> <flag>")
		}
		return
	}
	if !lo.Contains(allFlags, flag) {
		b.reply(chatID, fmt.Sprintf("Unknown flag %q. Available: %s", flag, strings.Join(allFlags, ", ")))
		return
	}
	b.toggleFlag(ctx, chatID, 0, channel, flag, add)
}

// handleMessage routes a plain (non-command) message. Awaited replies
// take priority over everything else, then album duplicates are
// dropped, then the message is classified as a forward, a channel
// reference, or a URL.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if st := b.states.takeEdit(chatID); st.kind != editNone {
		switch st.kind {
		case editRegex:
			b.finishRegexEdit(ctx, chatID, msg.Text, st)
		case editMergeTime:
			b.finishMergeEdit(ctx, chatID, msg.Text, st)
		}
		return
	}

	if msg.MediaGroupID != "" && b.states.seenMediaGroup(chatID, msg.MediaGroupID) {
		b.log.Debug("skipping album duplicate", "media_group_id", msg.MediaGroupID)
		return
	}

	if fc := msg.ForwardFromChat; fc != nil {
		if !fc.IsChannel() {
			b.reply(chatID, "Forward a post from a channel, or send a channel link.")
			return
		}
		ident := fc.UserName
		if ident == "" {
			if !b.cfg.AllowNoUsername {
				b.reply(chatID, "This channel has no public username and cannot be subscribed.")
				return
			}
			ident = strconv.FormatInt(fc.ID, 10)
		}
		b.handleChannel(ctx, chatID, ident)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if channel := channelFromText(text); channel != "" {
		b.handleChannel(ctx, chatID, channel)
		return
	}
	if strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://") {
		b.handleURL(ctx, chatID, text)
		return
	}

	b.reply(chatID, "Send a channel @username, a t.me link, a feed URL, or forward a post from a channel.")
}

// handleChannel shows the settings menu for a known channel or starts
// the subscription flow for a new one.
func (b *Bot) handleChannel(ctx context.Context, chatID int64, channel string) {
	if b.cfg.BridgeURLTemplate == "" {
		b.reply(chatID, "No RSS bridge is configured; channel subscriptions are unavailable.")
		return
	}

	subs, err := b.feeds.ListFeeds(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to list subscriptions: %v", err))
		return
	}

	if sub := b.resolver.FindByChannelName(subs, channel); sub != nil {
		b.showMenu(ctx, chatID, 0, channel, sub.ID)
		return
	}
	b.offerCategories(ctx, chatID, 0, &pendingSub{channel: channel})
}

// handleURL probes a non-Telegram URL for a feed.
func (b *Bot) handleURL(ctx context.Context, chatID int64, rawURL string) {
	result, err := b.prober.Probe(ctx, rawURL)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to fetch %s: %v", rawURL, err))
		return
	}

	switch {
	case result.DirectURL != "":
		subs, err := b.feeds.ListFeeds(ctx)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Failed to list subscriptions: %v", err))
			return
		}
		if resolver.HasFeedURL(subs, result.DirectURL) {
			b.reply(chatID, "Already subscribed to this feed.")
			return
		}
		b.offerCategories(ctx, chatID, 0, &pendingSub{feedURL: result.DirectURL})
	case len(result.Links) > 0:
		b.states.setPending(chatID, &pendingSub{links: result.Links})
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Found %d feed(s) on that page. Pick one:", len(result.Links)))
		msg.ReplyMarkup = linksKeyboard(result.Links)
		b.send(msg)
	default:
		b.reply(chatID, "No RSS or Atom feed found at this URL.")
	}
}

// offerCategories stores the pending subscription and asks the operator
// to pick a category. With messageID set the existing message is edited
// in place instead of sending a new one.
func (b *Bot) offerCategories(ctx context.Context, chatID int64, messageID int, p *pendingSub) {
	categories, err := b.feeds.ListCategories(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to list categories: %v", err))
		return
	}
	if len(categories) == 0 {
		b.reply(chatID, "No categories found in Miniflux; create one there first.")
		return
	}

	b.states.setPending(chatID, p)

	label := p.feedURL
	if p.channel != "" {
		label = "@" + p.channel
	}
	text := fmt.Sprintf("Pick a category for %s:", label)
	if messageID != 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, categoryKeyboard(categories)))
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = categoryKeyboard(categories)
	b.send(msg)
}

// showMenu fetches the subscription fresh and renders its settings menu.
// The fetch is deliberate: the menu must reflect what Miniflux stores
// right now, not what the last keyboard showed.
func (b *Bot) showMenu(ctx context.Context, chatID int64, messageID int, channel string, feedID int64) {
	sub, err := b.feeds.GetFeed(ctx, feedID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to load feed #%d: %v", feedID, err))
		return
	}

	cfg := b.codec.Decode(sub.FeedURL)
	text := formatConfigText(channel, cfg)
	keyboard := configKeyboard(channel, cfg)

	if messageID != 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard))
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	b.send(msg)
}

// toggleFlag adds or removes one exclude flag on a channel's feed URL.
// Requests that would not change anything are reported without touching
// Miniflux.
func (b *Bot) toggleFlag(ctx context.Context, chatID int64, messageID int, channel, flag string, add bool) {
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
	has := lo.Contains(cfg.ExcludeFlags, flag)

	if add == has {
		if add {
			b.reply(chatID, fmt.Sprintf("Flag %q is already set for @%s.", flag, channel))
		} else {
			b.reply(chatID, fmt.Sprintf("Flag %q is not set for @%s.", flag, channel))
		}
		b.showMenu(ctx, chatID, messageID, channel, sub.ID)
		return
	}

	var flags []string
	if add {
		flags = append(append([]string{}, cfg.ExcludeFlags...), flag)
	} else {
		flags = lo.Without(cfg.ExcludeFlags, flag)
	}

	newURL := feedconf.Encode(cfg.BaseURL, flags, cfg.ExcludeText, cfg.MergeSeconds)
	if _, err := b.writer.Apply(ctx, sub.ID, newURL); err != nil {
		b.reportApplyError(chatID, err)
		return
	}

	if add {
		b.reply(chatID, fmt.Sprintf("Flag %q added for @%s.", flag, channel))
	} else {
		b.reply(chatID, fmt.Sprintf("Flag %q removed for @%s.", flag, channel))
	}
	b.showMenu(ctx, chatID, messageID, channel, sub.ID)
}

// finishRegexEdit consumes the awaited regex reply. The edit state was
// already cleared by the caller, so any failure below leaves the chat
// in a clean idle state.
func (b *Bot) finishRegexEdit(ctx context.Context, chatID int64, text string, st editState) {
	pattern := normalizeRegexInput(text)

	sub, err := b.feeds.GetFeed(ctx, st.feedID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to load feed #%d: %v", st.feedID, err))
		return
	}

	cfg := b.codec.Decode(sub.FeedURL)
	newURL := feedconf.Encode(cfg.BaseURL, cfg.ExcludeFlags, pattern, cfg.MergeSeconds)
	if _, err := b.writer.Apply(ctx, st.feedID, newURL); err != nil {
		b.reportApplyError(chatID, err)
		return
	}

	if pattern == "" {
		b.reply(chatID, fmt.Sprintf("Exclude regex removed for @%s.", st.channel))
	} else {
		b.reply(chatID, fmt.Sprintf("Exclude regex for @%s set to %q.", st.channel, pattern))
	}
	b.showMenu(ctx, chatID, 0, st.channel, st.feedID)
}

// finishMergeEdit consumes the awaited merge-time reply.
func (b *Bot) finishMergeEdit(ctx context.Context, chatID int64, text string, st editState) {
	seconds, err := parseMergeInput(text)
	if err != nil {
		b.reply(chatID, "Merge time must be a non-negative number of seconds. Use the menu to try again.")
		return
	}

	sub, err := b.feeds.GetFeed(ctx, st.feedID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to load feed #%d: %v", st.feedID, err))
		return
	}

	cfg := b.codec.Decode(sub.FeedURL)
	newURL := feedconf.Encode(cfg.BaseURL, cfg.ExcludeFlags, cfg.ExcludeText, seconds)
	if _, err := b.writer.Apply(ctx, st.feedID, newURL); err != nil {
		b.reportApplyError(chatID, err)
		return
	}

	if seconds == 0 {
		b.reply(chatID, fmt.Sprintf("Merge window disabled for @%s.", st.channel))
	} else {
		b.reply(chatID, fmt.Sprintf("Merge window for @%s set to %ds.", st.channel, seconds))
	}
	b.showMenu(ctx, chatID, 0, st.channel, st.feedID)
}

// reportApplyError turns a failed feed update into an operator-facing
// message, keeping the upstream diagnostic visible.
func (b *Bot) reportApplyError(chatID int64, err error) {
	var mismatch *reconcile.MismatchError
	if errors.As(err, &mismatch) {
		b.reply(chatID, fmt.Sprintf(
			"Miniflux accepted the update but stored a different URL.\nWanted: %s\nStored: %s\nThe configuration was not applied.",
			mismatch.Expected, mismatch.Actual))
		return
	}
	var apiErr *miniflux.APIError
	if errors.As(err, &apiErr) {
		b.reply(chatID, fmt.Sprintf("Miniflux rejected the update: %v", apiErr))
		return
	}
	b.reply(chatID, fmt.Sprintf("Failed to update feed: %v", err))
}
