package bot

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"miniflux_bot/internal/feedconf"
	"miniflux_bot/internal/model"
)

// allFlags are the post markers the bridge can filter on.
var allFlags = []string{
	"fwd", "video", "stream", "donat", "clown", "poo",
	"advert", "link", "mention", "hid_channel", "foreign_channel",
}

// Telegram caps messages at 4096 characters; stay under it with room
// for the parse-mode overhead.
const messageLimit = 4000

// configKeyboard builds the settings menu for a channel subscription.
// Flags currently excluded get a remove button, the rest an add button.
func configKeyboard(channel string, cfg feedconf.Config) tgbotapi.InlineKeyboardMarkup {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(allFlags))
	for _, flag := range allFlags {
		if lo.Contains(cfg.ExcludeFlags, flag) {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("❌ Remove %q", flag), "remove_flag|"+channel+"|"+flag))
		} else {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ Add %q", flag), "add_flag|"+channel+"|"+flag))
		}
	}

	rows := lo.Chunk(buttons, 2)
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Edit Regex", "edit_regex|"+channel)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mergeButtonLabel(cfg.MergeSeconds), "edit_merge_time|"+channel)),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Delete channel", "delete|"+channel)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func mergeButtonLabel(seconds int) string {
	if seconds > 0 {
		return fmt.Sprintf("Edit Merge Time (%ds)", seconds)
	}
	return "Edit Merge Time"
}

// categoryKeyboard lists categories one per row, carrying the category
// id in the callback data.
func categoryKeyboard(categories []model.Category) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories))
	for _, cat := range categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(cat.Title, fmt.Sprintf("cat_%d", cat.ID))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// linksKeyboard lists discovered feed links by index. The index refers
// into the pending state, so the data stays within Telegram's 64-byte
// callback limit regardless of URL length.
func linksKeyboard(links []model.FeedLink) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(links))
	for i, link := range links {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(link.Title, fmt.Sprintf("rss_link_%d", i))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// formatConfigText renders the current settings shown above the menu.
func formatConfigText(channel string, cfg feedconf.Config) string {
	flags := "none"
	if len(cfg.ExcludeFlags) > 0 {
		flags = strings.Join(cfg.ExcludeFlags, ", ")
	}
	regex := "none"
	if cfg.ExcludeText != "" {
		regex = cfg.ExcludeText
	}
	merge := "off"
	if cfg.MergeSeconds > 0 {
		merge = fmt.Sprintf("%ds", cfg.MergeSeconds)
	}
	return fmt.Sprintf("Settings for @%s\nExcluded flags: %s\nExclude regex: %s\nMerge window: %s",
		channel, flags, regex, merge)
}

// formatSubscriptionList renders all subscriptions grouped by category,
// in MarkdownV2. Filter details come from decoding each feed URL.
func formatSubscriptionList(subs []model.Subscription, codec *feedconf.Codec) string {
	groups := lo.GroupBy(subs, func(s model.Subscription) string {
		return s.Category.Title
	})
	titles := lo.Keys(groups)
	sort.Strings(titles)

	var sb strings.Builder
	for _, title := range titles {
		sb.WriteString("*" + escapeMD(title) + "*\n")

		group := groups[title]
		sort.Slice(group, func(i, j int) bool {
			return subscriptionLabel(group[i], codec) < subscriptionLabel(group[j], codec)
		})

		for _, sub := range group {
			cfg := codec.Decode(sub.FeedURL)
			line := "• " + escapeMD(subscriptionLabel(sub, codec))

			var details []string
			if len(cfg.ExcludeFlags) > 0 {
				details = append(details, "flags: "+strings.Join(cfg.ExcludeFlags, ","))
			}
			if cfg.ExcludeText != "" {
				details = append(details, "regex: "+cfg.ExcludeText)
			}
			if cfg.MergeSeconds > 0 {
				details = append(details, fmt.Sprintf("merge: %ds", cfg.MergeSeconds))
			}
			if len(details) > 0 {
				line += escapeMD(" (" + strings.Join(details, "; ") + ")")
			}
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func subscriptionLabel(sub model.Subscription, codec *feedconf.Codec) string {
	if channel := codec.Decode(sub.FeedURL).ChannelName; channel != "" {
		return "@" + channel
	}
	if sub.Title != "" {
		return sub.Title
	}
	return sub.FeedURL
}

func escapeMD(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

// chunkMessage splits a long text on line boundaries so each chunk fits
// in one Telegram message.
func chunkMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if cur.Len() > 0 && cur.Len()+len(line)+1 > limit {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
		}
		cur.WriteString(line)
		cur.WriteString("\n")
	}
	if cur.Len() > 0 {
		chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
	}
	return chunks
}
