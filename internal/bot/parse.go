package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	usernameRe = regexp.MustCompile(`^@([A-Za-z0-9_]+)$`)
	tmeLinkRe  = regexp.MustCompile(`^(?:https?://)?t\.me/(-?\d+|[A-Za-z0-9_]+)(?:/\d+)?/?$`)
)

// channelFromText extracts a channel identity from a typed message:
// either an @username mention or a t.me link, with or without scheme and
// trailing post number. Returns an empty string for anything else.
func channelFromText(text string) string {
	if m := usernameRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := tmeLinkRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// normalizeRegexInput turns the awaited regex reply into a pattern to
// store. "-", "none" (case-insensitive) and an empty reply all mean
// "remove the pattern".
func normalizeRegexInput(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "-" || strings.EqualFold(trimmed, "none") {
		return ""
	}
	return trimmed
}

// parseMergeInput parses the awaited merge-time reply. Zero and an
// empty reply both mean "disable merging"; negative values and
// non-numbers are rejected.
func parseMergeInput(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", trimmed)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative merge time: %d", n)
	}
	return n, nil
}

// parseFlagArgs splits "/add_flag <channel> <flag>" style arguments.
// A leading @ on the channel is accepted and stripped.
func parseFlagArgs(args string) (channel, flag string, err error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("expected <channel> <flag>, got %d argument(s)", len(fields))
	}
	return strings.TrimPrefix(fields[0], "@"), fields[1], nil
}
