package bot

import "miniflux_bot/internal/model"

// editKind is what kind of reply the bot is waiting for in a chat.
type editKind int

const (
	editNone editKind = iota
	editRegex
	editMergeTime
)

// editState ties an awaited reply to the subscription it will modify.
// The zero value means no reply is awaited.
type editState struct {
	kind    editKind
	channel string
	feedID  int64
}

// pendingSub accumulates the pieces of an in-progress subscription until
// the operator picks a category. Either channel or feedURL is set, never
// both.
type pendingSub struct {
	channel string
	feedURL string
	links   []model.FeedLink
}

// stateStore holds per-chat conversation state. All access happens from
// the single update loop, so no locking is needed; chats never share
// entries.
type stateStore struct {
	edits       map[int64]editState
	pending     map[int64]*pendingSub
	mediaGroups map[int64]string
}

func newStateStore() *stateStore {
	return &stateStore{
		edits:       make(map[int64]editState),
		pending:     make(map[int64]*pendingSub),
		mediaGroups: make(map[int64]string),
	}
}

// takeEdit returns the awaited-reply state for a chat and clears it.
// Clearing before any side effect keeps a failed edit from trapping the
// chat in a stale mode.
func (s *stateStore) takeEdit(chatID int64) editState {
	st := s.edits[chatID]
	delete(s.edits, chatID)
	return st
}

func (s *stateStore) beginEdit(chatID int64, st editState) {
	s.edits[chatID] = st
}

func (s *stateStore) setPending(chatID int64, p *pendingSub) {
	s.pending[chatID] = p
}

func (s *stateStore) pendingFor(chatID int64) *pendingSub {
	return s.pending[chatID]
}

func (s *stateStore) clearPending(chatID int64) {
	delete(s.pending, chatID)
}

// seenMediaGroup reports whether this album was already handled and
// marks it as handled otherwise. An album forward arrives as one update
// per attachment; only the first should trigger a subscription.
func (s *stateStore) seenMediaGroup(chatID int64, groupID string) bool {
	if s.mediaGroups[chatID] == groupID {
		return true
	}
	s.mediaGroups[chatID] = groupID
	return false
}
