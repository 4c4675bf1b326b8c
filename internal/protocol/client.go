// Package protocol describes the chat-protocol operations the action router
// depends on. Implementations own transport, authentication and retries.
package protocol

import "context"

type Client interface {
	SendMessage(ctx context.Context, to, content string, opts SendOptions) (SendResult, error)
	EditMessage(ctx context.Context, roomID, messageID, content string, opts CallOptions) (EditResult, error)
	DeleteMessage(ctx context.Context, roomID, messageID string, opts DeleteOptions) error
	ReadMessages(ctx context.Context, roomID string, opts ReadOptions) (ReadResult, error)
	React(ctx context.Context, roomID, messageID, emoji string, opts CallOptions) error
	ListReactions(ctx context.Context, roomID, messageID string, opts ListReactionsOptions) ([]ReactionSummary, error)
	RemoveReactions(ctx context.Context, roomID, messageID string, opts RemoveReactionsOptions) (int, error)
	PinMessage(ctx context.Context, roomID, messageID string, opts CallOptions) (PinResult, error)
	UnpinMessage(ctx context.Context, roomID, messageID string, opts CallOptions) (PinResult, error)
	ListPins(ctx context.Context, roomID string, opts CallOptions) (PinList, error)
	MemberInfo(ctx context.Context, userID string, opts MemberInfoOptions) (MemberInfo, error)
	RoomInfo(ctx context.Context, roomID string, opts CallOptions) (RoomInfo, error)
}

// MessageReader is the slice of Client needed to look up recent messages.
type MessageReader interface {
	ReadMessages(ctx context.Context, roomID string, opts ReadOptions) (ReadResult, error)
}

// CallOptions scopes a call to one configured account. Empty means default.
type CallOptions struct {
	AccountID string
}

type SendOptions struct {
	MediaURL        string
	MediaLocalRoots []string
	ReplyToID       string
	ThreadID        string
	AccountID       string
}

type SendResult struct {
	MessageID string `json:"messageId"`
	RoomID    string `json:"roomId"`
}

type EditResult struct {
	EventID string `json:"eventId"`
}

type DeleteOptions struct {
	Reason    string
	AccountID string
}

// ReadOptions are pagination hints. A zero Limit lets the client pick its
// own default.
type ReadOptions struct {
	Limit     int
	Before    string
	After     string
	AccountID string
}

type MessageSummary struct {
	EventID   string `json:"eventId"`
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	MsgType   string `json:"msgtype,omitempty"`
	Timestamp int64  `json:"timestamp"`
	RelatesTo string `json:"relatesTo,omitempty"`
}

// ReadResult lists messages newest first.
type ReadResult struct {
	Messages  []MessageSummary `json:"messages"`
	NextBatch string           `json:"nextBatch,omitempty"`
	PrevBatch string           `json:"prevBatch,omitempty"`
}

type ListReactionsOptions struct {
	Limit     int
	AccountID string
}

type ReactionSummary struct {
	Key   string   `json:"key"`
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// RemoveReactionsOptions removes only the listed emojis; empty removes all
// reactions the account placed on the message.
type RemoveReactionsOptions struct {
	Emojis    []string
	AccountID string
}

type PinResult struct {
	Pinned []string `json:"pinned"`
}

type PinList struct {
	Pinned []string         `json:"pinned"`
	Events []MessageSummary `json:"events"`
}

type MemberInfoOptions struct {
	RoomID    string
	AccountID string
}

type MemberInfo struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Membership  string `json:"membership,omitempty"`
	RoomID      string `json:"roomId,omitempty"`
}

type RoomInfo struct {
	RoomID         string   `json:"roomId"`
	Name           string   `json:"name,omitempty"`
	Topic          string   `json:"topic,omitempty"`
	CanonicalAlias string   `json:"canonicalAlias,omitempty"`
	AltAliases     []string `json:"altAliases,omitempty"`
	MemberCount    int      `json:"memberCount"`
}
