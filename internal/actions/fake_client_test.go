package actions

import (
	"context"
	"sync"

	"github.com/3n8/openclaw-plugins/internal/protocol"
)

type clientCall struct {
	method    string
	roomID    string
	messageID string
	value     string
	accountID string
	emojis    []string
}

// fakeClient records every protocol call in order.
type fakeClient struct {
	mu    sync.Mutex
	calls []clientCall

	messages   []protocol.MessageSummary
	readErr    error
	reactErrOn string
	reactErr   error
	removed    int
	reactions  []protocol.ReactionSummary
	pinned     []string
	sendOpts   protocol.SendOptions
	readOpts   protocol.ReadOptions
	genericErr error
}

func (f *fakeClient) record(call clientCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClient) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		out = append(out, call.method)
	}
	return out
}

func (f *fakeClient) SendMessage(ctx context.Context, to, content string, opts protocol.SendOptions) (protocol.SendResult, error) {
	f.record(clientCall{method: "SendMessage", roomID: to, value: content, accountID: opts.AccountID})
	f.sendOpts = opts
	if f.genericErr != nil {
		return protocol.SendResult{}, f.genericErr
	}
	return protocol.SendResult{MessageID: "$sent:example.org", RoomID: to}, nil
}

func (f *fakeClient) EditMessage(ctx context.Context, roomID, messageID, content string, opts protocol.CallOptions) (protocol.EditResult, error) {
	f.record(clientCall{method: "EditMessage", roomID: roomID, messageID: messageID, value: content, accountID: opts.AccountID})
	return protocol.EditResult{EventID: "$edit:example.org"}, f.genericErr
}

func (f *fakeClient) DeleteMessage(ctx context.Context, roomID, messageID string, opts protocol.DeleteOptions) error {
	f.record(clientCall{method: "DeleteMessage", roomID: roomID, messageID: messageID, value: opts.Reason, accountID: opts.AccountID})
	return f.genericErr
}

func (f *fakeClient) ReadMessages(ctx context.Context, roomID string, opts protocol.ReadOptions) (protocol.ReadResult, error) {
	f.record(clientCall{method: "ReadMessages", roomID: roomID, accountID: opts.AccountID})
	f.readOpts = opts
	if f.readErr != nil {
		return protocol.ReadResult{}, f.readErr
	}
	return protocol.ReadResult{Messages: f.messages, NextBatch: "t2", PrevBatch: "t1"}, nil
}

func (f *fakeClient) React(ctx context.Context, roomID, messageID, emoji string, opts protocol.CallOptions) error {
	f.record(clientCall{method: "React", roomID: roomID, messageID: messageID, value: emoji, accountID: opts.AccountID})
	if f.reactErrOn != "" && emoji == f.reactErrOn {
		return f.reactErr
	}
	return nil
}

func (f *fakeClient) ListReactions(ctx context.Context, roomID, messageID string, opts protocol.ListReactionsOptions) ([]protocol.ReactionSummary, error) {
	f.record(clientCall{method: "ListReactions", roomID: roomID, messageID: messageID, accountID: opts.AccountID})
	return f.reactions, f.genericErr
}

func (f *fakeClient) RemoveReactions(ctx context.Context, roomID, messageID string, opts protocol.RemoveReactionsOptions) (int, error) {
	f.record(clientCall{method: "RemoveReactions", roomID: roomID, messageID: messageID, emojis: opts.Emojis, accountID: opts.AccountID})
	return f.removed, f.genericErr
}

func (f *fakeClient) PinMessage(ctx context.Context, roomID, messageID string, opts protocol.CallOptions) (protocol.PinResult, error) {
	f.record(clientCall{method: "PinMessage", roomID: roomID, messageID: messageID})
	return protocol.PinResult{Pinned: append(append([]string{}, f.pinned...), messageID)}, f.genericErr
}

func (f *fakeClient) UnpinMessage(ctx context.Context, roomID, messageID string, opts protocol.CallOptions) (protocol.PinResult, error) {
	f.record(clientCall{method: "UnpinMessage", roomID: roomID, messageID: messageID})
	return protocol.PinResult{Pinned: f.pinned}, f.genericErr
}

func (f *fakeClient) ListPins(ctx context.Context, roomID string, opts protocol.CallOptions) (protocol.PinList, error) {
	f.record(clientCall{method: "ListPins", roomID: roomID})
	return protocol.PinList{Pinned: f.pinned}, f.genericErr
}

func (f *fakeClient) MemberInfo(ctx context.Context, userID string, opts protocol.MemberInfoOptions) (protocol.MemberInfo, error) {
	f.record(clientCall{method: "MemberInfo", roomID: opts.RoomID, value: userID})
	return protocol.MemberInfo{UserID: userID, RoomID: opts.RoomID}, f.genericErr
}

func (f *fakeClient) RoomInfo(ctx context.Context, roomID string, opts protocol.CallOptions) (protocol.RoomInfo, error) {
	f.record(clientCall{method: "RoomInfo", roomID: roomID})
	return protocol.RoomInfo{RoomID: roomID, Name: "Ops"}, f.genericErr
}
