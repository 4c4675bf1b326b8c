package actions

import (
	"context"

	"github.com/3n8/openclaw-plugins/internal/protocol"
)

func pinnedOrEmpty(pinned []string) []string {
	if pinned == nil {
		return []string{}
	}
	return pinned
}

func (r *Router) pinMessage(ctx context.Context, in args) (Result, error) {
	result, err := r.client.PinMessage(ctx, in.str("roomId"), in.str("messageId"), callOptions(in))
	if err != nil {
		return nil, err
	}
	return envelope(map[string]any{"pinned": pinnedOrEmpty(result.Pinned)}), nil
}

func (r *Router) unpinMessage(ctx context.Context, in args) (Result, error) {
	result, err := r.client.UnpinMessage(ctx, in.str("roomId"), in.str("messageId"), callOptions(in))
	if err != nil {
		return nil, err
	}
	return envelope(map[string]any{"pinned": pinnedOrEmpty(result.Pinned)}), nil
}

func (r *Router) listPins(ctx context.Context, in args) (Result, error) {
	result, err := r.client.ListPins(ctx, in.str("roomId"), callOptions(in))
	if err != nil {
		return nil, err
	}
	events := result.Events
	if events == nil {
		events = []protocol.MessageSummary{}
	}
	return envelope(map[string]any{
		"pinned": pinnedOrEmpty(result.Pinned),
		"events": events,
	}), nil
}

func (r *Router) memberInfo(ctx context.Context, in args) (Result, error) {
	member, err := r.client.MemberInfo(ctx, in.str("userId"), protocol.MemberInfoOptions{
		RoomID:    in.str("roomId"),
		AccountID: in.str("accountId"),
	})
	if err != nil {
		return nil, err
	}
	return envelope(map[string]any{"member": member}), nil
}

func (r *Router) channelInfo(ctx context.Context, in args) (Result, error) {
	room, err := r.client.RoomInfo(ctx, in.str("roomId"), callOptions(in))
	if err != nil {
		return nil, err
	}
	return envelope(map[string]any{"room": room}), nil
}
