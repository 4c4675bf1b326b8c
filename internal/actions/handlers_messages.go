package actions

import (
	"context"

	"github.com/3n8/openclaw-plugins/internal/protocol"
)

func (r *Router) sendMessage(ctx context.Context, in args) (Result, error) {
	result, err := r.client.SendMessage(ctx, in.str("to"), in.str("content"), protocol.SendOptions{
		MediaURL:        in.str("mediaUrl"),
		MediaLocalRoots: in.list("mediaLocalRoots"),
		ReplyToID:       in.str("replyToId"),
		ThreadID:        in.str("threadId"),
		AccountID:       in.str("accountId"),
	})
	if err != nil {
		return nil, err
	}
	return envelope(map[string]any{"result": result}), nil
}

func (r *Router) readMessages(ctx context.Context, in args) (Result, error) {
	result, err := r.client.ReadMessages(ctx, in.str("roomId"), protocol.ReadOptions{
		Limit:     in.integer("limit"),
		Before:    in.str("before"),
		After:     in.str("after"),
		AccountID: in.str("accountId"),
	})
	if err != nil {
		return nil, err
	}
	messages := result.Messages
	if messages == nil {
		messages = []protocol.MessageSummary{}
	}
	return envelope(map[string]any{
		"messages":  messages,
		"nextBatch": result.NextBatch,
		"prevBatch": result.PrevBatch,
	}), nil
}

// editMessage and deleteMessage take the messageId verbatim: guessing the
// newest message is not acceptable for mutations.
func (r *Router) editMessage(ctx context.Context, in args) (Result, error) {
	result, err := r.client.EditMessage(ctx, in.str("roomId"), in.str("messageId"), in.str("content"), callOptions(in))
	if err != nil {
		return nil, err
	}
	return envelope(map[string]any{"result": result}), nil
}

func (r *Router) deleteMessage(ctx context.Context, in args) (Result, error) {
	err := r.client.DeleteMessage(ctx, in.str("roomId"), in.str("messageId"), protocol.DeleteOptions{
		Reason:    in.str("reason"),
		AccountID: in.str("accountId"),
	})
	if err != nil {
		return nil, err
	}
	return envelope(map[string]any{"deleted": true}), nil
}
