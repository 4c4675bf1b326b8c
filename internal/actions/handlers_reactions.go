package actions

import (
	"context"
	"log/slog"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/params"
	"github.com/3n8/openclaw-plugins/internal/protocol"
	"github.com/3n8/openclaw-plugins/internal/telemetry"
)

// reactionSet returns the normalized emoji list. emojis wins over emoji when
// both are present. An empty list means removal, unless emojis were supplied
// and all of them were blank.
func reactionSet(in args) ([]string, error) {
	var emojis []string
	supplied := false
	switch {
	case in.has("emojis"):
		emojis = in.list("emojis")
		supplied = true
	case in.has("emoji"):
		emojis = params.SplitList(in.str("emoji"))
		supplied = in.str("emoji") != ""
	case !in.has("remove"):
		return nil, &actionerr.MissingParameterError{Field: "emoji"}
	}
	if supplied && len(emojis) == 0 && !in.boolean("remove") {
		return nil, &actionerr.MissingParameterError{Field: "emoji"}
	}
	return emojis, nil
}

func (r *Router) react(ctx context.Context, in args) (Result, error) {
	emojis, err := reactionSet(in)
	if err != nil {
		return nil, err
	}
	resolved, err := r.resolver.Resolve(ctx, in.str("roomId"), in.str("messageId"), in.str("accountId"))
	if err != nil {
		return nil, err
	}

	if in.boolean("remove") || len(emojis) == 0 {
		removed, err := r.client.RemoveReactions(ctx, resolved.RoomID, resolved.MessageID, protocol.RemoveReactionsOptions{
			Emojis:    emojis,
			AccountID: in.str("accountId"),
		})
		if err != nil {
			return nil, err
		}
		r.tracer.Emit(ctx, telemetry.EventReactionsRemoved,
			slog.String("verb", "react"),
			slog.String("room_id", resolved.RoomID),
			slog.String("message_id", resolved.MessageID),
			slog.Int("removed", removed),
		)
		return envelope(map[string]any{"removed": removed}), nil
	}

	added := make([]string, 0, len(emojis))
	for _, emoji := range emojis {
		if err := r.client.React(ctx, resolved.RoomID, resolved.MessageID, emoji, callOptions(in)); err != nil {
			return nil, &actionerr.ReactionError{Added: added, Emoji: emoji, Err: err}
		}
		added = append(added, emoji)
		r.tracer.Emit(ctx, telemetry.EventReactionAdded,
			slog.String("verb", "react"),
			slog.String("room_id", resolved.RoomID),
			slog.String("message_id", resolved.MessageID),
			slog.String("emoji", emoji),
		)
	}
	return envelope(map[string]any{"added": added}), nil
}

func (r *Router) listReactions(ctx context.Context, in args) (Result, error) {
	resolved, err := r.resolver.Resolve(ctx, in.str("roomId"), in.str("messageId"), in.str("accountId"))
	if err != nil {
		return nil, err
	}
	reactions, err := r.client.ListReactions(ctx, resolved.RoomID, resolved.MessageID, protocol.ListReactionsOptions{
		Limit:     in.integer("limit"),
		AccountID: in.str("accountId"),
	})
	if err != nil {
		return nil, err
	}
	if reactions == nil {
		reactions = []protocol.ReactionSummary{}
	}
	return envelope(map[string]any{"reactions": reactions}), nil
}
