// Package target turns a possibly missing or synthetic message reference into
// a concrete message id.
package target

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/protocol"
	"github.com/3n8/openclaw-plugins/internal/telemetry"
)

const DefaultFallbackLimit = 5

type Resolved struct {
	RoomID    string
	MessageID string
	// Fallback is true when the id came from the recent-message lookup.
	Fallback bool
}

// Resolver guesses at most once: when the reference is unusable it takes the
// newest message in the room. It never retries.
type Resolver struct {
	reader    protocol.MessageReader
	predicate Predicate
	tracer    telemetry.Tracer
	limit     int
}

func NewResolver(reader protocol.MessageReader, predicate Predicate, tracer telemetry.Tracer, limit int) *Resolver {
	if predicate == nil {
		predicate = DefaultPredicate()
	}
	if tracer == nil {
		tracer = telemetry.Nop()
	}
	if limit < 1 {
		limit = DefaultFallbackLimit
	}
	return &Resolver{
		reader:    reader,
		predicate: predicate,
		tracer:    tracer,
		limit:     limit,
	}
}

func (r *Resolver) Resolve(ctx context.Context, roomID, ref, accountID string) (Resolved, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return Resolved{}, &actionerr.MissingParameterError{Field: "roomId"}
	}
	ref = strings.TrimSpace(ref)
	if Usable(r.predicate, ref) {
		r.tracer.Emit(ctx, telemetry.EventTargetResolved,
			slog.String("room_id", roomID),
			slog.String("message_id", ref),
			slog.Bool("fallback", false),
		)
		return Resolved{RoomID: roomID, MessageID: ref}, nil
	}

	r.tracer.Emit(ctx, telemetry.EventTargetFallback,
		slog.String("room_id", roomID),
		slog.String("supplied", ref),
		slog.String("account_id", accountID),
		slog.Int("limit", r.limit),
	)
	if r.reader == nil {
		return Resolved{}, fmt.Errorf("target lookup unavailable: %w", &actionerr.TargetResolutionError{RoomID: roomID})
	}
	result, err := r.reader.ReadMessages(ctx, roomID, protocol.ReadOptions{
		Limit:     r.limit,
		AccountID: accountID,
	})
	if err != nil {
		return Resolved{}, err
	}
	for _, message := range result.Messages {
		messageID := strings.TrimSpace(message.EventID)
		if messageID == "" {
			continue
		}
		r.tracer.Emit(ctx, telemetry.EventTargetResolved,
			slog.String("room_id", roomID),
			slog.String("message_id", messageID),
			slog.Bool("fallback", true),
		)
		return Resolved{RoomID: roomID, MessageID: messageID, Fallback: true}, nil
	}
	return Resolved{}, &actionerr.TargetResolutionError{RoomID: roomID}
}
