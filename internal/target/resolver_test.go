package target

import (
	"context"
	"errors"
	"testing"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/protocol"
	"github.com/3n8/openclaw-plugins/internal/telemetry"
)

type fakeReader struct {
	calls    []protocol.ReadOptions
	rooms    []string
	messages []protocol.MessageSummary
	err      error
}

func (f *fakeReader) ReadMessages(ctx context.Context, roomID string, opts protocol.ReadOptions) (protocol.ReadResult, error) {
	f.calls = append(f.calls, opts)
	f.rooms = append(f.rooms, roomID)
	if f.err != nil {
		return protocol.ReadResult{}, f.err
	}
	return protocol.ReadResult{Messages: f.messages}, nil
}

func TestPlaceholderReferencesTriggerFallback(t *testing.T) {
	refs := []string{"", "   ", "$INPUT-xyz", "$LATEST-1", "Queued-42", "$LA:abc", "$nomatch"}
	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			reader := &fakeReader{messages: []protocol.MessageSummary{{EventID: "$newest:example.org"}}}
			resolved, err := NewResolver(reader, nil, nil, 0).Resolve(context.Background(), "!room:example.org", ref, "ops")
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if len(reader.calls) != 1 {
				t.Fatalf("expected one fallback lookup, got %d", len(reader.calls))
			}
			if reader.calls[0].Limit != DefaultFallbackLimit || reader.calls[0].AccountID != "ops" {
				t.Fatalf("unexpected lookup options: %+v", reader.calls[0])
			}
			if resolved.MessageID != "$newest:example.org" || !resolved.Fallback {
				t.Fatalf("unexpected resolution: %+v", resolved)
			}
		})
	}
}

func TestRealReferenceSkipsLookup(t *testing.T) {
	reader := &fakeReader{}
	resolved, err := NewResolver(reader, nil, nil, 0).Resolve(context.Background(), "!room:nettsi.example", "$real:nettsi.example", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(reader.calls) != 0 {
		t.Fatalf("expected no lookup, got %d", len(reader.calls))
	}
	if resolved.MessageID != "$real:nettsi.example" || resolved.Fallback {
		t.Fatalf("unexpected resolution: %+v", resolved)
	}
}

func TestFallbackSelectsFirstMessage(t *testing.T) {
	reader := &fakeReader{messages: []protocol.MessageSummary{
		{EventID: "$third:example"},
		{EventID: "$second:example"},
		{EventID: "$first:example"},
	}}
	recorder := &telemetry.Recorder{}
	resolved, err := NewResolver(reader, nil, recorder, 3).Resolve(context.Background(), "!room:example", "", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.MessageID != "$third:example" {
		t.Fatalf("expected newest message, got %s", resolved.MessageID)
	}
	if reader.calls[0].Limit != 3 {
		t.Fatalf("expected configured limit, got %d", reader.calls[0].Limit)
	}
	if len(recorder.Named(telemetry.EventTargetFallback)) != 1 {
		t.Fatalf("expected fallback event, got %+v", recorder.Events())
	}
}

func TestFallbackWithoutMessagesFails(t *testing.T) {
	reader := &fakeReader{}
	_, err := NewResolver(reader, nil, nil, 0).Resolve(context.Background(), "!room:example", "$LATEST", "")
	var resolutionErr *actionerr.TargetResolutionError
	if !errors.As(err, &resolutionErr) {
		t.Fatalf("expected target resolution error, got %v", err)
	}
	if !errors.Is(err, actionerr.ErrTargetResolution) {
		t.Fatalf("expected sentinel match, got %v", err)
	}
}

func TestFallbackPropagatesReaderError(t *testing.T) {
	boom := errors.New("homeserver unavailable")
	reader := &fakeReader{err: boom}
	_, err := NewResolver(reader, nil, nil, 0).Resolve(context.Background(), "!room:example", "", "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected reader error unchanged, got %v", err)
	}
	if len(reader.calls) != 1 {
		t.Fatalf("expected exactly one lookup, got %d", len(reader.calls))
	}
}

func TestCustomPredicate(t *testing.T) {
	predicate := PrefixPredicate{Prefixes: []string{"bridge-"}}
	if !predicate.IsPlaceholder("bridge-123") {
		t.Fatalf("expected configured prefix to match")
	}
	if predicate.IsPlaceholder("$abcdef") {
		t.Fatalf("expected sigil rule disabled without Sigil")
	}
	reader := &fakeReader{messages: []protocol.MessageSummary{{EventID: "$x:example"}}}
	resolver := NewResolver(reader, PredicateFunc(func(ref string) bool { return ref == "?" }), nil, 0)
	if _, err := resolver.Resolve(context.Background(), "!room:example", "$nomatch", ""); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(reader.calls) != 0 {
		t.Fatalf("expected custom predicate to accept the reference")
	}
}

func TestResolveRequiresRoom(t *testing.T) {
	_, err := NewResolver(&fakeReader{}, nil, nil, 0).Resolve(context.Background(), " ", "$x:example", "")
	if !errors.Is(err, actionerr.ErrMissingParameter) {
		t.Fatalf("expected missing roomId, got %v", err)
	}
}
