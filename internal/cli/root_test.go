package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
	"github.com/3n8/openclaw-plugins/internal/adminclient"
)

func TestRootRegistersCommands(t *testing.T) {
	root := NewRoot(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, name := range []string{"serve", "mcp", "dispatch", "handle", "actions", "audit", "version"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == nil || cmd.Name() != name {
			t.Fatalf("expected %s command, got %v (%v)", name, cmd, err)
		}
	}
	dispatch, _, _ := root.Find([]string{"dispatch"})
	for _, flag := range []string{"param", "params-json", "remote", "timeout-sec"} {
		if dispatch.Flags().Lookup(flag) == nil {
			t.Fatalf("dispatch is missing --%s", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	root := NewRoot(slog.New(slog.NewTextHandler(io.Discard, nil)))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestBuildParamsMergesPairsOverJSON(t *testing.T) {
	raw, err := buildParams(`{"roomId":"!a:example.org","limit":5}`, []string{
		"limit=10",
		"message=hello world",
		"emojis=[\"👍\",\"🎉\"]",
		"remove=true",
		"empty=",
	})
	if err != nil {
		t.Fatalf("build params: %v", err)
	}
	if raw["roomId"] != "!a:example.org" || raw["message"] != "hello world" || raw["empty"] != "" {
		t.Fatalf("unexpected params: %+v", raw)
	}
	if limit, ok := raw["limit"].(json.Number); !ok || limit.String() != "10" {
		t.Fatalf("expected limit pair to win as a number, got %#v", raw["limit"])
	}
	if remove, ok := raw["remove"].(bool); !ok || !remove {
		t.Fatalf("expected boolean remove, got %#v", raw["remove"])
	}
	if emojis, ok := raw["emojis"].([]any); !ok || len(emojis) != 2 {
		t.Fatalf("expected emoji list, got %#v", raw["emojis"])
	}
}

func TestBuildParamsRejectsMalformedInput(t *testing.T) {
	if _, err := buildParams("", []string{"no-equals"}); err == nil {
		t.Fatal("expected error for pair without '='")
	}
	if _, err := buildParams("", []string{"=value"}); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := buildParams("[1,2]", nil); err == nil {
		t.Fatal("expected error for non-object params json")
	}
}

func TestParamValueKeepsPlainStrings(t *testing.T) {
	cases := map[string]any{
		"!room:example.org": "!room:example.org",
		"null":              "null",
		"12 apples":         "12 apples",
		`"quoted"`:          "quoted",
	}
	for input, want := range cases {
		if got := paramValue(input); got != want {
			t.Fatalf("paramValue(%q): expected %#v, got %#v", input, want, got)
		}
	}
}

func TestWriteErrorCarriesKindAndAdded(t *testing.T) {
	var out bytes.Buffer
	err := &actionerr.ReactionError{Emoji: "🎉", Added: []string{"👍"}, Err: errors.New("rate limited")}
	writeError(&out, err)

	var body map[string]any
	if decodeErr := json.Unmarshal(out.Bytes(), &body); decodeErr != nil {
		t.Fatalf("decode: %v", decodeErr)
	}
	if body["kind"] != actionerr.KindProtocol {
		t.Fatalf("expected protocol kind, got %+v", body)
	}
	added, _ := body["added"].([]any)
	if len(added) != 1 || added[0] != "👍" {
		t.Fatalf("expected added emoji, got %+v", body)
	}

	out.Reset()
	writeError(&out, fmt.Errorf("remote: %w", &adminclient.APIError{Status: 403, Message: "pins are disabled", Kind: actionerr.KindActionDisabled}))
	if !strings.Contains(out.String(), `"kind": "action_disabled"`) || !strings.Contains(out.String(), `"error": "pins are disabled"`) {
		t.Fatalf("unexpected api error output: %s", out.String())
	}
}

func TestCommandTimeoutBounds(t *testing.T) {
	if commandTimeout(0).Seconds() != 60 || commandTimeout(9999).Seconds() != 600 || commandTimeout(5).Seconds() != 5 {
		t.Fatal("unexpected timeout bounds")
	}
}
