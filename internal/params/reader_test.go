package params

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
)

func TestReadStringRequiredAndEmptyRules(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		opts    StringOptions
		want    string
		wantOK  bool
		wantErr error
	}{
		{name: "missing optional", params: Params{}, wantOK: false},
		{name: "missing required", params: Params{}, opts: StringOptions{Required: true}, wantErr: actionerr.ErrMissingParameter},
		{name: "blank required", params: Params{"key": "   "}, opts: StringOptions{Required: true}, wantErr: actionerr.ErrMissingParameter},
		{name: "blank optional", params: Params{"key": "  "}, wantOK: false},
		{name: "trimmed by default", params: Params{"key": "  hi  "}, want: "hi", wantOK: true},
		{name: "no trim keeps whitespace", params: Params{"key": "  hi  "}, opts: StringOptions{NoTrim: true}, want: "  hi  ", wantOK: true},
		{name: "no trim still rejects blank", params: Params{"key": " \n "}, opts: StringOptions{Required: true, NoTrim: true}, wantErr: actionerr.ErrMissingParameter},
		{name: "allow empty", params: Params{"key": ""}, opts: StringOptions{Required: true, AllowEmpty: true}, want: "", wantOK: true},
		{name: "null is missing", params: Params{"key": nil}, opts: StringOptions{Required: true}, wantErr: actionerr.ErrMissingParameter},
		{name: "number formatted", params: Params{"key": float64(42)}, want: "42", wantOK: true},
		{name: "bool rejected", params: Params{"key": true}, wantErr: actionerr.ErrInvalidParameter},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := ReadString(tc.params, "key", tc.opts)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("expected (%q,%v), got (%q,%v)", tc.want, tc.wantOK, got, ok)
			}
		})
	}
}

func TestReadStringMissingNamesField(t *testing.T) {
	_, _, err := ReadString(Params{}, "content", StringOptions{Required: true})
	var missing *actionerr.MissingParameterError
	if !errors.As(err, &missing) || missing.Field != "content" {
		t.Fatalf("expected missing content error, got %v", err)
	}
}

func TestFirstStringFollowsKeyOrder(t *testing.T) {
	p := Params{"channelId": "!chan:example", "to": "!to:example"}
	got, ok, err := FirstString(p, "roomId", []string{"roomId", "channelId", "to"}, StringOptions{Required: true})
	if err != nil || !ok || got != "!chan:example" {
		t.Fatalf("unexpected result %q %v %v", got, ok, err)
	}

	_, _, err = FirstString(Params{"roomId": " "}, "roomId", []string{"roomId", "channelId", "to"}, StringOptions{Required: true})
	var missing *actionerr.MissingParameterError
	if !errors.As(err, &missing) || missing.Field != "roomId" {
		t.Fatalf("expected missing roomId, got %v", err)
	}
}

func TestReadNumber(t *testing.T) {
	value, ok, err := ReadNumber(Params{"limit": "10"}, "limit", NumberOptions{Integer: true})
	if err != nil || !ok || value != 10 {
		t.Fatalf("unexpected result %v %v %v", value, ok, err)
	}
	if _, _, err := ReadNumber(Params{"limit": "ten"}, "limit", NumberOptions{}); !errors.Is(err, actionerr.ErrInvalidParameter) {
		t.Fatalf("expected invalid parameter, got %v", err)
	}
	if _, _, err := ReadNumber(Params{"limit": 2.5}, "limit", NumberOptions{Integer: true}); !errors.Is(err, actionerr.ErrInvalidParameter) {
		t.Fatalf("expected invalid integer, got %v", err)
	}
	for _, raw := range []any{"1e20", float64(1e20), json.Number("-3000000000")} {
		if _, _, err := ReadNumber(Params{"limit": raw}, "limit", NumberOptions{Integer: true}); !errors.Is(err, actionerr.ErrInvalidParameter) {
			t.Fatalf("limit %v: expected out of range error, got %v", raw, err)
		}
	}
	if value, _, err := ReadNumber(Params{"limit": json.Number("2147483647")}, "limit", NumberOptions{Integer: true}); err != nil || value != MaxInteger {
		t.Fatalf("expected max integer accepted, got %v %v", value, err)
	}
	if _, ok, err := ReadNumber(Params{}, "limit", NumberOptions{}); ok || err != nil {
		t.Fatalf("expected absent optional number, got ok=%v err=%v", ok, err)
	}
	if _, _, err := ReadNumber(Params{}, "limit", NumberOptions{Required: true}); !errors.Is(err, actionerr.ErrMissingParameter) {
		t.Fatalf("expected missing parameter, got %v", err)
	}
}

func TestReadBool(t *testing.T) {
	for raw, want := range map[any]bool{true: true, "true": true, "0": false, float64(1): true, json.Number("1"): true, json.Number("0"): false} {
		got, ok, err := ReadBool(Params{"remove": raw}, "remove")
		if err != nil || !ok || got != want {
			t.Fatalf("raw %v: got %v ok=%v err=%v", raw, got, ok, err)
		}
	}
	for _, raw := range []any{"maybe", json.Number("x")} {
		if _, _, err := ReadBool(Params{"remove": raw}, "remove"); !errors.Is(err, actionerr.ErrInvalidParameter) {
			t.Fatalf("raw %v: expected invalid bool, got %v", raw, err)
		}
	}
}

func TestReadStringList(t *testing.T) {
	got, ok, err := ReadStringList(Params{"roots": `["/a","/b"]`}, "roots")
	if err != nil || !ok || !reflect.DeepEqual(got, []string{"/a", "/b"}) {
		t.Fatalf("unexpected list %v %v %v", got, ok, err)
	}
	got, ok, err = ReadStringList(Params{"roots": []any{"/c"}}, "roots")
	if err != nil || !ok || !reflect.DeepEqual(got, []string{"/c"}) {
		t.Fatalf("unexpected native list %v %v %v", got, ok, err)
	}
	if _, _, err := ReadStringList(Params{"roots": "not json"}, "roots"); !errors.Is(err, actionerr.ErrInvalidParameter) {
		t.Fatalf("expected invalid list, got %v", err)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" 👍 ,, 🎉 ,")
	if !reflect.DeepEqual(got, []string{"👍", "🎉"}) {
		t.Fatalf("unexpected split %v", got)
	}
}
