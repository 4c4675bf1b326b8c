package actions

import (
	"reflect"
	"testing"
)

func TestListActionsDefaultsToEverything(t *testing.T) {
	got := ListActions(nil)
	want := []string{"send", "poll", "react", "reactions", "read", "edit", "delete", "pin", "unpin", "list-pins", "member-info", "channel-info"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestListActionsHonorsExplicitFalseOnly(t *testing.T) {
	cases := []struct {
		name    string
		cfg     GateConfig
		absent  []string
		present []string
	}{
		{
			name:    "reactions off",
			cfg:     GateConfig{"reactions": Bool(false)},
			absent:  []string{"react", "reactions"},
			present: []string{"send", "poll", "read", "pin"},
		},
		{
			name:    "explicit true and nil",
			cfg:     GateConfig{"messages": Bool(true), "pins": nil},
			present: []string{"read", "edit", "delete", "pin", "unpin", "list-pins"},
		},
		{
			name:    "everything off",
			cfg:     GateConfig{"reactions": Bool(false), "messages": Bool(false), "pins": Bool(false), "memberInfo": Bool(false), "channelInfo": Bool(false)},
			absent:  []string{"react", "reactions", "read", "edit", "delete", "pin", "unpin", "list-pins", "member-info", "channel-info"},
			present: []string{"send", "poll"},
		},
		{
			name:    "unknown keys ignored",
			cfg:     GateConfig{"polls": Bool(false)},
			present: []string{"send", "poll", "channel-info"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			listed := map[string]bool{}
			for _, action := range ListActions(tc.cfg) {
				if listed[action] {
					t.Fatalf("duplicate action %q", action)
				}
				listed[action] = true
			}
			for _, action := range tc.present {
				if !listed[action] {
					t.Fatalf("expected %q to be listed", action)
				}
			}
			for _, action := range tc.absent {
				if listed[action] {
					t.Fatalf("expected %q to be hidden", action)
				}
			}
		})
	}
}

func TestGateNoneCategoryAlwaysEnabled(t *testing.T) {
	gate := NewGate(GateConfig{"": Bool(false)})
	if !gate.IsEnabled(CategoryNone) {
		t.Fatalf("ungated verbs must stay enabled")
	}
}

func TestVerbsDescribeEveryDescriptor(t *testing.T) {
	infos := Verbs()
	if len(infos) != len(verbTable) {
		t.Fatalf("expected %d verbs, got %d", len(verbTable), len(infos))
	}
	if infos[0].Verb != "sendMessage" || !reflect.DeepEqual(infos[0].Required, []string{"to", "content"}) {
		t.Fatalf("unexpected first verb: %+v", infos[0])
	}
	category, ok := CategoryOf("listPins")
	if !ok || category != CategoryPins {
		t.Fatalf("expected pins category, got %q (%v)", category, ok)
	}
}
