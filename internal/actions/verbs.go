package actions

import (
	"context"
	"strings"

	"github.com/3n8/openclaw-plugins/internal/params"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInteger
	kindBool
	kindStringList
	// kindCSV accepts a comma separated string or a list.
	kindCSV
)

// field declares one parameter of a verb. Values are looked up under sources
// in order and stored under name.
type field struct {
	name       string
	sources    []string
	kind       fieldKind
	required   bool
	allowEmpty bool
	noTrim     bool
}

func (f field) keys() []string {
	if len(f.sources) == 0 {
		return []string{f.name}
	}
	return f.sources
}

type handlerFunc func(r *Router, ctx context.Context, in args) (Result, error)

// descriptor binds a verb to its gate category, parameters and handler.
// advertise is the platform action name used for capability listing.
type descriptor struct {
	verb      string
	category  Category
	advertise string
	fields    []field
	handle    handlerFunc
}

var (
	roomField        = field{name: "roomId", sources: []string{"roomId", "channelId", "to"}, required: true}
	optionalRoom     = field{name: "roomId", sources: []string{"roomId", "channelId"}}
	accountField     = field{name: "accountId"}
	messageIDField   = field{name: "messageId", required: true}
	messageRefField  = field{name: "messageId", sources: []string{"target", "messageId", "message_id"}}
	limitField       = field{name: "limit", kind: kindInteger}
	contentBodyField = field{name: "content", required: true, noTrim: true}
)

var verbTable = []descriptor{
	{
		verb:      "sendMessage",
		category:  CategoryNone,
		advertise: "send",
		fields: []field{
			{name: "to", required: true},
			{name: "content", required: true, allowEmpty: true, noTrim: true},
			{name: "mediaUrl"},
			{name: "mediaLocalRoots", kind: kindStringList},
			{name: "replyToId", sources: []string{"replyToId", "replyTo"}},
			{name: "threadId"},
			accountField,
		},
		handle: (*Router).sendMessage,
	},
	{
		verb:      "react",
		category:  CategoryReactions,
		advertise: "react",
		fields: []field{
			roomField,
			messageRefField,
			{name: "emoji", allowEmpty: true},
			{name: "emojis", kind: kindCSV},
			{name: "remove", kind: kindBool},
			accountField,
		},
		handle: (*Router).react,
	},
	{
		verb:      "reactions",
		category:  CategoryReactions,
		advertise: "reactions",
		fields:    []field{roomField, messageRefField, limitField, accountField},
		handle:    (*Router).listReactions,
	},
	{
		verb:      "readMessages",
		category:  CategoryMessages,
		advertise: "read",
		fields: []field{
			roomField,
			limitField,
			{name: "before"},
			{name: "after"},
			accountField,
		},
		handle: (*Router).readMessages,
	},
	{
		verb:      "editMessage",
		category:  CategoryMessages,
		advertise: "edit",
		fields:    []field{roomField, messageIDField, contentBodyField, accountField},
		handle:    (*Router).editMessage,
	},
	{
		verb:      "deleteMessage",
		category:  CategoryMessages,
		advertise: "delete",
		fields:    []field{roomField, messageIDField, {name: "reason"}, accountField},
		handle:    (*Router).deleteMessage,
	},
	{
		verb:      "pinMessage",
		category:  CategoryPins,
		advertise: "pin",
		fields:    []field{roomField, messageIDField, accountField},
		handle:    (*Router).pinMessage,
	},
	{
		verb:      "unpinMessage",
		category:  CategoryPins,
		advertise: "unpin",
		fields:    []field{roomField, messageIDField, accountField},
		handle:    (*Router).unpinMessage,
	},
	{
		verb:      "listPins",
		category:  CategoryPins,
		advertise: "list-pins",
		fields:    []field{roomField, accountField},
		handle:    (*Router).listPins,
	},
	{
		verb:      "memberInfo",
		category:  CategoryMemberInfo,
		advertise: "member-info",
		fields:    []field{{name: "userId", required: true}, optionalRoom, accountField},
		handle:    (*Router).memberInfo,
	},
	{
		verb:      "channelInfo",
		category:  CategoryChannelInfo,
		advertise: "channel-info",
		fields:    []field{roomField, accountField},
		handle:    (*Router).channelInfo,
	},
}

// baseActions are advertised regardless of configuration.
var baseActions = []string{"send", "poll"}

// ListActions returns the platform action names available under cfg, base
// actions first, deduplicated, in a stable order.
func ListActions(cfg GateConfig) []string {
	gate := NewGate(cfg)
	seen := map[string]struct{}{}
	out := make([]string, 0, len(verbTable)+len(baseActions))
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, name := range baseActions {
		add(name)
	}
	for _, category := range Categories {
		if !gate.IsEnabled(category) {
			continue
		}
		for _, desc := range verbTable {
			if desc.category == category {
				add(desc.advertise)
			}
		}
	}
	return out
}

// VerbInfo describes a verb for help text and tool schemas.
type VerbInfo struct {
	Verb     string   `json:"verb"`
	Category Category `json:"category,omitempty"`
	Action   string   `json:"action"`
	Required []string `json:"required"`
	Optional []string `json:"optional"`
}

func Verbs() []VerbInfo {
	out := make([]VerbInfo, 0, len(verbTable))
	for _, desc := range verbTable {
		info := VerbInfo{
			Verb:     desc.verb,
			Category: desc.category,
			Action:   desc.advertise,
			Required: []string{},
			Optional: []string{},
		}
		for _, f := range desc.fields {
			label := strings.Join(f.keys(), "|")
			if f.required {
				info.Required = append(info.Required, label)
			} else {
				info.Optional = append(info.Optional, label)
			}
		}
		out = append(out, info)
	}
	return out
}

// CategoryOf returns the gate category for verb.
func CategoryOf(verb string) (Category, bool) {
	for _, desc := range verbTable {
		if desc.verb == verb {
			return desc.category, true
		}
	}
	return CategoryNone, false
}

type args map[string]any

func (a args) has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a args) str(name string) string {
	value, _ := a[name].(string)
	return value
}

func (a args) integer(name string) int {
	value, _ := a[name].(int)
	return value
}

func (a args) boolean(name string) bool {
	value, _ := a[name].(bool)
	return value
}

func (a args) list(name string) []string {
	value, _ := a[name].([]string)
	return value
}

// extract reads every declared field, failing on the first missing or
// malformed one. Nothing is sent to the protocol before this returns.
func extract(raw params.Params, fields []field) (args, error) {
	if raw == nil {
		raw = params.Params{}
	}
	out := args{}
	for _, f := range fields {
		switch f.kind {
		case kindString:
			value, ok, err := params.FirstString(raw, f.name, f.keys(), params.StringOptions{
				Required:   f.required,
				AllowEmpty: f.allowEmpty,
				NoTrim:     f.noTrim,
			})
			if err != nil {
				return nil, err
			}
			if ok {
				out[f.name] = value
			}
		case kindInteger:
			value, ok, err := params.ReadNumber(raw, f.name, params.NumberOptions{Required: f.required, Integer: true})
			if err != nil {
				return nil, err
			}
			if ok {
				if value < 0 {
					return nil, invalidField(f.name, "must not be negative")
				}
				out[f.name] = int(value)
			}
		case kindBool:
			value, ok, err := params.ReadBool(raw, f.name)
			if err != nil {
				return nil, err
			}
			if ok {
				out[f.name] = value
			}
		case kindStringList:
			value, ok, err := params.ReadStringList(raw, f.name)
			if err != nil {
				return nil, err
			}
			if ok {
				out[f.name] = value
			}
		case kindCSV:
			value, ok, err := readCSV(raw, f.name)
			if err != nil {
				return nil, err
			}
			if ok {
				out[f.name] = value
			}
		}
	}
	return out, nil
}

// readCSV reports ok for any non-blank input, even when splitting leaves
// nothing, so callers can tell "only separators" from "absent".
func readCSV(raw params.Params, key string) ([]string, bool, error) {
	if text, isString := raw[key].(string); isString {
		return params.SplitList(text), strings.TrimSpace(text) != "", nil
	}
	items, ok, err := params.ReadStringList(raw, key)
	if err != nil || !ok {
		return nil, false, err
	}
	return params.SplitList(strings.Join(items, ",")), len(items) > 0, nil
}
