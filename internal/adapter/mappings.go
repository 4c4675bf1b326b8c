package adapter

import (
	"github.com/3n8/openclaw-plugins/internal/config"
	"github.com/3n8/openclaw-plugins/internal/params"
)

type translateFunc func(in params.Params, m config.Matrix) (params.Params, error)

type mapping struct {
	verb      string
	translate translateFunc
}

var mappings = map[string]mapping{
	"send":         {verb: "sendMessage", translate: translateSend},
	"react":        {verb: "react", translate: translateReact},
	"reactions":    {verb: "reactions", translate: translateReactions},
	"read":         {verb: "readMessages", translate: translateRead},
	"edit":         {verb: "editMessage", translate: translateEdit},
	"delete":       {verb: "deleteMessage", translate: translateDelete},
	"pin":          {verb: "pinMessage", translate: translatePinTarget},
	"unpin":        {verb: "unpinMessage", translate: translatePinTarget},
	"list-pins":    {verb: "listPins", translate: roomOnly},
	"member-info":  {verb: "memberInfo", translate: translateMemberInfo},
	"channel-info": {verb: "channelInfo", translate: roomOnly},
}

// builder copies selected platform parameters into router parameters,
// stopping at the first error.
type builder struct {
	in  params.Params
	out params.Params
	err error
}

func newBuilder(in params.Params) *builder {
	b := &builder{in: in, out: params.Params{}}
	b.str("accountId", "accountId", params.StringOptions{})
	return b
}

func (b *builder) str(from, to string, opts params.StringOptions) *builder {
	if b.err != nil {
		return b
	}
	value, ok, err := params.ReadString(b.in, from, opts)
	if err != nil {
		b.err = err
		return b
	}
	if ok {
		b.out[to] = value
	}
	return b
}

// room resolves roomId, then channelId, then to.
func (b *builder) room() *builder {
	if b.err != nil {
		return b
	}
	value, _, err := params.FirstString(b.in, "roomId", []string{"roomId", "channelId", "to"}, params.StringOptions{Required: true})
	if err != nil {
		b.err = err
		return b
	}
	b.out["roomId"] = value
	return b
}

func (b *builder) integer(key string) *builder {
	if b.err != nil {
		return b
	}
	value, ok, err := params.ReadNumber(b.in, key, params.NumberOptions{Integer: true})
	if err != nil {
		b.err = err
		return b
	}
	if ok {
		b.out[key] = int(value)
	}
	return b
}

func (b *builder) passthrough(key string) *builder {
	if b.err != nil {
		return b
	}
	if value, ok := b.in[key]; ok && value != nil {
		b.out[key] = value
	}
	return b
}

func (b *builder) done() (params.Params, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.out, nil
}

func translateSend(in params.Params, m config.Matrix) (params.Params, error) {
	b := newBuilder(in).
		str("to", "to", params.StringOptions{Required: true}).
		str("message", "content", params.StringOptions{Required: true, AllowEmpty: true, NoTrim: true}).
		str("media", "mediaUrl", params.StringOptions{NoTrim: true}).
		str("replyTo", "replyToId", params.StringOptions{}).
		str("threadId", "threadId", params.StringOptions{})
	out, err := b.done()
	if err != nil {
		return nil, err
	}
	if len(m.MediaLocalRoots) > 0 {
		out["mediaLocalRoots"] = append([]string(nil), m.MediaLocalRoots...)
	}
	return out, nil
}

func translateReact(in params.Params, _ config.Matrix) (params.Params, error) {
	b := newBuilder(in).
		room().
		str("messageId", "messageId", params.StringOptions{}).
		str("emoji", "emoji", params.StringOptions{AllowEmpty: true}).
		passthrough("emojis")
	if value, ok := in["remove"].(bool); ok {
		b.out["remove"] = value
	}
	return b.done()
}

func translateReactions(in params.Params, _ config.Matrix) (params.Params, error) {
	return newBuilder(in).
		room().
		str("messageId", "messageId", params.StringOptions{}).
		integer("limit").
		done()
}

func translateRead(in params.Params, _ config.Matrix) (params.Params, error) {
	return newBuilder(in).
		room().
		integer("limit").
		str("before", "before", params.StringOptions{}).
		str("after", "after", params.StringOptions{}).
		done()
}

func translateEdit(in params.Params, _ config.Matrix) (params.Params, error) {
	return newBuilder(in).
		str("messageId", "messageId", params.StringOptions{Required: true}).
		str("message", "content", params.StringOptions{Required: true}).
		room().
		done()
}

func translateDelete(in params.Params, _ config.Matrix) (params.Params, error) {
	return newBuilder(in).
		str("messageId", "messageId", params.StringOptions{Required: true}).
		room().
		str("reason", "reason", params.StringOptions{}).
		done()
}

func translatePinTarget(in params.Params, _ config.Matrix) (params.Params, error) {
	return newBuilder(in).
		str("messageId", "messageId", params.StringOptions{Required: true}).
		room().
		done()
}

func translateMemberInfo(in params.Params, _ config.Matrix) (params.Params, error) {
	b := newBuilder(in).str("userId", "userId", params.StringOptions{Required: true})
	if b.err != nil {
		return nil, b.err
	}
	room, ok, err := params.FirstString(in, "roomId", []string{"roomId", "channelId"}, params.StringOptions{})
	if err != nil {
		return nil, err
	}
	if ok {
		b.out["roomId"] = room
	}
	return b.done()
}

func roomOnly(in params.Params, _ config.Matrix) (params.Params, error) {
	return newBuilder(in).room().done()
}
