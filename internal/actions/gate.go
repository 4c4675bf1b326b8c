package actions

import "strings"

type Category string

const (
	CategoryNone        Category = ""
	CategoryMessages    Category = "messages"
	CategoryReactions   Category = "reactions"
	CategoryPins        Category = "pins"
	CategoryMemberInfo  Category = "memberInfo"
	CategoryChannelInfo Category = "channelInfo"
)

// Categories lists the gated categories in advertising order.
var Categories = []Category{
	CategoryReactions,
	CategoryMessages,
	CategoryPins,
	CategoryMemberInfo,
	CategoryChannelInfo,
}

// GateConfig is the channels.matrix.actions mapping. A nil value and a
// missing key both mean "not configured".
type GateConfig map[string]*bool

// Gate answers whether a category may be used. The policy is opt-out: a
// category is enabled unless the configuration sets it to false, so newly
// added categories are live until someone turns them off.
type Gate struct {
	disabled map[Category]struct{}
}

func NewGate(cfg GateConfig) Gate {
	disabled := map[Category]struct{}{}
	for key, value := range cfg {
		if value == nil || *value {
			continue
		}
		disabled[Category(strings.TrimSpace(key))] = struct{}{}
	}
	return Gate{disabled: disabled}
}

func (g Gate) IsEnabled(category Category) bool {
	if category == CategoryNone {
		return true
	}
	_, off := g.disabled[category]
	return !off
}

// Bool is a convenience for building GateConfig literals.
func Bool(value bool) *bool {
	return &value
}
