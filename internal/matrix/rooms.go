package matrix

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/3n8/openclaw-plugins/internal/protocol"
)

func (c *Client) PinMessage(ctx context.Context, roomID, messageID string, opts protocol.CallOptions) (protocol.PinResult, error) {
	return c.updatePins(ctx, roomID, opts.AccountID, func(pinned []id.EventID) []id.EventID {
		target := id.EventID(messageID)
		if slices.Contains(pinned, target) {
			return pinned
		}
		return append(pinned, target)
	})
}

func (c *Client) UnpinMessage(ctx context.Context, roomID, messageID string, opts protocol.CallOptions) (protocol.PinResult, error) {
	return c.updatePins(ctx, roomID, opts.AccountID, func(pinned []id.EventID) []id.EventID {
		target := id.EventID(messageID)
		return slices.DeleteFunc(pinned, func(existing id.EventID) bool { return existing == target })
	})
}

func (c *Client) updatePins(ctx context.Context, roomID, accountID string, update func([]id.EventID) []id.EventID) (protocol.PinResult, error) {
	cli, _, err := c.pool.Client(accountID)
	if err != nil {
		return protocol.PinResult{}, err
	}
	room, err := resolveRoom(ctx, cli, roomID)
	if err != nil {
		return protocol.PinResult{}, err
	}
	current, err := pinnedEvents(ctx, cli, room)
	if err != nil {
		return protocol.PinResult{}, err
	}
	next := update(slices.Clone(current))
	if _, err := cli.SendStateEvent(ctx, room, event.StatePinnedEvents, "", &event.PinnedEventsEventContent{Pinned: next}); err != nil {
		return protocol.PinResult{}, fmt.Errorf("update pinned events: %w", err)
	}
	return protocol.PinResult{Pinned: eventIDStrings(next)}, nil
}

// ListPins returns pinned ids and summaries of the events that could still
// be fetched.
func (c *Client) ListPins(ctx context.Context, roomID string, opts protocol.CallOptions) (protocol.PinList, error) {
	cli, _, err := c.pool.Client(opts.AccountID)
	if err != nil {
		return protocol.PinList{}, err
	}
	room, err := resolveRoom(ctx, cli, roomID)
	if err != nil {
		return protocol.PinList{}, err
	}
	pinned, err := pinnedEvents(ctx, cli, room)
	if err != nil {
		return protocol.PinList{}, err
	}
	events := make([]protocol.MessageSummary, 0, len(pinned))
	for _, eventID := range pinned {
		evt, err := cli.GetEvent(ctx, room, eventID)
		if err != nil {
			c.logger.Debug("pinned event unavailable", "room_id", room, "event_id", eventID, "error", err)
			continue
		}
		if summary, ok := summarize(evt); ok {
			events = append(events, summary)
		}
	}
	return protocol.PinList{Pinned: eventIDStrings(pinned), Events: events}, nil
}

func pinnedEvents(ctx context.Context, cli *mautrix.Client, room id.RoomID) ([]id.EventID, error) {
	var content event.PinnedEventsEventContent
	if err := cli.StateEvent(ctx, room, event.StatePinnedEvents, "", &content); err != nil {
		if errors.Is(err, mautrix.MNotFound) {
			return []id.EventID{}, nil
		}
		return nil, fmt.Errorf("load pinned events: %w", err)
	}
	return content.Pinned, nil
}

func (c *Client) MemberInfo(ctx context.Context, userID string, opts protocol.MemberInfoOptions) (protocol.MemberInfo, error) {
	cli, _, err := c.pool.Client(opts.AccountID)
	if err != nil {
		return protocol.MemberInfo{}, err
	}
	user := id.UserID(strings.TrimSpace(strings.TrimPrefix(normalizeTarget(userID), "user:")))
	profile, err := cli.GetProfile(ctx, user)
	if err != nil {
		return protocol.MemberInfo{}, fmt.Errorf("load profile: %w", err)
	}
	info := protocol.MemberInfo{
		UserID:      string(user),
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL.String(),
	}
	if strings.TrimSpace(opts.RoomID) == "" {
		return info, nil
	}
	room, err := resolveRoom(ctx, cli, opts.RoomID)
	if err != nil {
		return protocol.MemberInfo{}, err
	}
	info.RoomID = string(room)
	var member event.MemberEventContent
	if err := cli.StateEvent(ctx, room, event.StateMember, string(user), &member); err != nil {
		if !errors.Is(err, mautrix.MNotFound) {
			return protocol.MemberInfo{}, fmt.Errorf("load membership: %w", err)
		}
		return info, nil
	}
	info.Membership = string(member.Membership)
	if member.Displayname != "" {
		info.DisplayName = member.Displayname
	}
	return info, nil
}

func (c *Client) RoomInfo(ctx context.Context, roomID string, opts protocol.CallOptions) (protocol.RoomInfo, error) {
	cli, _, err := c.pool.Client(opts.AccountID)
	if err != nil {
		return protocol.RoomInfo{}, err
	}
	room, err := resolveRoom(ctx, cli, roomID)
	if err != nil {
		return protocol.RoomInfo{}, err
	}
	info := protocol.RoomInfo{RoomID: string(room)}

	var name event.RoomNameEventContent
	if err := optionalState(ctx, cli, room, event.StateRoomName, &name); err != nil {
		return protocol.RoomInfo{}, err
	}
	info.Name = name.Name

	var topic event.TopicEventContent
	if err := optionalState(ctx, cli, room, event.StateTopic, &topic); err != nil {
		return protocol.RoomInfo{}, err
	}
	info.Topic = topic.Topic

	var alias event.CanonicalAliasEventContent
	if err := optionalState(ctx, cli, room, event.StateCanonicalAlias, &alias); err != nil {
		return protocol.RoomInfo{}, err
	}
	info.CanonicalAlias = string(alias.Alias)
	for _, alt := range alias.AltAliases {
		info.AltAliases = append(info.AltAliases, string(alt))
	}

	members, err := cli.JoinedMembers(ctx, room)
	if err != nil {
		return protocol.RoomInfo{}, fmt.Errorf("load members: %w", err)
	}
	info.MemberCount = len(members.Joined)
	return info, nil
}

func optionalState(ctx context.Context, cli *mautrix.Client, room id.RoomID, eventType event.Type, out any) error {
	if err := cli.StateEvent(ctx, room, eventType, "", out); err != nil && !errors.Is(err, mautrix.MNotFound) {
		return fmt.Errorf("load %s: %w", eventType.Type, err)
	}
	return nil
}

func eventIDStrings(ids []id.EventID) []string {
	out := make([]string, 0, len(ids))
	for _, eventID := range ids {
		out = append(out, string(eventID))
	}
	return out
}
