package matrix

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/3n8/openclaw-plugins/internal/actionerr"
)

var targetPrefixes = []string{"matrix:", "room:", "channel:"}

// normalizeTarget strips routing prefixes such as "matrix:room:" from a
// target. A "user:" prefix is kept so callers can tell users from rooms.
func normalizeTarget(raw string) string {
	value := strings.TrimSpace(raw)
	for {
		lower := strings.ToLower(value)
		stripped := false
		for _, prefix := range targetPrefixes {
			if strings.HasPrefix(lower, prefix) {
				value = strings.TrimSpace(value[len(prefix):])
				stripped = true
				break
			}
		}
		if !stripped {
			return value
		}
	}
}

// userTarget reports whether target names a user, returning the user id.
func userTarget(target string) (id.UserID, bool) {
	if strings.HasPrefix(strings.ToLower(target), "user:") {
		return id.UserID(strings.TrimSpace(target[len("user:"):])), true
	}
	if strings.HasPrefix(target, "@") {
		return id.UserID(target), true
	}
	return "", false
}

// resolveRoom turns a room id or alias into a room id. User targets are
// rejected; only sends may open a direct room.
func resolveRoom(ctx context.Context, cli *mautrix.Client, raw string) (id.RoomID, error) {
	target := normalizeTarget(raw)
	if target == "" {
		return "", &actionerr.MissingParameterError{Field: "roomId"}
	}
	if _, isUser := userTarget(target); isUser {
		return "", &actionerr.InvalidParameterError{Field: "roomId", Reason: "expected a room id or alias, got a user"}
	}
	if strings.HasPrefix(target, "#") {
		resp, err := cli.ResolveAlias(ctx, id.RoomAlias(target))
		if err != nil {
			return "", fmt.Errorf("resolve alias %s: %w", target, err)
		}
		return resp.RoomID, nil
	}
	return id.RoomID(target), nil
}

// resolveSendTarget also accepts users, sending to an existing direct room
// or creating one.
func (c *Client) resolveSendTarget(ctx context.Context, cli *mautrix.Client, raw string) (id.RoomID, error) {
	target := normalizeTarget(raw)
	user, isUser := userTarget(target)
	if !isUser {
		return resolveRoom(ctx, cli, raw)
	}
	if user == "" {
		return "", &actionerr.InvalidParameterError{Field: "to", Reason: "empty user target"}
	}
	return c.directRoom(ctx, cli, user)
}

func (c *Client) directRoom(ctx context.Context, cli *mautrix.Client, user id.UserID) (id.RoomID, error) {
	direct := event.DirectChatsEventContent{}
	if err := cli.GetAccountData(ctx, event.AccountDataDirectChats.Type, &direct); err != nil && !errors.Is(err, mautrix.MNotFound) {
		return "", fmt.Errorf("load direct rooms: %w", err)
	}
	if rooms := direct[user]; len(rooms) > 0 {
		return rooms[0], nil
	}

	created, err := cli.CreateRoom(ctx, &mautrix.ReqCreateRoom{
		Invite:   []id.UserID{user},
		IsDirect: true,
		Preset:   "trusted_private_chat",
	})
	if err != nil {
		return "", fmt.Errorf("create direct room with %s: %w", user, err)
	}
	if direct == nil {
		direct = event.DirectChatsEventContent{}
	}
	direct[user] = append(direct[user], created.RoomID)
	if err := cli.SetAccountData(ctx, event.AccountDataDirectChats.Type, direct); err != nil {
		c.logger.Warn("direct room created but not recorded", "user_id", user, "room_id", created.RoomID, "error", err)
	}
	return created.RoomID, nil
}
