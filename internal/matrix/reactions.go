package matrix

import (
	"context"
	"errors"
	"fmt"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/3n8/openclaw-plugins/internal/protocol"
)

const (
	defaultRelationLimit = 100
	maxRelationPages     = 10
)

type annotation struct {
	eventID id.EventID
	sender  id.UserID
	key     string
}

func (c *Client) React(ctx context.Context, roomID, messageID, emoji string, opts protocol.CallOptions) error {
	cli, _, err := c.pool.Client(opts.AccountID)
	if err != nil {
		return err
	}
	room, err := resolveRoom(ctx, cli, roomID)
	if err != nil {
		return err
	}
	if _, err := cli.SendReaction(ctx, room, id.EventID(messageID), emoji); err != nil {
		return fmt.Errorf("send reaction: %w", err)
	}
	return nil
}

func (c *Client) ListReactions(ctx context.Context, roomID, messageID string, opts protocol.ListReactionsOptions) ([]protocol.ReactionSummary, error) {
	cli, _, err := c.pool.Client(opts.AccountID)
	if err != nil {
		return nil, err
	}
	room, err := resolveRoom(ctx, cli, roomID)
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit < 1 {
		limit = defaultRelationLimit
	}
	annotations, err := fetchAnnotations(ctx, cli, room, id.EventID(messageID), limit, 1)
	if err != nil {
		return nil, err
	}
	return aggregateReactions(annotations), nil
}

// RemoveReactions redacts this account's own reactions on a message,
// optionally only those whose key is in Emojis.
func (c *Client) RemoveReactions(ctx context.Context, roomID, messageID string, opts protocol.RemoveReactionsOptions) (int, error) {
	cli, _, err := c.pool.Client(opts.AccountID)
	if err != nil {
		return 0, err
	}
	room, err := resolveRoom(ctx, cli, roomID)
	if err != nil {
		return 0, err
	}
	self, err := ownUserID(ctx, cli)
	if err != nil {
		return 0, err
	}
	annotations, err := fetchAnnotations(ctx, cli, room, id.EventID(messageID), defaultRelationLimit, maxRelationPages)
	if err != nil {
		return 0, err
	}
	only := map[string]struct{}{}
	for _, emoji := range opts.Emojis {
		only[emoji] = struct{}{}
	}

	removed := 0
	for _, item := range annotations {
		if item.sender != self {
			continue
		}
		if len(only) > 0 {
			if _, ok := only[item.key]; !ok {
				continue
			}
		}
		if _, err := cli.RedactEvent(ctx, room, item.eventID); err != nil {
			return removed, fmt.Errorf("redact reaction %s: %w", item.eventID, err)
		}
		removed++
	}
	return removed, nil
}

func ownUserID(ctx context.Context, cli *mautrix.Client) (id.UserID, error) {
	if cli.UserID != "" {
		return cli.UserID, nil
	}
	whoami, err := cli.Whoami(ctx)
	if err != nil {
		return "", fmt.Errorf("whoami: %w", err)
	}
	cli.UserID = whoami.UserID
	return whoami.UserID, nil
}

func fetchAnnotations(ctx context.Context, cli *mautrix.Client, room id.RoomID, target id.EventID, limit, pages int) ([]annotation, error) {
	out := []annotation{}
	from := ""
	for page := 0; page < pages; page++ {
		resp, err := cli.GetRelations(ctx, room, target, &mautrix.ReqGetRelations{
			RelationType: event.RelAnnotation,
			EventType:    event.EventReaction,
			From:         from,
			Limit:        limit,
		})
		if err != nil {
			return nil, fmt.Errorf("list reactions: %w", err)
		}
		for _, evt := range resp.Chunk {
			if item, ok := toAnnotation(evt); ok {
				out = append(out, item)
			}
		}
		if resp.NextBatch == "" {
			break
		}
		from = resp.NextBatch
	}
	return out, nil
}

func toAnnotation(evt *event.Event) (annotation, bool) {
	if evt == nil || evt.Unsigned.RedactedBecause != nil {
		return annotation{}, false
	}
	if err := evt.Content.ParseRaw(evt.Type); err != nil && !errors.Is(err, event.ErrContentAlreadyParsed) {
		return annotation{}, false
	}
	key := evt.Content.AsReaction().RelatesTo.Key
	if key == "" {
		return annotation{}, false
	}
	return annotation{eventID: evt.ID, sender: evt.Sender, key: key}, true
}

// aggregateReactions groups annotations by key in first-seen order.
func aggregateReactions(items []annotation) []protocol.ReactionSummary {
	index := map[string]int{}
	seen := map[string]map[id.UserID]struct{}{}
	out := []protocol.ReactionSummary{}
	for _, item := range items {
		position, ok := index[item.key]
		if !ok {
			position = len(out)
			index[item.key] = position
			seen[item.key] = map[id.UserID]struct{}{}
			out = append(out, protocol.ReactionSummary{Key: item.key, Users: []string{}})
		}
		out[position].Count++
		if _, dup := seen[item.key][item.sender]; !dup {
			seen[item.key][item.sender] = struct{}{}
			out[position].Users = append(out[position].Users, string(item.sender))
		}
	}
	return out
}
