package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/3n8/openclaw-plugins/internal/protocol"
)

const defaultReadLimit = 20

type Client struct {
	pool          *Pool
	logger        *slog.Logger
	httpClient    *http.Client
	maxMediaBytes int64
}

var _ protocol.Client = (*Client)(nil)

func NewClient(pool *Pool, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		pool:          pool,
		logger:        logger.With("component", "matrix"),
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		maxMediaBytes: defaultMaxMediaBytes,
	}
}

func (c *Client) SendMessage(ctx context.Context, to, content string, opts protocol.SendOptions) (protocol.SendResult, error) {
	cli, _, err := c.pool.Client(opts.AccountID)
	if err != nil {
		return protocol.SendResult{}, err
	}
	roomID, err := c.resolveSendTarget(ctx, cli, to)
	if err != nil {
		return protocol.SendResult{}, err
	}

	message := &event.MessageEventContent{MsgType: event.MsgText, Body: content}
	if strings.TrimSpace(opts.MediaURL) != "" {
		media, err := c.loadMedia(ctx, opts.MediaURL, opts.MediaLocalRoots)
		if err != nil {
			return protocol.SendResult{}, err
		}
		uploaded, err := cli.UploadBytesWithName(ctx, media.data, media.contentType, media.name)
		if err != nil {
			return protocol.SendResult{}, fmt.Errorf("upload media: %w", err)
		}
		message.MsgType = media.msgType()
		message.URL = uploaded.ContentURI.CUString()
		message.Info = &event.FileInfo{MimeType: media.contentType, Size: len(media.data)}
		message.FileName = media.name
		if strings.TrimSpace(content) == "" {
			message.Body = media.name
		}
	}
	if threadID := strings.TrimSpace(opts.ThreadID); threadID != "" {
		fallback := id.EventID(strings.TrimSpace(opts.ReplyToID))
		if fallback == "" {
			fallback = id.EventID(threadID)
		}
		message.RelatesTo = (&event.RelatesTo{}).SetThread(id.EventID(threadID), fallback)
	} else if replyTo := strings.TrimSpace(opts.ReplyToID); replyTo != "" {
		message.RelatesTo = (&event.RelatesTo{}).SetReplyTo(id.EventID(replyTo))
	}

	resp, err := cli.SendMessageEvent(ctx, roomID, event.EventMessage, message)
	if err != nil {
		return protocol.SendResult{}, fmt.Errorf("send message: %w", err)
	}
	return protocol.SendResult{MessageID: string(resp.EventID), RoomID: string(roomID)}, nil
}

func (c *Client) EditMessage(ctx context.Context, roomID, messageID, content string, opts protocol.CallOptions) (protocol.EditResult, error) {
	cli, _, err := c.pool.Client(opts.AccountID)
	if err != nil {
		return protocol.EditResult{}, err
	}
	room, err := resolveRoom(ctx, cli, roomID)
	if err != nil {
		return protocol.EditResult{}, err
	}
	message := &event.MessageEventContent{MsgType: event.MsgText, Body: content}
	message.SetEdit(id.EventID(messageID))
	resp, err := cli.SendMessageEvent(ctx, room, event.EventMessage, message)
	if err != nil {
		return protocol.EditResult{}, fmt.Errorf("edit message: %w", err)
	}
	return protocol.EditResult{EventID: string(resp.EventID)}, nil
}

func (c *Client) DeleteMessage(ctx context.Context, roomID, messageID string, opts protocol.DeleteOptions) error {
	cli, _, err := c.pool.Client(opts.AccountID)
	if err != nil {
		return err
	}
	room, err := resolveRoom(ctx, cli, roomID)
	if err != nil {
		return err
	}
	if _, err := cli.RedactEvent(ctx, room, id.EventID(messageID), mautrix.ReqRedact{Reason: opts.Reason}); err != nil {
		return fmt.Errorf("redact message: %w", err)
	}
	return nil
}

// ReadMessages pages backward from the newest event unless After is set.
// Messages are returned newest first in both directions.
func (c *Client) ReadMessages(ctx context.Context, roomID string, opts protocol.ReadOptions) (protocol.ReadResult, error) {
	cli, _, err := c.pool.Client(opts.AccountID)
	if err != nil {
		return protocol.ReadResult{}, err
	}
	room, err := resolveRoom(ctx, cli, roomID)
	if err != nil {
		return protocol.ReadResult{}, err
	}
	limit := opts.Limit
	if limit < 1 {
		limit = defaultReadLimit
	}
	direction := mautrix.DirectionBackward
	from := strings.TrimSpace(opts.Before)
	if after := strings.TrimSpace(opts.After); after != "" {
		direction = mautrix.DirectionForward
		from = after
	}
	resp, err := cli.Messages(ctx, room, from, "", direction, nil, limit)
	if err != nil {
		return protocol.ReadResult{}, fmt.Errorf("read messages: %w", err)
	}

	messages := make([]protocol.MessageSummary, 0, len(resp.Chunk))
	for _, evt := range resp.Chunk {
		if evt == nil || evt.Type.Type != event.EventMessage.Type {
			continue
		}
		summary, ok := summarize(evt)
		if !ok {
			continue
		}
		messages = append(messages, summary)
	}
	if direction == mautrix.DirectionForward {
		// Forward pages arrive oldest first.
		slices.Reverse(messages)
	}
	return protocol.ReadResult{Messages: messages, NextBatch: resp.End, PrevBatch: resp.Start}, nil
}

// summarize flattens a room message. Redacted messages are skipped.
func summarize(evt *event.Event) (protocol.MessageSummary, bool) {
	if evt.Unsigned.RedactedBecause != nil {
		return protocol.MessageSummary{}, false
	}
	if err := evt.Content.ParseRaw(evt.Type); err != nil && !errors.Is(err, event.ErrContentAlreadyParsed) {
		return protocol.MessageSummary{}, false
	}
	message := evt.Content.AsMessage()
	summary := protocol.MessageSummary{
		EventID:   string(evt.ID),
		Sender:    string(evt.Sender),
		Body:      message.Body,
		MsgType:   string(message.MsgType),
		Timestamp: evt.Timestamp,
	}
	if message.RelatesTo != nil {
		switch {
		case message.RelatesTo.GetReplaceID() != "":
			summary.RelatesTo = string(message.RelatesTo.GetReplaceID())
		case message.RelatesTo.GetThreadParent() != "":
			summary.RelatesTo = string(message.RelatesTo.GetThreadParent())
		case message.RelatesTo.GetReplyTo() != "":
			summary.RelatesTo = string(message.RelatesTo.GetReplyTo())
		}
	}
	return summary, true
}
