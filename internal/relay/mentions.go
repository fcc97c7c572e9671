package relay

import (
	"context"
	"fmt"
	"regexp"

	"chat-relay/internal/models"
	"chat-relay/pkg/logger"

	"github.com/google/uuid"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// mentionTokens extracts the distinct @-mention tokens from a message text,
// in order of first appearance.
func mentionTokens(text string) []string {
	var tokens []string
	seen := make(map[string]struct{})
	for _, match := range mentionPattern.FindAllStringSubmatch(text, -1) {
		token := match[1]
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}

// deriveMentions post-processes a relayed message. Tokens are matched
// case-sensitively against the display names of currently registered
// identities. Display names are not unique, so a token may resolve to
// several connected identities; each one gets its own MENTION notification.
// Unresolved names drop silently. "@AI" is reserved for the external
// responder.
func (h *Hub) deriveMentions(sender models.Identity, msg *models.Message) {
	for _, token := range mentionTokens(msg.Text) {
		if token == models.AIUserID {
			h.forwardToResponder(msg)
			continue
		}

		uids := h.names[token]
		if len(uids) == 0 {
			logger.Debug("Mention @%s does not resolve to a connected user", token)
			continue
		}

		for uid := range uids {
			n := models.Notification{
				ID:           uuid.NewString(),
				Kind:         models.NotificationMention,
				TargetUserID: uid,
				SourceUserID: sender.UserID,
				Message:      fmt.Sprintf("%s mentioned you in %s", sender.Username, RoomName(msg.RoomID)),
				Timestamp:    msg.Timestamp,
			}
			if err := h.store.Save(context.Background(), &n); err != nil {
				// Store trouble must not fail the relay; the live
				// event still goes out.
				logger.Error("Failed to save notification %s: %v", n.ID, err)
			}
			h.deliverToUser(uid, models.ServerEvent{Type: models.EventNotification, Notification: &n})
		}
	}
}

// forwardToResponder asks the external AI collaborator for a reply off the
// hub goroutine and feeds the answer back through the replies channel.
func (h *Hub) forwardToResponder(msg *models.Message) {
	if h.responder == nil {
		return
	}

	go func() {
		reply, err := h.responder.Reply(context.Background(), msg.RoomID, msg.SenderID, msg.Text)
		if err != nil {
			logger.Error("AI responder failed for room %s: %v", msg.RoomID, err)
			return
		}
		if reply == "" {
			return
		}
		select {
		case h.replies <- aiReply{roomID: msg.RoomID, text: reply}:
		case <-h.done:
		}
	}()
}
