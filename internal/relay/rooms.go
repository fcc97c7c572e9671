package relay

import (
	"sort"
	"unicode"

	"chat-relay/internal/models"
	"chat-relay/pkg/logger"
)

// RoomName derives the display name of a room from its id.
func RoomName(roomID string) string {
	runes := []rune(roomID)
	if len(runes) == 0 {
		return roomID
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// roster projects the current membership table into the outward Room view.
// Usernames are sorted so clients see a stable ordering.
func (h *Hub) roster(roomID string) *models.Room {
	members := h.rooms[roomID]
	users := make([]string, 0, len(members))
	for uid := range members {
		users = append(users, h.usernameOf(uid))
	}
	sort.Strings(users)
	return &models.Room{ID: roomID, Name: RoomName(roomID), Users: users}
}

func (h *Hub) usernameOf(uid string) string {
	for _, s := range h.byUser[uid] {
		return s.identity.Username
	}
	return uid
}

func (h *Hub) broadcastRoster(roomID string) {
	h.broadcastRoom(roomID, models.ServerEvent{Type: models.EventRoomUpdate, Room: h.roster(roomID)})
}

// broadcastRoom delivers an event to every session of every room member,
// fire-and-forget. Sessions that cannot accept the event are dropped.
func (h *Hub) broadcastRoom(roomID string, ev models.ServerEvent) {
	var dead []*Session
	for uid := range h.rooms[roomID] {
		for _, s := range h.byUser[uid] {
			if !s.sender.Send(ev) {
				dead = append(dead, s)
			}
		}
	}
	h.drop(dead)
}

// removeFromRoom takes an identity out of one room and notifies the
// remaining members. Recovers locally so disconnect cleanup of the other
// rooms always proceeds.
func (h *Hub) removeFromRoom(uid, roomID string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic removing %s from room %s: %v", uid, roomID, r)
		}
	}()

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, uid)
	if len(members) == 0 {
		delete(h.rooms, roomID)
		h.roomCount.Add(-1)
		logger.Debug("Room %s removed", roomID)
		return
	}
	h.broadcastRoster(roomID)
}
