package ws

import (
	"testing"

	"github.com/gorilla/websocket"
)

func TestHubRoomMembership(t *testing.T) {
	hub := NewHub()
	a := NewClient(&websocket.Conn{})
	b := NewClient(&websocket.Conn{})

	hub.Join("room-1", a)
	hub.Join("room-1", b)
	hub.Join("room-2", a)

	if got := hub.RoomSize("room-1"); got != 2 {
		t.Errorf("RoomSize(room-1) = %d, want 2", got)
	}
	if got := hub.RoomSize("room-2"); got != 1 {
		t.Errorf("RoomSize(room-2) = %d, want 1", got)
	}

	hub.Leave("room-1", a)
	if got := hub.RoomSize("room-1"); got != 1 {
		t.Errorf("RoomSize(room-1) after leave = %d, want 1", got)
	}

	hub.Leave("room-1", b)
	if got := hub.RoomSize("room-1"); got != 0 {
		t.Errorf("RoomSize(room-1) after last leave = %d, want 0", got)
	}

	// Leaving an unknown room or a room twice is harmless.
	hub.Leave("room-1", b)
	hub.Leave("no-such-room", a)
}

func TestHubJoinIsIdempotentPerClient(t *testing.T) {
	hub := NewHub()
	client := NewClient(&websocket.Conn{})

	hub.Join("room", client)
	hub.Join("room", client)

	if got := hub.RoomSize("room"); got != 1 {
		t.Errorf("RoomSize = %d, want 1", got)
	}
}
