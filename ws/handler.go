package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sundayekpa25-ai/projectsandtasks/logging"
	"github.com/sundayekpa25-ai/projectsandtasks/services"
	"github.com/sundayekpa25-ai/projectsandtasks/utils"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// ChatMessage is the shape broadcast to a project room.
type ChatMessage struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler upgrades chat connections. The token travels as a query parameter
// because browsers cannot set headers on websocket dials.
type Handler struct {
	hub      *Hub
	users    *services.UserService
	projects *services.ProjectService
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, users *services.UserService, projects *services.ProjectService) *Handler {
	return &Handler{
		hub:      hub,
		users:    users,
		projects: projects,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeProjectChat authenticates the caller, verifies project access and
// then relays messages between the connection and the project room.
func (h *Handler) ServeProjectChat(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	claims, err := utils.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}
	user, err := h.users.GetActiveUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "User not found or inactive", http.StatusUnauthorized)
		return
	}

	// GetProject applies HasProjectAccess, the same gate as the REST API.
	if _, err := h.projects.GetProject(r.Context(), user, projectID); err != nil {
		switch services.KindOf(err) {
		case services.KindForbidden:
			http.Error(w, "Access denied to this project", http.StatusForbidden)
		case services.KindNotFound:
			http.Error(w, "Project not found", http.StatusNotFound)
		default:
			http.Error(w, "Server error", http.StatusInternalServerError)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger.Warnf("Event ID: WS_UPGRADE_FAILED, Description: WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn)
	h.hub.Join(projectID, client)
	defer func() {
		h.hub.Leave(projectID, client)
		client.Close()
		logging.Logger.Infof("Event ID: WS_DISCONNECTED, Description: User %s left project room %s", user.ID.Hex(), projectID)
	}()

	logging.Logger.Infof("Event ID: WS_CONNECTED, Description: User %s joined project room %s", user.ID.Hex(), projectID)

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go h.pingLoop(client, done)

	for {
		var incoming struct {
			Content string `json:"content"`
		}
		if err := conn.ReadJSON(&incoming); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Logger.Warnf("Event ID: WS_READ_FAILED, Description: WebSocket error in room %s: %v", projectID, err)
			}
			return
		}
		if incoming.Content == "" {
			continue
		}

		h.hub.Broadcast(projectID, ChatMessage{
			Type:      "message",
			ProjectID: projectID,
			UserID:    user.ID.Hex(),
			UserName:  user.Name,
			Content:   incoming.Content,
			Timestamp: time.Now(),
		})
	}
}

func (h *Handler) pingLoop(client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
