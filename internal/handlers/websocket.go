package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"beast-summon-backend/internal/models"
	"beast-summon-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler owns the event hub. It implements gacha.Notifier and
// services.PurchaseNotifier: roll and purchase events are pushed to the
// affected user's connection as they happen.
type WebSocketHandler struct {
	ledger *services.LedgerService
	hub    *WebSocketHub
	log    *zap.Logger
}

type WebSocketHub struct {
	clients    map[int64]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	log        *zap.Logger
}

type Client struct {
	UserID int64
	Conn   *websocket.Conn
}

type Message struct {
	Type      string      `json:"type"`
	UserID    int64       `json:"user_id,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

const (
	EventRollStarted    = "ROLL_STARTED"
	EventRollFulfilled  = "ROLL_FULFILLED"
	EventTokenPurchased = "TOKEN_PURCHASED"
	EventBalanceUpdate  = "BALANCE_UPDATE"
)

func NewWebSocketHandler(ledger *services.LedgerService, log *zap.Logger) *WebSocketHandler {
	if log == nil {
		log = zap.NewNop()
	}
	hub := &WebSocketHub{
		clients:    make(map[int64]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
		log:        log,
	}
	go hub.run()

	return &WebSocketHandler{ledger: ledger, hub: hub, log: log}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{UserID: userID, Conn: conn}
	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalance(c, client)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", zap.Int64("user_id", userID), zap.Error(err))
			}
			break
		}
		if msg.Type == "PING" {
			conn.WriteJSON(Message{Type: "PONG", Data: gin.H{"timestamp": time.Now().Unix()}})
		}
	}
}

func (h *WebSocketHandler) sendBalance(c *gin.Context, client *Client) {
	wallet, err := h.ledger.GetWallet(c.Request.Context(), client.UserID)
	if err != nil {
		h.log.Warn("wallet read for websocket failed", zap.Int64("user_id", client.UserID), zap.Error(err))
		return
	}
	client.Conn.WriteJSON(Message{
		Type: EventBalanceUpdate,
		Data: gin.H{
			"asset_balance": wallet.AssetBalance,
			"token_balance": wallet.TokenBalance,
			"total_burned":  wallet.TotalBurned,
			"summons":       wallet.Summons,
		},
	})
}

// RollStarted implements gacha.Notifier.
func (h *WebSocketHandler) RollStarted(userID int64, requestID string) {
	h.hub.broadcast <- &Message{
		Type:      EventRollStarted,
		UserID:    userID,
		RequestID: requestID,
		Data:      gin.H{"timestamp": time.Now().Unix()},
	}
}

// RollFulfilled implements gacha.Notifier.
func (h *WebSocketHandler) RollFulfilled(userID int64, requestID string, beast *models.MintedBeast) {
	h.hub.broadcast <- &Message{
		Type:      EventRollFulfilled,
		UserID:    userID,
		RequestID: requestID,
		Data:      beast,
	}
}

// TokenPurchased implements services.PurchaseNotifier.
func (h *WebSocketHandler) TokenPurchased(userID int64, amount *models.Amount) {
	h.hub.broadcast <- &Message{
		Type:   EventTokenPurchased,
		UserID: userID,
		Data:   gin.H{"amount": amount, "timestamp": time.Now().Unix()},
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.UserID] = client.Conn
			hub.log.Debug("websocket client registered", zap.Int64("user_id", client.UserID))

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.UserID]; ok {
				delete(hub.clients, client.UserID)
				hub.log.Debug("websocket client unregistered", zap.Int64("user_id", client.UserID))
			}

		case message := <-hub.broadcast:
			if message.UserID != 0 {
				if conn, ok := hub.clients[message.UserID]; ok {
					conn.WriteJSON(message)
				}
			} else {
				for _, conn := range hub.clients {
					conn.WriteJSON(message)
				}
			}
		}
	}
}
