package websocket

import (
	"encoding/json"
	"log"

	"tripplanner/internal/storage"
	"tripplanner/internal/tptypes"
)

// Hub maintains the set of active clients and routes push events to the
// client they are addressed to.
type Hub struct {
	// Registered clients, mapping UserID to Client. One connection per user;
	// a newer connection replaces the older one.
	clients map[uint]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Events aimed at a specific user.
	direct chan *tptypes.PushEvent
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uint]*Client),
		direct:     make(chan *tptypes.PushEvent, 256),
	}
}

// DeliverEvent hands an event to the hub for direct delivery.
// Non-blocking: if the hub is backed up the event is dropped (the client
// re-reads state from the API on next load anyway).
func (h *Hub) DeliverEvent(event *tptypes.PushEvent) {
	select {
	case h.direct <- event:
	default:
		log.Printf("警告: Hub direct channel is full. Dropping event for receiver %s", event.ReceiverID)
	}
}

// Run starts the hub and listens for registrations and events.
func (h *Hub) Run() {
	log.Println("WebSocket Hub Run loop started.")
	for {
		select {
		case client := <-h.register:
			if existingClient, ok := h.clients[client.UserID]; ok {
				log.Printf("警告: 用户 %d 已有连接，关闭旧连接并注册新连接。", client.UserID)
				close(existingClient.send)
			}
			h.clients[client.UserID] = client
			log.Printf("客户端已注册: UserID %d", client.UserID)

		case client := <-h.unregister:
			// 只注销仍然登记在册的那个连接，避免误关刚替换上来的新连接。
			if storedClient, ok := h.clients[client.UserID]; ok && storedClient == client {
				delete(h.clients, client.UserID)
				close(client.send)
				log.Printf("客户端已注销: UserID %d", client.UserID)
			}

		case event := <-h.direct:
			receiverID, err := storage.StrToUint(event.ReceiverID)
			if err != nil {
				log.Printf("错误: 无法解析推送事件中的 ReceiverID '%s': %v", event.ReceiverID, err)
				continue
			}

			client, ok := h.clients[receiverID]
			if !ok {
				// 用户未连接到此实例，事件交由 API 轮询兜底。
				continue
			}

			eventBytes, err := json.Marshal(event)
			if err != nil {
				log.Printf("错误: 无法序列化推送事件以发送给 UserID %d: %v", receiverID, err)
				continue
			}

			select {
			case client.send <- eventBytes:
			default:
				// 发送缓冲已满，视为慢客户端或已断开。
				log.Printf("警告: UserID %d 的发送通道已满或关闭，移除客户端。", receiverID)
				close(client.send)
				delete(h.clients, receiverID)
			}
		}
	}
}
