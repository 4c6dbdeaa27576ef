package chatserver

import (
	"fmt"
	"log"
	"net/http"

	"tripplanner/internal/auth"
	"tripplanner/internal/config"
	ws "tripplanner/internal/websocket"
)

// WebSocketHandler 负责处理实时推送的 WebSocket 连接请求。
type WebSocketHandler struct {
	hub       *ws.Hub
	blacklist auth.TokenBlacklist
	cfg       config.Config
}

// NewWebSocketHandler 创建一个新的 WebSocketHandler 实例。
func NewWebSocketHandler(hub *ws.Hub, blacklist auth.TokenBlacklist, cfg config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		hub:       hub,
		blacklist: blacklist,
		cfg:       cfg,
	}
}

// ServeWS 处理传入的 WebSocket 请求。
// 连接必须携带有效的 token 查询参数；推送通道不接受匿名连接。
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "缺少认证令牌", http.StatusUnauthorized)
		return
	}

	claims, err := auth.ValidateToken(r.Context(), token, h.cfg.Auth.JWTSecretKey, h.blacklist)
	if err != nil {
		log.Printf("WebSocket 连接尝试失败：令牌无效: %v", err)
		http.Error(w, fmt.Sprintf("令牌无效: %v", err), http.StatusUnauthorized)
		return
	}
	log.Printf("用户 %s (ID: %d) 连接实时推送通道", claims.Username, claims.UserID)

	ws.ServeWsPerConnection(h.hub, claims.UserID, w, r, h.cfg.WebSocket)
}
