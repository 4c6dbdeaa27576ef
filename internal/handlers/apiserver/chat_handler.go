package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"tripplanner/internal/middleware"
	"tripplanner/internal/services"
)

// ChatHandler 封装了私信相关的 HTTP 处理器方法。
type ChatHandler struct {
	chatService services.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessageRequest 是发送私信的请求结构体。
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessageHandler 处理向指定用户发送私信。
func (h *ChatHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}
	receiverID, ok := otherUserIDFromPath(r)
	if !ok {
		writeJSONError(w, "userID 格式无效", http.StatusBadRequest)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	message, err := h.chatService.SendMessage(r.Context(), senderID, receiverID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrChatWithSelf):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrPeerNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		default:
			writeJSONError(w, "发送消息失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusCreated, message)
}

// ListMessagesHandler 返回与指定用户的完整对话。
func (h *ChatHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}
	peerID, ok := otherUserIDFromPath(r)
	if !ok {
		writeJSONError(w, "userID 格式无效", http.StatusBadRequest)
		return
	}

	messages, err := h.chatService.ListMessages(r.Context(), viewerID, peerID)
	if err != nil {
		writeJSONError(w, "获取消息列表失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, messages)
}

// ListPreviewsHandler 返回当前用户的会话预览列表。
func (h *ChatHandler) ListPreviewsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	previews, err := h.chatService.ListPreviews(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "获取会话预览失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, previews)
}

// MarkReadHandler 把与指定用户的会话标记为已读。
func (h *ChatHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}
	peerID, ok := otherUserIDFromPath(r)
	if !ok {
		writeJSONError(w, "userID 格式无效", http.StatusBadRequest)
		return
	}

	if err := h.chatService.MarkThreadRead(r.Context(), userID, peerID); err != nil {
		writeJSONError(w, "标记已读失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "已标记为已读"})
}
