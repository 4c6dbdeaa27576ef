package apiserver

import (
	"errors"
	"net/http"
	"strconv"

	"tripplanner/internal/middleware"
	"tripplanner/internal/services"

	"github.com/gorilla/mux"
)

// FriendshipHandler 封装了好友关系相关的 HTTP 处理器方法。
type FriendshipHandler struct {
	friendshipService services.FriendshipService
}

// NewFriendshipHandler 创建一个新的 FriendshipHandler 实例。
func NewFriendshipHandler(friendshipService services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendshipService: friendshipService}
}

// FriendshipStatusResponse 携带查看者与目标用户之间的有效关系状态。
type FriendshipStatusResponse struct {
	Status string `json:"status"`
}

// otherUserIDFromPath 从路径参数解析目标用户 ID。
func otherUserIDFromPath(r *http.Request) (uint, bool) {
	vars := mux.Vars(r)
	idStr, ok := vars["userID"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// GetStatusHandler 返回当前用户对目标用户观察到的关系状态。
// 查询失败时返回 not_friend，客户端无需特殊处理。
func (h *FriendshipHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}
	otherID, ok := otherUserIDFromPath(r)
	if !ok {
		writeJSONError(w, "userID 格式无效", http.StatusBadRequest)
		return
	}

	state := h.friendshipService.CheckStatus(r.Context(), viewerID, otherID)
	writeJSONResponse(w, http.StatusOK, FriendshipStatusResponse{Status: string(state)})
}

// SendRequestHandler 处理发送好友请求。
func (h *FriendshipHandler) SendRequestHandler(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}
	otherID, ok := otherUserIDFromPath(r)
	if !ok {
		writeJSONError(w, "userID 格式无效", http.StatusBadRequest)
		return
	}

	if err := h.friendshipService.SendRequest(r.Context(), viewerID, otherID); err != nil {
		switch {
		case errors.Is(err, services.ErrFriendRequestSelf):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrRecipientNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrFriendRequestExists), errors.Is(err, services.ErrAlreadyFriends):
			writeJSONError(w, err.Error(), http.StatusConflict)
		default:
			writeJSONError(w, "发送好友请求失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]string{"message": "好友请求已发送"})
}

// CancelRequestHandler 处理取消自己发出的好友请求。
func (h *FriendshipHandler) CancelRequestHandler(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}
	otherID, ok := otherUserIDFromPath(r)
	if !ok {
		writeJSONError(w, "userID 格式无效", http.StatusBadRequest)
		return
	}

	if err := h.friendshipService.CancelRequest(r.Context(), viewerID, otherID); err != nil {
		if errors.Is(err, services.ErrNoRequestToCancel) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			writeJSONError(w, "取消好友请求失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "好友请求已取消"})
}

// AcceptRequestHandler 处理接受对方发来的好友请求。
func (h *FriendshipHandler) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}
	otherID, ok := otherUserIDFromPath(r)
	if !ok {
		writeJSONError(w, "userID 格式无效", http.StatusBadRequest)
		return
	}

	if err := h.friendshipService.AcceptRequest(r.Context(), viewerID, otherID); err != nil {
		if errors.Is(err, services.ErrNoPendingRequest) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			writeJSONError(w, "接受好友请求失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "已成为好友"})
}

// RemoveFriendHandler 处理删除好友。
func (h *FriendshipHandler) RemoveFriendHandler(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}
	otherID, ok := otherUserIDFromPath(r)
	if !ok {
		writeJSONError(w, "userID 格式无效", http.StatusBadRequest)
		return
	}

	if err := h.friendshipService.RemoveFriend(r.Context(), viewerID, otherID); err != nil {
		if errors.Is(err, services.ErrNotFriends) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			writeJSONError(w, "删除好友失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "已删除好友"})
}

// ListFriendsHandler 返回当前用户的好友列表。
func (h *FriendshipHandler) ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	friends, err := h.friendshipService.ListFriends(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "获取好友列表失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// CountFriendsHandler 返回当前用户的好友数量。
func (h *FriendshipHandler) CountFriendsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	count, err := h.friendshipService.CountFriends(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "获取好友数量失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int{"count": count})
}
