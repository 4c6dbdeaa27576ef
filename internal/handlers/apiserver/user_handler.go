package apiserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"tripplanner/internal/middleware"
	"tripplanner/internal/services"

	"github.com/gorilla/mux" // 用于从路径参数中提取 userID
)

// UserHandler 封装了用户资料相关的 HTTP 处理器方法。
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMyProfileHandler 处理获取当前登录用户资料的请求。
func (h *UserHandler) GetMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID，请确保请求已通过认证", http.StatusInternalServerError)
		return
	}

	user, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		writeJSONError(w, fmt.Sprintf("获取用户信息失败: %v", err), http.StatusNotFound)
		return
	}
	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusOK, user)
}

// UpdateMyProfileRequest 是更新用户资料的请求结构体。
type UpdateMyProfileRequest struct {
	Username string `json:"username,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// UpdateMyProfileHandler 处理更新当前登录用户资料的请求。
func (h *UserHandler) UpdateMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	var req UpdateMyProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	user, err := h.userService.UpdateProfile(r.Context(), userID, req.Username, req.Bio)
	if err != nil {
		writeJSONError(w, fmt.Sprintf("更新用户信息失败: %v", err), http.StatusInternalServerError)
		return
	}
	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusOK, user)
}

// GetUserProfileHandler 处理获取指定用户公开信息的请求。
func (h *UserHandler) GetUserProfileHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userIDStr, ok := vars["userID"]
	if !ok {
		writeJSONError(w, "请求路径中缺少 userID", http.StatusBadRequest)
		return
	}
	userID, err := strconv.ParseUint(userIDStr, 10, 32)
	if err != nil {
		writeJSONError(w, "userID 格式无效", http.StatusBadRequest)
		return
	}

	info, err := h.userService.GetBasicInfo(r.Context(), uint(userID))
	if err != nil {
		writeJSONError(w, fmt.Sprintf("获取用户信息失败: %v", err), http.StatusNotFound)
		return
	}
	writeJSONResponse(w, http.StatusOK, info)
}

// SearchUsersHandler 处理按用户名/邮箱搜索用户的请求。
func (h *UserHandler) SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	currentUserID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSONError(w, "缺少搜索关键词参数 q", http.StatusBadRequest)
		return
	}

	users, err := h.userService.SearchUsers(r.Context(), query, currentUserID)
	if err != nil {
		writeJSONError(w, "搜索用户失败", http.StatusInternalServerError)
		return
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	writeJSONResponse(w, http.StatusOK, users)
}
