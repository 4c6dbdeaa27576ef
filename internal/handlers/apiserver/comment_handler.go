package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"tripplanner/internal/middleware"
	"tripplanner/internal/models"
	"tripplanner/internal/services"
)

// CommentHandler 封装了行程评论相关的 HTTP 处理器方法。
type CommentHandler struct {
	commentService services.CommentService
}

// NewCommentHandler 创建一个新的 CommentHandler 实例。
func NewCommentHandler(commentService services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// AppendCommentRequest 是发表评论的请求结构体。
type AppendCommentRequest struct {
	Text string `json:"text"`
}

// RemoveCommentRequest 携带要删除的评论的完整值。
// 评论按值匹配删除：文本相同但时间戳不同的评论互不影响。
type RemoveCommentRequest struct {
	UserID      uint   `json:"userId"`
	Text        string `json:"text"`
	TimestampMs int64  `json:"timestampMs"`
}

// AppendHandler 处理发表评论。
func (h *CommentHandler) AppendHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}
	itineraryID, ok := itineraryIDFromPath(r)
	if !ok {
		writeJSONError(w, "itineraryID 格式无效", http.StatusBadRequest)
		return
	}

	var req AppendCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	comment, err := h.commentService.Append(r.Context(), itineraryID, userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyComment):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrItineraryNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		default:
			writeJSONError(w, "发表评论失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusCreated, comment)
}

// RemoveHandler 处理删除评论，仅限评论作者本人。
func (h *CommentHandler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}
	itineraryID, ok := itineraryIDFromPath(r)
	if !ok {
		writeJSONError(w, "itineraryID 格式无效", http.StatusBadRequest)
		return
	}

	var req RemoveCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	comment := &models.ItineraryComment{
		ItineraryID: itineraryID,
		UserID:      req.UserID,
		Text:        req.Text,
		TimestampMs: req.TimestampMs,
	}
	if err := h.commentService.Remove(r.Context(), userID, comment); err != nil {
		switch {
		case errors.Is(err, services.ErrNotCommentAuthor):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, services.ErrCommentNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		default:
			writeJSONError(w, "删除评论失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "评论已删除"})
}

// ListHandler 返回行程的评论列表。
func (h *CommentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	itineraryID, ok := itineraryIDFromPath(r)
	if !ok {
		writeJSONError(w, "itineraryID 格式无效", http.StatusBadRequest)
		return
	}

	comments, err := h.commentService.List(r.Context(), itineraryID)
	if err != nil {
		writeJSONError(w, "获取评论列表失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, comments)
}
