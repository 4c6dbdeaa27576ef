package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"tripplanner/internal/middleware"
	"tripplanner/internal/services"

	"github.com/gorilla/mux"
)

// ItineraryHandler 封装了行程相关的 HTTP 处理器方法。
type ItineraryHandler struct {
	itineraryService services.ItineraryService
}

// NewItineraryHandler 创建一个新的 ItineraryHandler 实例。
func NewItineraryHandler(itineraryService services.ItineraryService) *ItineraryHandler {
	return &ItineraryHandler{itineraryService: itineraryService}
}

// CreateItineraryRequest 是发布行程的请求结构体。
type CreateItineraryRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Destinations []string `json:"destinations,omitempty"`
}

// ToggleRequest 携带点赞/推荐切换的目标方向。
type ToggleRequest struct {
	Active bool `json:"active"`
}

// itineraryIDFromPath 从路径参数解析行程 ID。
func itineraryIDFromPath(r *http.Request) (uint, bool) {
	vars := mux.Vars(r)
	idStr, ok := vars["itineraryID"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// CreateHandler 处理发布行程。
func (h *ItineraryHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	var req CreateItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	itinerary, err := h.itineraryService.Create(r.Context(), userID, req.Title, req.Description, req.StartDate, req.EndDate, req.Destinations)
	if err != nil {
		if errors.Is(err, services.ErrItineraryTitle) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		} else {
			writeJSONError(w, "创建行程失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusCreated, itinerary)
}

// ListMineHandler 返回当前用户自己的行程。
func (h *ItineraryHandler) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	itineraries, err := h.itineraryService.ListByOwner(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "获取行程列表失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, itineraries)
}

// ListOthersHandler 返回其他用户的行程，可按目的地筛选。
func (h *ItineraryHandler) ListOthersHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	destination := strings.TrimSpace(r.URL.Query().Get("destination"))
	if destination != "" {
		itineraries, err := h.itineraryService.ListByDestination(r.Context(), destination, userID)
		if err != nil {
			writeJSONError(w, "按目的地搜索行程失败", http.StatusInternalServerError)
			return
		}
		writeJSONResponse(w, http.StatusOK, itineraries)
		return
	}

	itineraries, err := h.itineraryService.ListOthers(r.Context(), userID)
	if err != nil {
		writeJSONError(w, "获取行程列表失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, itineraries)
}

// GetHandler 返回单个行程详情。
func (h *ItineraryHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	itineraryID, ok := itineraryIDFromPath(r)
	if !ok {
		writeJSONError(w, "itineraryID 格式无效", http.StatusBadRequest)
		return
	}

	itinerary, err := h.itineraryService.GetByID(r.Context(), itineraryID)
	if err != nil {
		if errors.Is(err, services.ErrItineraryNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			writeJSONError(w, "获取行程失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, itinerary)
}

// DeleteHandler 处理删除行程，仅限发布者本人。
func (h *ItineraryHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := h.itineraryService.Delete(r.Context(), itineraryID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrItineraryNotFound):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, services.ErrNotItineraryOwner):
			writeJSONError(w, err.Error(), http.StatusForbidden)
		default:
			writeJSONError(w, "删除行程失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "行程已删除"})
}

// ToggleLikeHandler 处理点赞/取消点赞。
func (h *ItineraryHandler) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	h.handleToggle(w, r, h.itineraryService.ToggleLike)
}

// ToggleRecommendationHandler 处理推荐/取消推荐。
func (h *ItineraryHandler) ToggleRecommendationHandler(w http.ResponseWriter, r *http.Request) {
	h.handleToggle(w, r, h.itineraryService.ToggleRecommendation)
}

func (h *ItineraryHandler) handleToggle(
	w http.ResponseWriter,
	r *http.Request,
	toggle func(ctx context.Context, itineraryID, actorID uint, active bool) (*services.ToggleResult, error),
) {
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

	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "请求体无效", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	result, err := toggle(r.Context(), itineraryID, userID, req.Active)
	if err != nil {
		if errors.Is(err, services.ErrItineraryNotFound) {
			writeJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			writeJSONError(w, "操作失败", http.StatusInternalServerError)
		}
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// ListDestinationsHandler 返回目的地目录。
func (h *ItineraryHandler) ListDestinationsHandler(w http.ResponseWriter, r *http.Request) {
	destinations, err := h.itineraryService.ListDestinations(r.Context())
	if err != nil {
		writeJSONError(w, "获取目的地目录失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, destinations)
}
