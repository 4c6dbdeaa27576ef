package apiserver

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"

	"tripplanner/internal/config"
	"tripplanner/internal/middleware"
	"tripplanner/internal/services"
	"tripplanner/internal/tptypes"
)

const (
	defaultMaxMemory = 32 << 20 // multipart 表单非文件部分的内存上限
)

// UploadHandler 封装了文件上传相关的 HTTP 处理器方法。
type UploadHandler struct {
	storageService tptypes.StorageService
	userService    services.UserService
	cfg            config.StorageConfig
}

// NewUploadHandler 创建一个新的 UploadHandler 实例。
func NewUploadHandler(storageService tptypes.StorageService, userService services.UserService, cfg config.StorageConfig) *UploadHandler {
	return &UploadHandler{
		storageService: storageService,
		userService:    userService,
		cfg:            cfg,
	}
}

// parseUploadedFile 校验并返回 multipart 表单中的 "file" 字段。
func (h *UploadHandler) parseUploadedFile(w http.ResponseWriter, r *http.Request) (multipartFile, bool) {
	maxUploadSize := h.cfg.MaxFileSizeMB << 20
	if maxUploadSize <= 0 {
		maxUploadSize = defaultMaxMemory
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
		if err.Error() == "http: request body too large" {
			msg := fmt.Sprintf("上传文件过大，最大允许 %d MB", maxUploadSize>>20)
			writeJSONError(w, msg, http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, fmt.Sprintf("解析表单失败: %v", err), http.StatusBadRequest)
		}
		return multipartFile{}, false
	}

	file, handler, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			writeJSONError(w, "请求中缺少 'file' 字段", http.StatusBadRequest)
		} else {
			writeJSONError(w, fmt.Sprintf("获取文件失败: %v", err), http.StatusBadRequest)
		}
		return multipartFile{}, false
	}

	if handler.Size > maxUploadSize {
		file.Close()
		msg := fmt.Sprintf("上传文件过大，最大允许 %d MB", maxUploadSize>>20)
		writeJSONError(w, msg, http.StatusRequestEntityTooLarge)
		return multipartFile{}, false
	}

	return multipartFile{
		file:     file,
		name:     handler.Filename,
		size:     handler.Size,
		mimeType: handler.Header.Get("Content-Type"),
	}, true
}

type multipartFile struct {
	file     multipart.File
	name     string
	size     int64
	mimeType string
}

// UploadFileHandler 处理通用文件上传请求。
func (h *UploadHandler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	upload, ok := h.parseUploadedFile(w, r)
	if !ok {
		return
	}
	defer upload.file.Close()

	log.Printf("收到上传文件: 名称=%s, 大小=%d, 类型=%s", upload.name, upload.size, upload.mimeType)

	fileInfo, err := h.storageService.UploadFile(r.Context(), upload.file, upload.size, upload.name, upload.mimeType)
	if err != nil {
		log.Printf("存储文件失败: %v", err)
		writeJSONError(w, "存储文件失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, fileInfo)
}

// UploadProfileImageHandler 处理头像上传并更新用户资料中的头像地址。
func (h *UploadHandler) UploadProfileImageHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "无法从上下文中获取用户ID", http.StatusInternalServerError)
		return
	}

	upload, ok := h.parseUploadedFile(w, r)
	if !ok {
		return
	}
	defer upload.file.Close()

	imageURL, err := h.userService.SaveProfileImage(r.Context(), userID, upload.file, upload.size, upload.name, upload.mimeType)
	if err != nil {
		log.Printf("保存头像失败 (用户 %d): %v", userID, err)
		writeJSONError(w, "保存头像失败", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"profileImageUrl": imageURL})
}
