package tptypes

import (
	"context"
	"io"
)

// StorageService 定义了图片/文件存储操作的接口。
// 接口定义放在 tptypes 中以打破 storage 和 services 之间的循环依赖。
type StorageService interface {
	// UploadFile 将读取器中的内容上传到存储系统，返回包含访问 URL 的文件信息。
	UploadFile(ctx context.Context, reader io.Reader, fileSize int64, fileName string, mimeType string) (*FileInfo, error)
}
