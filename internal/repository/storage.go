package repository

import "context"

// 書き込みリクエストで受け取った画像。
type FileUpload struct {
	Filename string
	Data     []byte
}

// 画像ファイルをpathで保存・削除する約束。
type FileStorage interface {
	Save(ctx context.Context, dir string, file FileUpload) (string, error)
	// 存在しないpathの削除はエラーにしない。
	Delete(ctx context.Context, path string) error
	URL(path string) string
}
