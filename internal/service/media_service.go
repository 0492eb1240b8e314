package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxMediaPerPost = 4

// MediaService stores uploaded files and removes them once they are no
// longer needed. Stored files are referenced as "uploads/<name>".
type MediaService interface {
	SaveUploads(ctx context.Context, files []*multipart.FileHeader) ([]string, error)
	DeleteFile(ctx context.Context, name string) error
}

type mediaService struct {
	store MediaStore
}

func NewMediaService(store MediaStore) MediaService {
	return &mediaService{store: store}
}

var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {}, "mp4": {}, "mov": {},
}

func (s *mediaService) SaveUploads(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, NewValidationError("no files provided")
	}
	if len(files) > maxMediaPerPost {
		return nil, NewValidationError("a post can have at most %d media files", maxMediaPerPost)
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening file: %w", err)
		}

		fileBytes, err := io.ReadAll(fileContent)
		fileContent.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading file content: %w", err)
		}

		kind, err := filetype.Match(fileBytes)
		if err != nil || kind == types.Unknown {
			return nil, NewValidationError("unsupported file type for %s", file.Filename)
		}
		if _, ok := allowedMediaTypes[kind.Extension]; !ok {
			return nil, NewValidationError("file type %s is not allowed", kind.Extension)
		}

		id, err := gonanoid.New()
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("%s.%s", id, kind.Extension)
		if err := s.store.Save(ctx, name, fileBytes, kind.MIME.Value); err != nil {
			return nil, fmt.Errorf("error saving file: %w", err)
		}

		paths = append(paths, "uploads/"+name)
	}

	return paths, nil
}

func (s *mediaService) DeleteFile(ctx context.Context, name string) error {
	return s.store.Delete(ctx, path.Base(name))
}
