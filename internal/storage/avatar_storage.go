// Package storage keeps uploaded user avatars on the local filesystem.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/validator"
)

// Security errors
var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrFileNotFound  = errors.New("file not found")
	ErrFileTooLarge  = errors.New("file exceeds size limit")
	ErrNotAnImage    = errors.New("file content is not an image")
)

// MaxAvatarSize is the maximum allowed avatar size (2 MB)
const MaxAvatarSize = 2 * 1024 * 1024

// AvatarStorage defines the interface for avatar file operations
type AvatarStorage interface {
	Save(filename string, content io.Reader) (string, error)
	Get(filePath string) (io.ReadCloser, error)
	Delete(filePath string) error
}

// localStorage implements AvatarStorage using the local filesystem
type localStorage struct {
	basePath string
}

// NewLocalStorage creates avatar storage rooted at basePath
func NewLocalStorage(basePath string) (AvatarStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &localStorage{basePath: basePath}, nil
}

// validatePath ensures path is within basePath
func (s *localStorage) validatePath(filePath string) (string, error) {
	cleanPath := filepath.Clean(filePath)
	if filepath.IsAbs(cleanPath) || strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, cleanPath))
	if err != nil {
		return "", fmt.Errorf("invalid file path: %w", err)
	}
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	return absPath, nil
}

// Save stores an avatar under a random name and returns its relative path.
// The extension must be an allowed image type and the content must sniff as
// an image.
func (s *localStorage) Save(filename string, content io.Reader) (string, error) {
	if err := validator.ValidateImageFilename(filename); err != nil {
		return "", err
	}

	br := bufio.NewReaderSize(content, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if !strings.HasPrefix(http.DetectContentType(head), "image/") {
		return "", ErrNotAnImage
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	// Shard by the first two characters to keep directories small
	relPath := filepath.Join(name[:2], name)
	fullPath := filepath.Join(s.basePath, relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	n, err := io.Copy(file, io.LimitReader(br, MaxAvatarSize+1))
	if err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if n > MaxAvatarSize {
		os.Remove(fullPath)
		return "", ErrFileTooLarge
	}

	return filepath.ToSlash(relPath), nil
}

// Get opens a stored avatar
func (s *localStorage) Get(filePath string) (io.ReadCloser, error) {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes a stored avatar. Missing files are not an error.
func (s *localStorage) Delete(filePath string) error {
	fullPath, err := s.validatePath(filePath)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
