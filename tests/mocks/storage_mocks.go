package mocks

import (
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/storage"
)

// MockAvatarStorage implements storage.AvatarStorage
type MockAvatarStorage struct {
	mock.Mock
}

// Save stores an avatar and returns the relative path
func (m *MockAvatarStorage) Save(filename string, content io.Reader) (string, error) {
	args := m.Called(filename, content)
	return args.String(0), args.Error(1)
}

// Get retrieves an avatar by its path
func (m *MockAvatarStorage) Get(filePath string) (io.ReadCloser, error) {
	args := m.Called(filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// Delete removes an avatar by its path
func (m *MockAvatarStorage) Delete(filePath string) error {
	args := m.Called(filePath)
	return args.Error(0)
}

var _ storage.AvatarStorage = (*MockAvatarStorage)(nil)
