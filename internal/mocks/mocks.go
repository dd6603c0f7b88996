package mocks

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockImageStore is a mock implementation of the ImageStore interface
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, img *service.Image) (string, error) {
	args := m.Called(ctx, img)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// NewImageStore returns a MockImageStore that accepts every image and
// returns ref for it.
func NewImageStore(ref string) *MockImageStore {
	m := &MockImageStore{}
	m.On("Save", mock.Anything, mock.Anything).Return(ref, nil)
	m.On("Delete", mock.Anything, mock.Anything).Return(nil)
	return m
}

// MockTokenValidator is a mock implementation of the token validation used by
// the auth middleware
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}
