package automation

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"example.com/commentcap/internal/domain"
)

type MockSettings struct {
	mock.Mock
}

func (m *MockSettings) GetAll(ctx context.Context, namespace string) (map[string]any, error) {
	args := m.Called(ctx, namespace)
	raw, _ := args.Get(0).(map[string]any)
	return raw, args.Error(1)
}

type MockFlags struct {
	mock.Mock
}

func (m *MockFlags) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockFlags) Set(ctx context.Context, key, value string, expireAt time.Time) error {
	args := m.Called(ctx, key, value, expireAt)
	return args.Error(0)
}

type MockContent struct {
	mock.Mock
}

func (m *MockContent) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*domain.Comment)
	return c, args.Error(1)
}

func (m *MockContent) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Post)
	return p, args.Error(1)
}

func (m *MockContent) SetPostFlair(ctx context.Context, req FlairRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockContent) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	args := m.Called(ctx, postID)
	cs, _ := args.Get(0).([]domain.Comment)
	return cs, args.Error(1)
}

func (m *MockContent) SubmitComment(ctx context.Context, postID, text string) (*domain.Comment, error) {
	args := m.Called(ctx, postID, text)
	c, _ := args.Get(0).(*domain.Comment)
	return c, args.Error(1)
}

func (m *MockContent) Distinguish(ctx context.Context, commentID string, sticky bool) error {
	return m.Called(ctx, commentID, sticky).Error(0)
}

func (m *MockContent) LockComment(ctx context.Context, commentID string) error {
	return m.Called(ctx, commentID).Error(0)
}

func (m *MockContent) LockPost(ctx context.Context, postID string) error {
	return m.Called(ctx, postID).Error(0)
}

func (m *MockContent) SendModmail(ctx context.Context, subreddit, subject, body string) error {
	return m.Called(ctx, subreddit, subject, body).Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(rec domain.ActionRecord) bool {
	return m.Called(rec).Bool(0)
}
