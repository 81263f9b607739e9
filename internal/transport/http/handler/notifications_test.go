package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glowdesk/notify/internal/domain"
	jwtinfra "github.com/glowdesk/notify/internal/infrastructure/jwt"
	"github.com/glowdesk/notify/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotificationService struct{ mock.Mock }

func (m *mockNotificationService) Create(ctx context.Context, req domain.CreateNotificationRequest) (*domain.Notification, error) {
	args := m.Called(ctx, req)
	if n := args.Get(0); n != nil {
		return n.(*domain.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationService) List(ctx context.Context, userID string, opts domain.ListOptions) []domain.Notification {
	return m.Called(ctx, userID, opts).Get(0).([]domain.Notification)
}

func (m *mockNotificationService) UnreadCount(ctx context.Context, userID string) int {
	return m.Called(ctx, userID).Int(0)
}

func (m *mockNotificationService) Unread(ctx context.Context, userID string) []domain.Notification {
	return m.Called(ctx, userID).Get(0).([]domain.Notification)
}

func (m *mockNotificationService) MarkRead(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if n := args.Get(0); n != nil {
		return n.(*domain.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, userID string) int {
	return m.Called(ctx, userID).Int(0)
}

func (m *mockNotificationService) Archive(ctx context.Context, notificationID, userID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, userID)
	if n := args.Get(0); n != nil {
		return n.(*domain.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationService) Delete(ctx context.Context, notificationID, userID string) error {
	return m.Called(ctx, notificationID, userID).Error(0)
}

func (m *mockNotificationService) Broadcast(ctx context.Context, req domain.BroadcastRequest) (*domain.BroadcastResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*domain.BroadcastResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockNotificationService) FlushQueue(userID string) int {
	return m.Called(userID).Int(0)
}

func (m *mockNotificationService) Cleanup() int {
	return m.Called().Int(0)
}

func testRouter(svc *mockNotificationService) http.Handler {
	h := NewNotificationHandler(svc)
	r := chi.NewRouter()
	r.Post("/notifications", h.Create)
	r.Get("/notifications", h.List)
	r.Get("/notifications/unread-count", h.UnreadCount)
	r.Patch("/notifications/read-all", h.MarkAllRead)
	r.Patch("/notifications/{id}/read", h.MarkRead)
	r.Patch("/notifications/{id}/archive", h.Archive)
	r.Delete("/notifications/{id}", h.Delete)
	r.Post("/broadcast", h.Broadcast)
	return r
}

func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	claims := &jwtinfra.Claims{UserID: "u1", Role: domain.RoleUser}
	return req.WithContext(context.WithValue(req.Context(), middleware.ClaimsKey, claims))
}

func TestCreate_Created(t *testing.T) {
	svc := &mockNotificationService{}
	n := &domain.Notification{NotificationID: "n1", UserID: "u1", Message: "hola"}
	svc.On("Create", mock.Anything, mock.Anything).Return(n, nil)

	body, _ := json.Marshal(domain.CreateNotificationRequest{UserID: "u1", Message: "hola"})
	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/notifications", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	var got domain.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "n1", got.NotificationID)
}

func TestCreate_ValidationErrorMapsTo400(t *testing.T) {
	svc := &mockNotificationService{}
	svc.On("Create", mock.Anything, mock.Anything).Return(nil, domain.ErrBadRequest)

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/notifications", []byte(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreate_MalformedBody(t *testing.T) {
	svc := &mockNotificationService{}
	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/notifications", []byte(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestList_UsesClaimsAndQueryOptions(t *testing.T) {
	svc := &mockNotificationService{}
	svc.On("List", mock.Anything, "u1", domain.ListOptions{Filter: domain.FilterUnread, Limit: 10, Offset: 20}).
		Return([]domain.Notification{{NotificationID: "n1"}})

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/notifications?filter=unread&limit=10&offset=20", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var env PaginatedNotificationsEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, domain.FilterUnread, env.Filter)
	assert.Len(t, env.Data, 1)
	svc.AssertExpectations(t)
}

func TestList_MissingClaims(t *testing.T) {
	svc := &mockNotificationService{}
	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnreadCount_OK(t *testing.T) {
	svc := &mockNotificationService{}
	svc.On("UnreadCount", mock.Anything, "u1").Return(7)

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(http.MethodGet, "/notifications/unread-count", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var env CountEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 7, env.Count)
}

func TestMarkRead_NotOwnedMapsTo404(t *testing.T) {
	svc := &mockNotificationService{}
	svc.On("MarkRead", mock.Anything, "n1", "u1").Return(nil, domain.ErrNotFound)

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPatch, "/notifications/n1/read", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkAllRead_ReturnsCount(t *testing.T) {
	svc := &mockNotificationService{}
	svc.On("MarkAllRead", mock.Anything, "u1").Return(3)

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPatch, "/notifications/read-all", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var env CountEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 3, env.Count)
}

func TestDelete_OK(t *testing.T) {
	svc := &mockNotificationService{}
	svc.On("Delete", mock.Anything, "n1", "u1").Return(nil)

	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(http.MethodDelete, "/notifications/n1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBroadcast_OK(t *testing.T) {
	svc := &mockNotificationService{}
	result := &domain.BroadcastResult{BroadcastID: "b1", RecipientCount: 2}
	svc.On("Broadcast", mock.Anything, mock.Anything).Return(result, nil)

	body, _ := json.Marshal(domain.BroadcastRequest{Message: "aviso", TargetUsers: []string{"u1", "u2"}})
	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/broadcast", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.BroadcastResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.RecipientCount)
}
