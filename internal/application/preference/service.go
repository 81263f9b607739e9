package preference

import (
	"context"
	"fmt"
	"time"

	"github.com/glowdesk/notify/internal/domain"
	"github.com/glowdesk/notify/internal/pkg/validate"
)

// Service manages per-user delivery preferences with partial-merge updates.
type Service interface {
	Get(ctx context.Context, userID string) *domain.UserPreferences
	Update(ctx context.Context, userID string, req domain.UpdatePreferencesRequest) (*domain.UserPreferences, error)
}

type preferenceStore interface {
	Get(userID string) *domain.UserPreferences
	Put(p *domain.UserPreferences)
}

type service struct {
	repo preferenceStore
}

func NewService(repo preferenceStore) Service {
	return &service{repo: repo}
}

// Get returns stored preferences or system defaults; defaults are not
// persisted until the first explicit update.
func (s *service) Get(_ context.Context, userID string) *domain.UserPreferences {
	return s.repo.Get(userID)
}

// Update merges the supplied fields onto the current (or default)
// preferences, stamps UpdatedAt, and stores the result. Only non-nil fields
// overwrite; Categories entries are merged key by key.
func (s *service) Update(_ context.Context, userID string, req domain.UpdatePreferencesRequest) (*domain.UserPreferences, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	p := s.repo.Get(userID)
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.SMS != nil {
		p.SMS = *req.SMS
	}
	if req.Push != nil {
		p.Push = *req.Push
	}
	if req.Desktop != nil {
		p.Desktop = *req.Desktop
	}
	if req.Sound != nil {
		p.Sound = *req.Sound
	}
	if req.QuietHoursEnabled != nil {
		p.QuietHoursEnabled = *req.QuietHoursEnabled
	}
	if req.QuietHoursStart != nil {
		p.QuietHoursStart = *req.QuietHoursStart
	}
	if req.QuietHoursEnd != nil {
		p.QuietHoursEnd = *req.QuietHoursEnd
	}
	for category, enabled := range req.Categories {
		p.Categories[category] = enabled
	}
	p.UpdatedAt = time.Now().UTC()
	s.repo.Put(p)
	return p, nil
}
