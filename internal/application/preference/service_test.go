package preference

import (
	"context"
	"testing"

	"github.com/glowdesk/notify/internal/domain"
	"github.com/glowdesk/notify/internal/infrastructure/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestGet_ReturnsDefaultsWithoutPersisting(t *testing.T) {
	repo := memstore.NewPreferenceStore()
	svc := NewService(repo)

	p := svc.Get(context.Background(), "u1")
	require.NotNil(t, p)
	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.Push)
	assert.True(t, p.Email)
	assert.False(t, p.SMS)
	assert.False(t, p.QuietHoursEnabled)
	assert.Equal(t, 0, repo.Len())
}

func TestUpdate_PartialMerge(t *testing.T) {
	repo := memstore.NewPreferenceStore()
	svc := NewService(repo)

	p, err := svc.Update(context.Background(), "u1", domain.UpdatePreferencesRequest{
		SMS:               boolPtr(true),
		QuietHoursEnabled: boolPtr(true),
		QuietHoursStart:   strPtr("23:00"),
	})
	require.NoError(t, err)
	assert.True(t, p.SMS)
	assert.True(t, p.QuietHoursEnabled)
	assert.Equal(t, "23:00", p.QuietHoursStart)
	// Untouched fields keep their defaults.
	assert.True(t, p.Email)
	assert.Equal(t, "08:00", p.QuietHoursEnd)
	assert.False(t, p.UpdatedAt.IsZero())
	assert.Equal(t, 1, repo.Len())

	// A second partial update leaves the first one intact.
	p, err = svc.Update(context.Background(), "u1", domain.UpdatePreferencesRequest{
		Email: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, p.Email)
	assert.True(t, p.SMS)
	assert.Equal(t, "23:00", p.QuietHoursStart)
}

func TestUpdate_MergesCategoriesKeyByKey(t *testing.T) {
	repo := memstore.NewPreferenceStore()
	svc := NewService(repo)

	_, err := svc.Update(context.Background(), "u1", domain.UpdatePreferencesRequest{
		Categories: map[string]bool{"marketing": false, "billing": true},
	})
	require.NoError(t, err)

	p, err := svc.Update(context.Background(), "u1", domain.UpdatePreferencesRequest{
		Categories: map[string]bool{"marketing": true},
	})
	require.NoError(t, err)
	assert.True(t, p.Categories["marketing"])
	assert.True(t, p.Categories["billing"])
}

func TestUpdate_RejectsMalformedQuietHours(t *testing.T) {
	repo := memstore.NewPreferenceStore()
	svc := NewService(repo)

	_, err := svc.Update(context.Background(), "u1", domain.UpdatePreferencesRequest{
		QuietHoursStart: strPtr("25:99"),
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Equal(t, 0, repo.Len())
}
