package memstore

import (
	"sync"

	"github.com/glowdesk/notify/internal/domain"
)

// PreferenceStore holds per-user delivery preferences. Defaults are
// synthesized on read without being persisted; the first explicit update
// stores them. There is no delete; preferences live for the user's lifetime.
type PreferenceStore struct {
	mu    sync.RWMutex
	prefs map[string]*domain.UserPreferences
}

func NewPreferenceStore() *PreferenceStore {
	return &PreferenceStore{prefs: make(map[string]*domain.UserPreferences)}
}

// Get returns the stored preferences or system defaults when none exist.
func (s *PreferenceStore) Get(userID string) *domain.UserPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.prefs[userID]; ok {
		cp := clonePrefs(p)
		return cp
	}
	return domain.DefaultPreferences(userID)
}

// Put stores the full preference record for the user.
func (s *PreferenceStore) Put(p *domain.UserPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[p.UserID] = clonePrefs(p)
}

// Len returns the number of users with explicitly stored preferences.
func (s *PreferenceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prefs)
}

// Export returns a copy of every stored preference record for snapshotting.
func (s *PreferenceStore) Export() []domain.UserPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserPreferences, 0, len(s.prefs))
	for _, p := range s.prefs {
		out = append(out, *clonePrefs(p))
	}
	return out
}

// Restore replaces the store contents with the given records.
func (s *PreferenceStore) Restore(records []domain.UserPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = make(map[string]*domain.UserPreferences, len(records))
	for i := range records {
		p := records[i]
		s.prefs[p.UserID] = clonePrefs(&p)
	}
}

// clonePrefs deep-copies a preference record, including the category map.
func clonePrefs(p *domain.UserPreferences) *domain.UserPreferences {
	cp := *p
	cp.Categories = make(map[string]bool, len(p.Categories))
	for k, v := range p.Categories {
		cp.Categories[k] = v
	}
	return &cp
}
