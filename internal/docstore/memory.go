package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gophora/engine/internal/model"
)

// MemoryStore is an in-process Store used for tests and throwaway runs.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]model.UserProfile
	general      []model.JobPosting
	personalized map[string][]model.JobPosting
	nextID       int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]model.UserProfile),
		personalized: make(map[string][]model.JobPosting),
	}
}

func (s *MemoryStore) GetUser(_ context.Context, userID string) (*model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) PutUser(_ context.Context, profile model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[profile.UserID] = profile
	return nil
}

func (s *MemoryStore) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) AddGeneralJob(_ context.Context, job model.JobPosting) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&job)
	job.ID = s.newID()
	s.general = append(s.general, job)
	return job.ID, nil
}

func (s *MemoryStore) HasGeneralJob(_ context.Context, sourceLink string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.general {
		if j.SourceLink == sourceLink {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListGeneralJobs(_ context.Context, opts ListOptions) ([]model.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return selectJobs(s.general, opts), nil
}

func (s *MemoryStore) DeactivateGeneralJobs(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for i := range s.general {
		if s.general[i].IsActive && s.general[i].ScrapedAt.Before(cutoff) {
			s.general[i].IsActive = false
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) AddPersonalizedJob(_ context.Context, userID string, job model.JobPosting) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stamp(&job)
	job.ID = s.newID()
	s.personalized[userID] = append(s.personalized[userID], job)
	return job.ID, nil
}

func (s *MemoryStore) HasPersonalizedJob(_ context.Context, userID, title, company string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.personalized[userID] {
		if j.Title == title && j.Company == company {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListPersonalizedJobs(_ context.Context, userID string, opts ListOptions) ([]model.JobPosting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return selectJobs(s.personalized[userID], opts), nil
}

func (s *MemoryStore) DeactivatePersonalizedJobs(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for userID := range s.personalized {
		jobs := s.personalized[userID]
		for i := range jobs {
			if jobs[i].IsActive && jobs[i].ScrapedAt.Before(cutoff) {
				jobs[i].IsActive = false
				n++
			}
		}
	}
	return n, nil
}

func (s *MemoryStore) Close(_ context.Context) error { return nil }

func (s *MemoryStore) newID() string {
	s.nextID++
	return fmt.Sprintf("mem-%d", s.nextID)
}

// selectJobs applies filtering, newest-first ordering, and paging.
func selectJobs(src []model.JobPosting, opts ListOptions) []model.JobPosting {
	out := make([]model.JobPosting, 0, len(src))
	for _, j := range src {
		if opts.ActiveOnly && !j.IsActive {
			continue
		}
		if opts.Category != "" && !strings.EqualFold(j.Category, opts.Category) {
			continue
		}
		out = append(out, j)
	}
	sort.SliceStable(out, func(i, k int) bool {
		return out[i].ScrapedAt.After(out[k].ScrapedAt)
	})
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}
