package directory

import "context"

// Service exposes the directory lookups the core needs.
type Service struct {
	repo *Repository
}

// NewService creates a directory service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Exists reports whether a user id resolves in the directory.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// ActiveIDs returns the set of currently active user ids.
func (s *Service) ActiveIDs(ctx context.Context) (map[string]struct{}, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(users))
	for _, user := range users {
		if user.Active {
			ids[user.ID] = struct{}{}
		}
	}
	return ids, nil
}

// FilterActive drops ids that do not belong to an active user, preserving
// order and removing duplicates.
func (s *Service) FilterActive(ctx context.Context, ids []string) ([]string, error) {
	active, err := s.ActiveIDs(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := active[id]; !ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result, nil
}
