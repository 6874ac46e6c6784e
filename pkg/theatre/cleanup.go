package theatre

import "context"

// CleanupContent permanently deletes every page and production, trashed
// ones included. Venues, bylines, media and menus are kept.
func (s *service) CleanupContent(ctx context.Context) (*CleanupResult, error) {
	if err := Authorize(ctx, CapManageOptions); err != nil {
		return nil, err
	}
	result := &CleanupResult{Deleted: map[Kind]int{}}
	for _, kind := range []Kind{KindPage, KindProduction} {
		items, err := s.repository.ListItems(ctx, ItemQuery{Kinds: []Kind{kind}})
		if err != nil {
			return result, err
		}
		for _, item := range items {
			if err := s.deleteItem(ctx, item); err != nil {
				return result, err
			}
			result.Deleted[kind]++
		}
	}
	s.logger.InfoContext(ctx, "content cleanup finished",
		"pages", result.Deleted[KindPage], "productions", result.Deleted[KindProduction])
	return result, nil
}
