package domain

import "sort"

// RecentSessions orders sessions by UpdatedAt descending and keeps at most
// limit entries. Ties are broken by id so the order is stable.
func RecentSessions(sessions map[SessionID]Session, limit int) []Session {
	list := make([]Session, 0, len(sessions))
	for _, session := range sessions {
		list = append(list, session.Clone())
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	if limit >= 0 && len(list) > limit {
		list = list[:limit]
	}

	return list
}
