package chat

import "sync"

const recentWindow = 256

// recentIDs remembers the last few message ids delivered to one subscriber.
type recentIDs struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

func newRecentIDs() *recentIDs {
	return &recentIDs{seen: make(map[string]struct{}, recentWindow)}
}

// firstSighting records id and reports whether it was new.
func (r *recentIDs) firstSighting(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.seen[id]; ok {
		return false
	}
	if len(r.order) == recentWindow {
		delete(r.seen, r.order[0])
		r.order = r.order[1:]
	}
	r.seen[id] = struct{}{}
	r.order = append(r.order, id)
	return true
}
