package client

import "github.com/dkeye/HelpWave/internal/domain"

// Repository maps item id to item. It is owned by the session
// controller's event loop and is not safe for concurrent use.
type Repository struct {
	items map[domain.ItemID]*domain.Item
	order []domain.ItemID // newest first
}

func NewRepository() *Repository {
	return &Repository{items: make(map[domain.ItemID]*domain.Item)}
}

// Replace swaps the whole content for a snapshot, keeping snapshot order.
func (r *Repository) Replace(items []domain.Item) {
	r.Clear()
	for _, it := range items {
		if _, ok := r.items[it.ID]; ok {
			continue
		}
		c := it.Clone()
		r.items[it.ID] = &c
		r.order = append(r.order, it.ID)
	}
}

func (r *Repository) Clear() {
	r.items = make(map[domain.ItemID]*domain.Item)
	r.order = nil
}

func (r *Repository) Len() int { return len(r.order) }

// Prepend adds a new item in front. An id already held is left alone.
func (r *Repository) Prepend(it domain.Item) bool {
	if _, ok := r.items[it.ID]; ok {
		return false
	}
	c := it.Clone()
	if c.Status == "" {
		c.Status = domain.StatusOpen
	}
	r.items[it.ID] = &c
	r.order = append([]domain.ItemID{it.ID}, r.order...)
	return true
}

// AppendReply appends to the item's reply sequence. A reply whose non-zero
// id is already present is skipped.
func (r *Repository) AppendReply(id domain.ItemID, reply domain.Reply) bool {
	it, ok := r.items[id]
	if !ok || it.HasReply(reply.ID) {
		return false
	}
	it.Replies = append(it.Replies, reply)
	return true
}

func (r *Repository) Resolve(id domain.ItemID) bool {
	it, ok := r.items[id]
	if !ok || it.Status == domain.StatusResolved {
		return false
	}
	it.Status = domain.StatusResolved
	return true
}

func (r *Repository) Flag(id domain.ItemID) bool {
	it, ok := r.items[id]
	if !ok || it.Flagged {
		return false
	}
	it.Flagged = true
	return true
}

func (r *Repository) Get(id domain.ItemID) (domain.Item, bool) {
	it, ok := r.items[id]
	if !ok {
		return domain.Item{}, false
	}
	return it.Clone(), true
}

// Open returns copies of the open doubts, newest first.
func (r *Repository) Open() []domain.Item {
	return r.filter(func(it *domain.Item) bool { return it.IsOpen() })
}

// Resolved returns copies of the resolved doubts, newest first.
func (r *Repository) Resolved() []domain.Item {
	return r.filter(func(it *domain.Item) bool { return it.IsResolved() })
}

func (r *Repository) filter(keep func(*domain.Item) bool) []domain.Item {
	out := make([]domain.Item, 0, len(r.order))
	for _, id := range r.order {
		it := r.items[id]
		if it.Type != domain.ItemDoubt || !keep(it) {
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}
