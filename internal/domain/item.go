package domain

type ItemID int64

type ItemType string

const (
	ItemDoubt ItemType = "doubt"
	// ItemBlocker is accepted on input but stored as a doubt.
	ItemBlocker ItemType = "blocker"
)

type ItemStatus string

const (
	StatusOpen     ItemStatus = "open"
	StatusResolved ItemStatus = "resolved"
)

// Item is a posted question with its replies.
type Item struct {
	ID          ItemID     `json:"id"`
	RoomID      int64      `json:"room_id,omitempty"`
	GuestName   GuestName  `json:"guest_name"`
	Type        ItemType   `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      ItemStatus `json:"status"`
	Flagged     bool       `json:"flagged"`
	CreatedAt   string     `json:"created_at,omitempty"`
	Replies     []Reply    `json:"replies"`
}

// Reply is immutable once created. ID is zero when the backend does not
// supply one.
type Reply struct {
	ID        int64     `json:"id,omitempty"`
	ItemID    ItemID    `json:"item_id,omitempty"`
	GuestName GuestName `json:"guest_name"`
	Message   string    `json:"message"`
	CreatedAt string    `json:"created_at,omitempty"`
}

// Clone returns a deep copy so readers never share the reply slice.
func (it Item) Clone() Item {
	out := it
	out.Replies = make([]Reply, len(it.Replies))
	copy(out.Replies, it.Replies)
	return out
}

func (it Item) IsOpen() bool     { return it.Status != StatusResolved }
func (it Item) IsResolved() bool { return it.Status == StatusResolved }

// HasReply reports whether a reply with the given non-zero id is present.
func (it Item) HasReply(id int64) bool {
	if id == 0 {
		return false
	}
	for _, r := range it.Replies {
		if r.ID == id {
			return true
		}
	}
	return false
}
