package model

// Theme is a room-escape scenario that can be booked at any time slot.
type Theme struct {
	ID          uint64 // themes.id
	Name        string // themes.name
	Description string // themes.description
	Thumbnail   string // themes.thumbnail
}

// ThemeCount is the number of reservations one theme received in a period.
type ThemeCount struct {
	ThemeID uint64
	Count   int
}
