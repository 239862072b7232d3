package models

// Watch is one registered search. SearchTerm is the natural key; Destination
// is opaque to everything except the sender that finally delivers to it.
type Watch struct {
	SearchTerm  string   `json:"search_term"`
	Destination string   `json:"destination"`
	KnownIDs    []string `json:"known_ids"`
}

// Listing is one ad as it appears on the results page. Price stays a display
// string, the site formats it in too many ways to parse.
type Listing struct {
	ID    string `json:"id"`
	Price string `json:"price"`
	URL   string `json:"url"`
}

// Notification is the message shape that travels through the queue.
type Notification struct {
	Destination string `json:"destination"`
	Text        string `json:"text"`
}
