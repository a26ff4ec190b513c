package entity

// ProductSummary is the slice of catalog data a chat message attachment needs.
// Once cached for a session it is never evicted until the session switches.
type ProductSummary struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
	Handle   string  `json:"handle"`
	Stock    int     `json:"stock"`
}
