package domain

type InventoryItem struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	Quantity  int64   `db:"quantity" json:"quantity"`
	Price     float64 `db:"price" json:"price"`
	CreatedAt string  `db:"created_at" json:"createdAt,omitempty"`
	UpdatedAt string  `db:"updated_at" json:"updatedAt,omitempty"`
}
