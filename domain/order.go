package domain

// Order lines reuse InventoryItem: Quantity is the ordered amount and Price the
// unit price at the time of ordering.
type Order struct {
	ID          string          `db:"id" json:"id"`
	CustomerID  string          `db:"customer_id" json:"customerId"`
	Items       []InventoryItem `db:"-" json:"items"`
	TotalAmount float64         `db:"total_amount" json:"totalAmount"`
	OrderDate   string          `db:"order_date" json:"orderDate"`
}
