package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"medease/m/domain"
	"medease/m/internal/events"
	"medease/m/internal/forms"
)

// Inventory handlers

const inventoryColumns = `id, name, quantity, price, created_at, updated_at`

func (h *Handler) listInventory(w http.ResponseWriter, r *http.Request) {
	items := []domain.InventoryItem{}
	if err := h.db.SelectContext(r.Context(), &items, `SELECT `+inventoryColumns+` FROM inventory ORDER BY created_at, name`); err != nil {
		internalError(w, err, "unable to list inventory")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func validInventory(item domain.InventoryItem) string {
	if strings.TrimSpace(item.Name) == "" {
		return "name is required"
	}
	if item.Quantity < 0 || item.Price < 0 {
		return "quantity and price must not be negative"
	}
	return ""
}

func (h *Handler) addInventory(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	var req domain.InventoryItem
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validInventory(req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	id := uuid.NewString()
	_, err := h.db.ExecContext(r.Context(), `INSERT INTO inventory (id, name, quantity, price) VALUES ($1, $2, $3, $4)`,
		id, strings.TrimSpace(req.Name), req.Quantity, req.Price)
	if err != nil {
		internalError(w, err, "unable to add inventory")
		return
	}
	var item domain.InventoryItem
	if err := h.db.GetContext(r.Context(), &item, `SELECT `+inventoryColumns+` FROM inventory WHERE id = $1`, id); err != nil {
		internalError(w, err, "unable to load inventory")
		return
	}
	h.events.Publish(r.Context(), events.InventoryItemCreated, item.ID, item)
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) updateInventory(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	id := chi.URLParam(r, "id")
	var req domain.InventoryItem
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := validInventory(req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	res, err := h.db.ExecContext(r.Context(), `UPDATE inventory SET name = $1, quantity = $2, price = $3, updated_at = CURRENT_TIMESTAMP WHERE id = $4`,
		strings.TrimSpace(req.Name), req.Quantity, req.Price, id)
	if err != nil {
		internalError(w, err, "unable to update inventory")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	var item domain.InventoryItem
	if err := h.db.GetContext(r.Context(), &item, `SELECT `+inventoryColumns+` FROM inventory WHERE id = $1`, id); err != nil {
		internalError(w, err, "unable to load inventory")
		return
	}
	h.events.Publish(r.Context(), events.InventoryItemUpdated, item.ID, item)
	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteInventory(w http.ResponseWriter, r *http.Request) {
	if !h.requireRole(w, r, domain.RoleAdmin) {
		return
	}
	id := chi.URLParam(r, "id")
	res, err := h.db.ExecContext(r.Context(), `DELETE FROM inventory WHERE id = $1`, id)
	if err != nil {
		internalError(w, err, "unable to delete inventory")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		respondError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	h.events.Publish(r.Context(), events.InventoryItemDeleted, id, map[string]string{"id": id})
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Appointment handlers

const appointmentColumns = `id, user_id, patient_name, date, time, reason, created_at`

func (h *Handler) listAppointments(w http.ResponseWriter, r *http.Request) {
	appts := []domain.Appointment{}
	if err := h.db.SelectContext(r.Context(), &appts, `SELECT `+appointmentColumns+` FROM appointments ORDER BY date, time`); err != nil {
		internalError(w, err, "unable to list appointments")
		return
	}
	respondJSON(w, http.StatusOK, appts)
}

func (h *Handler) scheduleAppointment(w http.ResponseWriter, r *http.Request) {
	var req domain.Appointment
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	if req.Date == "" || req.Time == "" {
		respondError(w, http.StatusBadRequest, "date and time are required")
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		respondError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD format")
		return
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		respondError(w, http.StatusBadRequest, "time must be in HH:MM format")
		return
	}

	appt := domain.Appointment{
		ID:          uuid.NewString(),
		UserID:      userIDFromContext(r),
		PatientName: strings.TrimSpace(req.PatientName),
		Date:        req.Date,
		Time:        req.Time,
		Reason:      strings.TrimSpace(req.Reason),
	}
	_, err := h.db.ExecContext(r.Context(), `INSERT INTO appointments (id, user_id, patient_name, date, time, reason) VALUES ($1, $2, $3, $4, $5, $6)`,
		appt.ID, appt.UserID, appt.PatientName, appt.Date, appt.Time, appt.Reason)
	if err != nil {
		internalError(w, err, "unable to schedule appointment")
		return
	}
	h.events.Publish(r.Context(), events.AppointmentScheduled, appt.ID, appt)
	respondJSON(w, http.StatusCreated, appt)
}

// Customer handlers

const customerColumns = `id, name, email, phone, address, created_at`

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers := []domain.Customer{}
	if err := h.db.SelectContext(r.Context(), &customers, `SELECT `+customerColumns+` FROM customers ORDER BY created_at, name`); err != nil {
		internalError(w, err, "unable to list customers")
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *Handler) addCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.Customer
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	c := domain.Customer{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}
	if c.Name == "" || c.Email == "" {
		respondError(w, http.StatusBadRequest, "name and email are required")
		return
	}
	_, err := h.db.ExecContext(r.Context(), `INSERT INTO customers (id, name, email, phone, address) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Email, c.Phone, c.Address)
	if err != nil {
		internalError(w, err, "unable to add customer")
		return
	}
	h.events.Publish(r.Context(), events.CustomerAdded, c.ID, c)
	respondJSON(w, http.StatusCreated, c)
}

// Order handlers

type orderItemRow struct {
	OrderID  string  `db:"order_id"`
	ItemID   string  `db:"item_id"`
	Name     string  `db:"name"`
	Quantity int64   `db:"quantity"`
	Price    float64 `db:"price"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders := []domain.Order{}
	if err := h.db.SelectContext(r.Context(), &orders, `SELECT id, customer_id, total_amount, order_date FROM orders ORDER BY order_date DESC, id`); err != nil {
		internalError(w, err, "unable to list orders")
		return
	}
	if len(orders) == 0 {
		respondJSON(w, http.StatusOK, orders)
		return
	}

	var rows []orderItemRow
	if err := h.db.SelectContext(r.Context(), &rows, `SELECT order_id, item_id, name, quantity, price FROM order_items ORDER BY order_id, position`); err != nil {
		internalError(w, err, "unable to load order items")
		return
	}
	itemsByOrder := make(map[string][]domain.InventoryItem)
	for _, row := range rows {
		itemsByOrder[row.OrderID] = append(itemsByOrder[row.OrderID], domain.InventoryItem{
			ID: row.ItemID, Name: row.Name, Quantity: row.Quantity, Price: row.Price,
		})
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.InventoryItem{}
		}
	}
	respondJSON(w, http.StatusOK, orders)
}

// createOrder stores the order as sent. totalAmount is not checked against the
// lines; the dashboard computes it.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.Order
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.CustomerID) == "" || len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "customerId and at least one item are required")
		return
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 || item.Price < 0 {
			respondError(w, http.StatusBadRequest, "each item needs a positive quantity and a non-negative price")
			return
		}
	}

	var exists bool
	if err := h.db.GetContext(r.Context(), &exists, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)`, req.CustomerID); err != nil {
		internalError(w, err, "unable to check customer")
		return
	}
	if !exists {
		respondError(w, http.StatusBadRequest, "customer not found")
		return
	}

	order := domain.Order{
		ID:          uuid.NewString(),
		CustomerID:  req.CustomerID,
		Items:       req.Items,
		TotalAmount: req.TotalAmount,
		OrderDate:   strings.TrimSpace(req.OrderDate),
	}
	if order.OrderDate == "" {
		order.OrderDate = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := h.db.BeginTxx(r.Context(), nil)
	if err != nil {
		internalError(w, err, "unable to start order")
		return
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(r.Context(), `INSERT INTO orders (id, customer_id, total_amount, order_date) VALUES ($1, $2, $3, $4)`,
		order.ID, order.CustomerID, order.TotalAmount, order.OrderDate); err != nil {
		internalError(w, err, "unable to create order")
		return
	}
	for i, item := range order.Items {
		if _, err := tx.ExecContext(r.Context(), `INSERT INTO order_items (order_id, position, item_id, name, quantity, price) VALUES ($1, $2, $3, $4, $5, $6)`,
			order.ID, i, item.ID, item.Name, item.Quantity, item.Price); err != nil {
			internalError(w, err, "unable to save order items")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		internalError(w, err, "unable to finalize order")
		return
	}

	if computed := forms.OrderTotal(order); computed != order.TotalAmount {
		logrus.WithFields(logrus.Fields{
			"order_id": order.ID,
			"sent":     order.TotalAmount,
			"computed": computed,
		}).Warn("order total does not match its lines")
	}
	h.events.Publish(r.Context(), events.OrderCreated, order.ID, order)
	respondJSON(w, http.StatusCreated, order)
}
