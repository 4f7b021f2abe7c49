package web

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"medease/m/domain"
	"medease/m/internal/forms"
)

// Appointments

func (s *Server) appointmentsPage(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r, "Appointments")
	data.Appointments = appointmentList(r, s.api(r))
	data.Appointments.Load(r.Context())
	if gone(r) {
		return
	}
	s.render(w, r, http.StatusOK, "appointments", data)
}

// scheduleAppointment validates before touching the API: an incomplete form
// is rendered back without loading the list or posting. A list that failed to
// load does not block scheduling.
func (s *Server) scheduleAppointment(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r, "Appointments")
	f, err := forms.ParseAppointment(r)
	if err != nil {
		data.FormError = formMessage(err)
		s.render(w, r, http.StatusUnprocessableEntity, "appointments", data)
		return
	}

	b := s.api(r)
	data.Appointments = appointmentList(r, b)
	data.Appointments.Load(r.Context())
	if gone(r) {
		return
	}
	appt := domain.Appointment{PatientName: f.PatientName, Date: f.Date, Time: f.Time, Reason: f.Reason}
	created, err := data.Appointments.Create(r.Context(), func(ctx context.Context) (domain.Appointment, error) {
		return b.ScheduleAppointment(ctx, appt)
	}, msgSchedule)
	if err == nil {
		data.Flash = fmt.Sprintf("Appointment scheduled for %s on %s at %s", created.PatientName, created.Date, created.Time)
		data.Values = url.Values{}
	}
	s.render(w, r, http.StatusOK, "appointments", data)
}

// Orders

func (s *Server) loadOrdersPage(r *http.Request) (*pageData, Backend) {
	b := s.api(r)
	data := s.newPage(r, "Orders")
	data.Orders = orderList(r, b)
	data.Customers = customerList(r, b)
	data.Inventory = inventoryList(r, b)
	loadAll(r.Context(), data.Orders, data.Customers, data.Inventory)
	return data, b
}

func (s *Server) ordersPage(w http.ResponseWriter, r *http.Request) {
	data, _ := s.loadOrdersPage(r)
	if gone(r) {
		return
	}
	s.render(w, r, http.StatusOK, "orders", data)
}

// createOrder rejects a malformed form before any list is loaded except the
// two the form itself is built from.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	f, err := forms.ParseOrder(r)
	if err != nil {
		b := s.api(r)
		data := s.newPage(r, "Orders")
		data.Customers = customerList(r, b)
		data.Inventory = inventoryList(r, b)
		loadAll(r.Context(), data.Customers, data.Inventory)
		if gone(r) {
			return
		}
		data.FormError = formMessage(err)
		s.render(w, r, http.StatusUnprocessableEntity, "orders", data)
		return
	}

	data, b := s.loadOrdersPage(r)
	if gone(r) {
		return
	}
	order, msg := buildOrder(f, data.Inventory.Items(), data.Inventory.Ready())
	if msg != "" {
		data.FormError = msg
		s.render(w, r, http.StatusUnprocessableEntity, "orders", data)
		return
	}

	created, err := data.Orders.Create(r.Context(), func(ctx context.Context) (domain.Order, error) {
		return b.CreateOrder(ctx, order)
	}, msgCreateOrder)
	if err == nil {
		data.Flash = fmt.Sprintf("Order for %s created, total %.2f.", data.CustomerName(created.CustomerID), created.TotalAmount)
		data.Values = url.Values{}
	}
	s.render(w, r, http.StatusOK, "orders", data)
}

// buildOrder prices the form's lines from the loaded stock. It returns a
// message instead of an order when a line cannot be filled.
func buildOrder(f forms.OrderForm, stock []domain.InventoryItem, stockReady bool) (domain.Order, string) {
	if !stockReady {
		return domain.Order{}, msgLoadInventory
	}
	byID := make(map[string]domain.InventoryItem, len(stock))
	for _, it := range stock {
		byID[it.ID] = it
	}

	order := domain.Order{CustomerID: f.CustomerID}
	for _, line := range f.Lines {
		it, ok := byID[line.ItemID]
		if !ok {
			return domain.Order{}, "Selected item is no longer available"
		}
		if line.Quantity > it.Quantity {
			return domain.Order{}, fmt.Sprintf("Only %d %s in stock", it.Quantity, it.Name)
		}
		order.Items = append(order.Items, domain.InventoryItem{
			ID:       it.ID,
			Name:     it.Name,
			Quantity: line.Quantity,
			Price:    it.Price,
		})
	}
	order.TotalAmount = forms.OrderTotal(order)
	return order, ""
}

// Customers

func (s *Server) customersPage(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r, "Customers")
	data.Customers = customerList(r, s.api(r))
	data.Customers.Load(r.Context())
	if gone(r) {
		return
	}
	s.render(w, r, http.StatusOK, "customers", data)
}

func (s *Server) addCustomer(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r, "Customers")
	f, err := forms.ParseCustomer(r)
	if err != nil {
		data.FormError = formMessage(err)
		s.render(w, r, http.StatusUnprocessableEntity, "customers", data)
		return
	}

	b := s.api(r)
	data.Customers = customerList(r, b)
	data.Customers.Load(r.Context())
	if gone(r) {
		return
	}
	c := domain.Customer{Name: f.Name, Email: f.Email, Phone: f.Phone, Address: f.Address}
	created, err := data.Customers.Create(r.Context(), func(ctx context.Context) (domain.Customer, error) {
		return b.AddCustomer(ctx, c)
	}, msgAddCustomer)
	if err == nil {
		data.Flash = fmt.Sprintf("Added %s.", created.Name)
		data.Values = url.Values{}
	}
	s.render(w, r, http.StatusOK, "customers", data)
}
