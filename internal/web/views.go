package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"medease/m/domain"
	"medease/m/internal/forms"
	"medease/m/internal/listview"
)

const (
	msgLoadInventory    = "Failed to load inventory"
	msgLoadAppointments = "Failed to fetch appointments"
	msgLoadOrders       = "Failed to fetch orders"
	msgLoadCustomers    = "Failed to fetch customers"

	msgAddItem       = "Failed to add item"
	msgUpdateItem    = "Failed to update item"
	msgDeleteItem    = "Failed to delete item"
	msgSchedule      = "Failed to schedule appointment"
	msgCreateOrder   = "Failed to create order"
	msgAddCustomer   = "Failed to add customer"
	msgFillAllFields = "Please fill in all fields."
	msgWholeNumber   = "Quantity must be a whole number"
	msgNotNumber     = "Price must be a number"
)

// formMessage is the text shown for a form that failed to parse.
func formMessage(err error) string {
	switch {
	case errors.Is(err, forms.ErrIncomplete):
		return msgFillAllFields
	case errors.Is(err, forms.ErrWholeNumber):
		return msgWholeNumber
	case errors.Is(err, forms.ErrNotNumber):
		return msgNotNumber
	default:
		return err.Error()
	}
}

// logFailures returns a listview error hook that logs under view.
func logFailures(r *http.Request, view string) func(error) {
	return func(err error) {
		logrus.WithFields(logrus.Fields{
			"view":       view,
			"error":      err.Error(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Warn("view request failed")
	}
}

func inventoryList(r *http.Request, b Backend) *listview.List[domain.InventoryItem] {
	return listview.New[domain.InventoryItem](b.FetchInventory, msgLoadInventory).OnError(logFailures(r, "inventory"))
}

func appointmentList(r *http.Request, b Backend) *listview.List[domain.Appointment] {
	return listview.New[domain.Appointment](b.FetchAppointments, msgLoadAppointments).OnError(logFailures(r, "appointments"))
}

func orderList(r *http.Request, b Backend) *listview.List[domain.Order] {
	return listview.New[domain.Order](b.FetchOrders, msgLoadOrders).OnError(logFailures(r, "orders"))
}

func customerList(r *http.Request, b Backend) *listview.List[domain.Customer] {
	return listview.New[domain.Customer](b.FetchCustomers, msgLoadCustomers).OnError(logFailures(r, "customers"))
}

type loader interface {
	Load(ctx context.Context)
}

// loadAll loads every list concurrently. A failing list settles as Failed and
// does not cancel the others.
func loadAll(ctx context.Context, lists ...loader) {
	var g errgroup.Group
	for _, l := range lists {
		l := l
		g.Go(func() error {
			l.Load(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

// gone reports whether the client went away while lists were loading, in
// which case nothing is rendered.
func gone(r *http.Request) bool {
	return r.Context().Err() != nil
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	b := s.api(r)
	data := s.newPage(r, "Dashboard")
	data.Inventory = inventoryList(r, b)
	data.Appointments = appointmentList(r, b)
	data.Orders = orderList(r, b)
	data.Customers = customerList(r, b)

	loadAll(r.Context(), data.Inventory, data.Appointments, data.Orders, data.Customers)
	if gone(r) {
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", data)
}
