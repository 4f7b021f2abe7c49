package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"medease/m/domain"
	"medease/m/internal/forms"
	"medease/m/internal/listview"
)

func itemID(id string) func(domain.InventoryItem) bool {
	return func(it domain.InventoryItem) bool { return it.ID == id }
}

// loadInventoryPage loads the inventory list the page shows.
func (s *Server) loadInventoryPage(r *http.Request) (*pageData, Backend) {
	b := s.api(r)
	data := s.newPage(r, "Inventory")
	data.Manage = true
	data.Inventory = inventoryList(r, b)
	data.Inventory.Load(r.Context())
	return data, b
}

func (s *Server) inventoryPage(w http.ResponseWriter, r *http.Request) {
	data, _ := s.loadInventoryPage(r)
	if gone(r) {
		return
	}
	s.render(w, r, http.StatusOK, "inventory", data)
}

// addInventory validates before loading; an invalid form is shown without the
// list.
func (s *Server) addInventory(w http.ResponseWriter, r *http.Request) {
	f, err := forms.ParseInventory(r)
	if err != nil {
		data := s.newPage(r, "Inventory")
		data.FormError = formMessage(err)
		s.render(w, r, http.StatusUnprocessableEntity, "inventory", data)
		return
	}

	data, b := s.loadInventoryPage(r)
	if gone(r) {
		return
	}
	item := domain.InventoryItem{Name: f.Name, Quantity: f.Quantity, Price: f.Price}
	created, err := data.Inventory.Create(r.Context(), func(ctx context.Context) (domain.InventoryItem, error) {
		return b.AddInventoryItem(ctx, item)
	}, msgAddItem)
	if err == nil {
		data.Flash = fmt.Sprintf("Added %s.", created.Name)
		data.Values = url.Values{}
	}
	s.render(w, r, http.StatusOK, "inventory", data)
}

func (s *Server) updateInventory(w http.ResponseWriter, r *http.Request) {
	data, b := s.loadInventoryPage(r)
	if gone(r) {
		return
	}
	id := chi.URLParam(r, "id")
	f, err := forms.ParseInventory(r)
	if err != nil {
		data.Inventory.SetNotice(formMessage(err))
		s.render(w, r, http.StatusUnprocessableEntity, "inventory", data)
		return
	}

	item := domain.InventoryItem{ID: id, Name: f.Name, Quantity: f.Quantity, Price: f.Price}
	updated, err := data.Inventory.Replace(r.Context(), itemID(id), func(ctx context.Context) (domain.InventoryItem, error) {
		return b.UpdateInventoryItem(ctx, id, item)
	}, msgUpdateItem)
	if err == nil {
		data.Flash = fmt.Sprintf("Updated %s.", updated.Name)
	}
	data.Values = url.Values{}
	s.render(w, r, statusFor(err), "inventory", data)
}

func (s *Server) deleteInventory(w http.ResponseWriter, r *http.Request) {
	data, b := s.loadInventoryPage(r)
	if gone(r) {
		return
	}
	id := chi.URLParam(r, "id")
	err := data.Inventory.Remove(r.Context(), itemID(id), func(ctx context.Context) error {
		return b.DeleteInventoryItem(ctx, id)
	}, msgDeleteItem)
	s.render(w, r, statusFor(err), "inventory", data)
}

// statusFor picks the response status after a mutation. Remote failures are
// reported on the page itself, so only a list that never loaded is an error.
func statusFor(err error) int {
	if errors.Is(err, listview.ErrNotReady) {
		return http.StatusBadGateway
	}
	return http.StatusOK
}
