// Package web serves the MedEase dashboard: server-rendered pages whose data
// comes from the REST API through a per-request, token-scoped Backend.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"medease/m/domain"
	"medease/m/internal/forms"
	"medease/m/internal/listview"
	"medease/m/internal/logging"
	"medease/m/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Backend is the slice of the API the pages use. *client.Client satisfies it.
type Backend interface {
	FetchInventory(ctx context.Context) ([]domain.InventoryItem, error)
	AddInventoryItem(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, id string, item domain.InventoryItem) (domain.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, id string) error
	FetchAppointments(ctx context.Context) ([]domain.Appointment, error)
	ScheduleAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	FetchOrders(ctx context.Context) ([]domain.Order, error)
	CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	FetchCustomers(ctx context.Context) ([]domain.Customer, error)
	AddCustomer(ctx context.Context, customer domain.Customer) (domain.Customer, error)
}

// BackendFor returns a Backend that authenticates as token. An empty token
// yields an anonymous backend.
type BackendFor func(token string) Backend

type Server struct {
	sessions *session.Manager
	backend  BackendFor
	pages    map[string]*template.Template
	now      func() time.Time
}

var pageFiles = []string{
	"home", "login", "register", "dashboard",
	"inventory", "appointments", "orders", "customers",
}

func New(sessions *session.Manager, backend BackendFor) (*Server, error) {
	funcs := template.FuncMap{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"date":  forms.FormatISODate,
	}
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/panels.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Server{sessions: sessions, backend: backend, pages: pages, now: time.Now}, nil
}

// Router wires up the dashboard.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Requests)
	r.Use(middleware.Recoverer)
	r.Use(s.sessions.Provide)

	r.Get("/health", s.health)
	r.Get("/", s.home)

	r.Get("/login", s.loginPage)
	r.Post("/login", s.login)
	r.Get("/register", s.registerPage)
	r.Post("/register", s.register)
	r.Post("/logout", s.logout)

	r.Get("/dashboard", s.dashboard)

	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", s.inventoryPage)
		r.Post("/", s.addInventory)
		r.Post("/{id}", s.updateInventory)
		r.Post("/{id}/delete", s.deleteInventory)
	})

	r.Get("/appointments", s.appointmentsPage)
	r.Post("/appointments", s.scheduleAppointment)
	r.Get("/orders", s.ordersPage)
	r.Post("/orders", s.createOrder)
	r.Get("/customers", s.customersPage)
	r.Post("/customers", s.addCustomer)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// pageData is what every page template receives. Panels read the lists they
// need; a nil list is simply not rendered.
type pageData struct {
	Title     string
	User      *domain.User
	Flash     string
	FormError string
	Values    url.Values
	Today     string

	// Manage renders inventory rows as edit forms.
	Manage bool

	Inventory    *listview.List[domain.InventoryItem]
	Appointments *listview.List[domain.Appointment]
	Orders       *listview.List[domain.Order]
	Customers    *listview.List[domain.Customer]
}

// InventoryValue is the total stock value of the loaded inventory.
func (p *pageData) InventoryValue() float64 {
	if p.Inventory == nil {
		return 0
	}
	return forms.CalculateInventoryValue(p.Inventory.Items())
}

// CustomerName resolves a customer id against the loaded customers, falling
// back to the id itself.
func (p *pageData) CustomerName(id string) string {
	if p.Customers != nil {
		for _, c := range p.Customers.Items() {
			if c.ID == id {
				return c.Name
			}
		}
	}
	return id
}

func (s *Server) newPage(r *http.Request, title string) *pageData {
	return &pageData{
		Title: title,
		User:  session.FromContext(r.Context()).User(),
		Today: s.now().Format("2006-01-02"),
	}
}

// api returns the backend for the request's session.
func (s *Server) api(r *http.Request) Backend {
	return s.backend(session.FromContext(r.Context()).Token())
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data *pageData) {
	// The session may have changed during the request (login, logout).
	data.User = session.FromContext(r.Context()).User()
	if data.Values == nil {
		data.Values = r.PostForm
	}

	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logrus.WithFields(logrus.Fields{
			"page":       name,
			"request_id": middleware.GetReqID(r.Context()),
		}).WithError(err).Error("unable to render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
