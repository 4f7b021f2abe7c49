package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medease/m/domain"
	"medease/m/internal/client"
	"medease/m/internal/database"
	"medease/m/internal/migrations"
	"medease/m/internal/session"
)

type fakeBackend struct {
	mu sync.Mutex

	inventory    []domain.InventoryItem
	appointments []domain.Appointment
	orders       []domain.Order
	customers    []domain.Customer

	inventoryErr    error
	appointmentsErr error
	ordersErr       error
	customersErr    error
	mutateErr       error

	calls     map[string]int
	deleted   []string
	scheduled []domain.Appointment
	created   []domain.Order
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) FetchInventory(context.Context) ([]domain.InventoryItem, error) {
	f.hit("FetchInventory")
	return append([]domain.InventoryItem(nil), f.inventory...), f.inventoryErr
}

func (f *fakeBackend) AddInventoryItem(_ context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	f.hit("AddInventoryItem")
	item.ID = "new-item"
	return item, f.mutateErr
}

func (f *fakeBackend) UpdateInventoryItem(_ context.Context, id string, item domain.InventoryItem) (domain.InventoryItem, error) {
	f.hit("UpdateInventoryItem")
	item.ID = id
	return item, f.mutateErr
}

func (f *fakeBackend) DeleteInventoryItem(_ context.Context, id string) error {
	f.hit("DeleteInventoryItem")
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	f.mu.Unlock()
	return f.mutateErr
}

func (f *fakeBackend) FetchAppointments(context.Context) ([]domain.Appointment, error) {
	f.hit("FetchAppointments")
	return append([]domain.Appointment(nil), f.appointments...), f.appointmentsErr
}

func (f *fakeBackend) ScheduleAppointment(_ context.Context, appt domain.Appointment) (domain.Appointment, error) {
	f.hit("ScheduleAppointment")
	f.mu.Lock()
	f.scheduled = append(f.scheduled, appt)
	f.mu.Unlock()
	appt.ID = "new-appt"
	return appt, f.mutateErr
}

func (f *fakeBackend) FetchOrders(context.Context) ([]domain.Order, error) {
	f.hit("FetchOrders")
	return append([]domain.Order(nil), f.orders...), f.ordersErr
}

func (f *fakeBackend) CreateOrder(_ context.Context, order domain.Order) (domain.Order, error) {
	f.hit("CreateOrder")
	f.mu.Lock()
	f.created = append(f.created, order)
	f.mu.Unlock()
	order.ID = "new-order"
	order.OrderDate = "2024-05-01T10:00:00Z"
	return order, f.mutateErr
}

func (f *fakeBackend) FetchCustomers(context.Context) ([]domain.Customer, error) {
	f.hit("FetchCustomers")
	return append([]domain.Customer(nil), f.customers...), f.customersErr
}

func (f *fakeBackend) AddCustomer(_ context.Context, c domain.Customer) (domain.Customer, error) {
	f.hit("AddCustomer")
	c.ID = "new-customer"
	return c, f.mutateErr
}

type fakeAuth struct {
	err error
}

func (a *fakeAuth) Login(_ context.Context, email, _ string) (client.AuthResponse, error) {
	if a.err != nil {
		return client.AuthResponse{}, a.err
	}
	return client.AuthResponse{
		Token: "api-token",
		User:  domain.User{ID: "u1", Username: "ada", Email: email, Role: domain.RoleAdmin},
	}, nil
}

func (a *fakeAuth) Register(ctx context.Context, req client.RegisterRequest) (client.AuthResponse, error) {
	return a.Login(ctx, req.Email, req.Password)
}

type harness struct {
	handler http.Handler
	backend *fakeBackend
	auth    *fakeAuth

	mu     sync.Mutex
	tokens []string
}

func (h *harness) lastToken() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.tokens) == 0 {
		return ""
	}
	return h.tokens[len(h.tokens)-1]
}

func newHarness(t *testing.T, fb *fakeBackend) *harness {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.RunSessions(db))

	h := &harness{backend: fb, auth: &fakeAuth{}}
	mgr := session.NewManager(session.NewSQLStore(db), h.auth, session.Options{Secret: "test-secret", TTL: time.Hour})
	srv, err := New(mgr, func(token string) Backend {
		h.mu.Lock()
		h.tokens = append(h.tokens, token)
		h.mu.Unlock()
		return fb
	})
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	h.handler = srv.Router()
	return h
}

func (h *harness) do(method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := h.do(http.MethodPost, "/login", url.Values{"email": {"ada@medease.test"}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func rowsOf(body, kind string) int {
	return strings.Count(body, fmt.Sprintf(`data-row="%s"`, kind))
}

func stock(ids ...string) []domain.InventoryItem {
	out := make([]domain.InventoryItem, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.InventoryItem{ID: id, Name: "Item " + id, Quantity: int64(10 + i), Price: 2})
	}
	return out
}

func TestHealth(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	rec := h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHomeLinksFeatures(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	rec := h.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Welcome to MedEase")
	for _, link := range []string{"/appointments", "/inventory", "/orders", "/customers", "/dashboard"} {
		assert.Contains(t, body, `href="`+link+`"`)
	}
	assert.Contains(t, body, "2024 MedEase")
}

func TestListPagesRenderOneRowPerItem(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		fb := &fakeBackend{}
		for i := 0; i < n; i++ {
			id := fmt.Sprint(i)
			fb.inventory = append(fb.inventory, domain.InventoryItem{ID: id, Name: "Item " + id, Quantity: 1, Price: 1})
			fb.appointments = append(fb.appointments, domain.Appointment{ID: id, PatientName: "P" + id, Date: "2024-05-01", Time: "09:00"})
			fb.orders = append(fb.orders, domain.Order{ID: id, CustomerID: "c", OrderDate: "2024-05-01"})
			fb.customers = append(fb.customers, domain.Customer{ID: id, Name: "C" + id})
		}
		h := newHarness(t, fb)

		assert.Equal(t, n, rowsOf(h.do(http.MethodGet, "/inventory", nil).Body.String(), "inventory"))
		assert.Equal(t, n, rowsOf(h.do(http.MethodGet, "/appointments", nil).Body.String(), "appointment"))
		assert.Equal(t, n, rowsOf(h.do(http.MethodGet, "/orders", nil).Body.String(), "order"))
		assert.Equal(t, n, rowsOf(h.do(http.MethodGet, "/customers", nil).Body.String(), "customer"))
	}
}

func TestFailedFetchRendersFixedMessageAndNoRows(t *testing.T) {
	cause := &client.APIError{StatusCode: http.StatusNotFound, Message: "nope"}
	fb := &fakeBackend{
		inventory:       stock("a", "b"),
		inventoryErr:    cause,
		appointmentsErr: errors.New("dial tcp: connection refused"),
		ordersErr:       cause,
		customersErr:    context.DeadlineExceeded,
	}
	h := newHarness(t, fb)

	cases := []struct {
		path, kind, message string
	}{
		{"/inventory", "inventory", "Failed to load inventory"},
		{"/appointments", "appointment", "Failed to fetch appointments"},
		{"/orders", "order", "Failed to fetch orders"},
		{"/customers", "customer", "Failed to fetch customers"},
	}
	for _, tc := range cases {
		rec := h.do(http.MethodGet, tc.path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, tc.path)
		body := rec.Body.String()
		assert.Contains(t, body, tc.message, tc.path)
		assert.Contains(t, body, `data-state="failed"`, tc.path)
		assert.Zero(t, rowsOf(body, tc.kind), tc.path)
		assert.NotContains(t, body, "nope", tc.path)
	}
}

func TestInventoryPageShowsTotalValue(t *testing.T) {
	fb := &fakeBackend{inventory: []domain.InventoryItem{
		{ID: "a", Name: "Gauze", Quantity: 3, Price: 2},
		{ID: "b", Name: "Syringe", Quantity: 5, Price: 1},
	}}
	h := newHarness(t, fb)
	body := h.do(http.MethodGet, "/inventory", nil).Body.String()
	assert.Contains(t, body, `<strong data-total>11.00</strong>`)
}

func TestDeleteRemovesOnlyThatItem(t *testing.T) {
	fb := &fakeBackend{inventory: stock("a", "b", "c")}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/inventory/b/delete", url.Values{})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Equal(t, 2, rowsOf(body, "inventory"))
	assert.NotContains(t, body, `data-id="b"`)
	assert.Less(t, strings.Index(body, `data-id="a"`), strings.Index(body, `data-id="c"`))
	assert.Equal(t, []string{"b"}, fb.deleted)
	assert.Equal(t, 1, fb.count("FetchInventory"))
}

func TestDeleteFailureKeepsListAndShowsNotice(t *testing.T) {
	fb := &fakeBackend{inventory: stock("a", "b", "c"), mutateErr: &client.APIError{StatusCode: http.StatusForbidden}}
	h := newHarness(t, fb)

	body := h.do(http.MethodPost, "/inventory/b/delete", url.Values{}).Body.String()
	assert.Equal(t, 3, rowsOf(body, "inventory"))
	assert.Contains(t, body, "Failed to delete item")
	assert.Contains(t, body, "data-notice")
}

func TestDeleteOnFailedListDoesNotCallAPI(t *testing.T) {
	fb := &fakeBackend{inventoryErr: errors.New("down")}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/inventory/a/delete", url.Values{})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, fb.count("DeleteInventoryItem"))
	assert.Contains(t, rec.Body.String(), "Failed to load inventory")
}

func TestAddInventoryAppendsItem(t *testing.T) {
	fb := &fakeBackend{inventory: stock("a")}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/inventory", url.Values{"name": {"Gloves"}, "quantity": {"4"}, "price": {"3.5"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 2, rowsOf(body, "inventory"))
	assert.Contains(t, body, `data-id="new-item"`)
	assert.Contains(t, body, "Added Gloves.")
	assert.Equal(t, 1, fb.count("FetchInventory"))
}

func TestAddInventoryValidationNeverCallsAPI(t *testing.T) {
	fb := &fakeBackend{inventory: stock("a")}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/inventory", url.Values{"name": {"Gloves"}, "quantity": {"lots"}, "price": {"3"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Quantity must be a whole number")
	assert.Zero(t, fb.count("AddInventoryItem"))
	assert.Zero(t, fb.count("FetchInventory"))
}

func TestUpdateInventoryReplacesInPlace(t *testing.T) {
	fb := &fakeBackend{inventory: stock("a", "b")}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/inventory/a", url.Values{"name": {"Renamed"}, "quantity": {"7"}, "price": {"1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 2, rowsOf(body, "inventory"))
	assert.Contains(t, body, `value="Renamed"`)
	assert.Less(t, strings.Index(body, `data-id="a"`), strings.Index(body, `data-id="b"`))
}

func TestSchedulerRejectsIncompleteFormWithoutNetworkCalls(t *testing.T) {
	h := newHarness(t, &fakeBackend{})

	for _, form := range []url.Values{
		{"patientName": {""}, "date": {"2024-05-01"}, "time": {"09:30"}},
		{"patientName": {"Jane Roe"}, "date": {"2024-05-01"}, "time": {""}},
	} {
		rec := h.do(http.MethodPost, "/appointments", form)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Please fill in all fields.")
	}
	assert.Zero(t, h.backend.count("ScheduleAppointment"))
	assert.Zero(t, h.backend.count("FetchAppointments"))
}

func TestSchedulerWorksWhileListFetchFails(t *testing.T) {
	fb := &fakeBackend{appointmentsErr: errors.New("dial tcp: connection refused")}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/appointments", url.Values{
		"patientName": {"Jane Roe"}, "date": {"2024-05-02"}, "time": {"09:30"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 1, fb.count("ScheduleAppointment"))
	assert.Contains(t, body, "Appointment scheduled for Jane Roe on 2024-05-02 at 09:30")
	assert.Contains(t, body, "Failed to fetch appointments")
	assert.Zero(t, rowsOf(body, "appointment"))
}

func TestSchedulerFailureWhileListFetchFails(t *testing.T) {
	fb := &fakeBackend{appointmentsErr: errors.New("down"), mutateErr: errors.New("boom")}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/appointments", url.Values{
		"patientName": {"Jane Roe"}, "date": {"2024-05-02"}, "time": {"09:30"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Failed to schedule appointment")
	assert.NotContains(t, body, "Appointment scheduled for")
}

func TestSchedulerPostsCompleteForm(t *testing.T) {
	fb := &fakeBackend{}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/appointments", url.Values{
		"patientName": {"Jane Roe"}, "date": {"2024-05-02"}, "time": {"09:30"}, "reason": {"Checkup"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 1, rowsOf(body, "appointment"))
	assert.Contains(t, body, "Appointment scheduled for Jane Roe on 2024-05-02 at 09:30")
	require.Len(t, fb.scheduled, 1)
	assert.Equal(t, "Checkup", fb.scheduled[0].Reason)
}

func TestSchedulerDefaultsDateToToday(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	body := h.do(http.MethodGet, "/appointments", nil).Body.String()
	assert.Contains(t, body, `value="2024-05-01"`)
}

func TestCreateOrderPricesLinesFromStock(t *testing.T) {
	fb := &fakeBackend{
		inventory: []domain.InventoryItem{
			{ID: "a", Name: "Gauze", Quantity: 10, Price: 2.5},
			{ID: "b", Name: "Syringe", Quantity: 10, Price: 1},
		},
		customers: []domain.Customer{{ID: "c1", Name: "Acme Clinic"}},
	}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/orders", url.Values{"customerId": {"c1"}, "qty_b": {"3"}, "qty_a": {"2"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	require.Len(t, fb.created, 1)
	order := fb.created[0]
	assert.Equal(t, "c1", order.CustomerID)
	assert.Equal(t, 8.0, order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "a", order.Items[0].ID)
	assert.Equal(t, int64(2), order.Items[0].Quantity)

	assert.Equal(t, 1, rowsOf(body, "order"))
	assert.Contains(t, body, "Order for Acme Clinic created, total 8.00.")
}

func TestCreateOrderRejectsBadLines(t *testing.T) {
	fb := &fakeBackend{
		inventory: []domain.InventoryItem{{ID: "a", Name: "Gauze", Quantity: 1, Price: 2.5}},
		customers: []domain.Customer{{ID: "c1", Name: "Acme Clinic"}},
	}
	h := newHarness(t, fb)

	cases := map[string]url.Values{
		"Select at least one item": {"customerId": {"c1"}},
		"Only 1 Gauze in stock":    {"customerId": {"c1"}, "qty_a": {"5"}},
		"no longer available":      {"customerId": {"c1"}, "qty_zz": {"1"}},
		"Customer is required":     {"qty_a": {"1"}},
	}
	for want, form := range cases {
		rec := h.do(http.MethodPost, "/orders", form)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, want)
		assert.Contains(t, rec.Body.String(), want)
	}
	assert.Zero(t, fb.count("CreateOrder"))
}

func TestCreateOrderMalformedFormSkipsOrderList(t *testing.T) {
	fb := &fakeBackend{
		inventory: []domain.InventoryItem{{ID: "a", Name: "Gauze", Quantity: 1, Price: 2.5}},
		customers: []domain.Customer{{ID: "c1", Name: "Acme Clinic"}},
	}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/orders", url.Values{"customerId": {"c1"}, "qty_a": {"two"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Quantity must be a whole number")
	assert.Zero(t, fb.count("FetchOrders"))
	assert.Zero(t, fb.count("CreateOrder"))
}

func TestCreateOrderWhileOrderListFails(t *testing.T) {
	fb := &fakeBackend{
		inventory: []domain.InventoryItem{{ID: "a", Name: "Gauze", Quantity: 5, Price: 2}},
		customers: []domain.Customer{{ID: "c1", Name: "Acme Clinic"}},
		ordersErr: errors.New("down"),
	}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/orders", url.Values{"customerId": {"c1"}, "qty_a": {"2"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, fb.count("CreateOrder"))
	assert.Contains(t, rec.Body.String(), "Order for Acme Clinic created, total 4.00.")
}

func TestAddCustomer(t *testing.T) {
	fb := &fakeBackend{}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/customers", url.Values{"name": {"Acme"}, "email": {"bad"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email must be a valid email address")
	assert.Zero(t, fb.count("AddCustomer"))
	assert.Zero(t, fb.count("FetchCustomers"))

	rec = h.do(http.MethodPost, "/customers", url.Values{"name": {"Acme"}, "email": {"ops@acme.test"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, rowsOf(rec.Body.String(), "customer"))
}

func TestAddCustomerFailureShowsNotice(t *testing.T) {
	fb := &fakeBackend{mutateErr: errors.New("boom")}
	h := newHarness(t, fb)

	rec := h.do(http.MethodPost, "/customers", url.Values{"name": {"Acme"}, "email": {"ops@acme.test"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to add customer")
	assert.Zero(t, rowsOf(rec.Body.String(), "customer"))
}

func TestLoginUsesSessionTokenForAPI(t *testing.T) {
	h := newHarness(t, &fakeBackend{})

	h.do(http.MethodGet, "/inventory", nil)
	assert.Equal(t, "", h.lastToken())

	cookie := h.login(t)
	h.do(http.MethodGet, "/inventory", nil, cookie)
	assert.Equal(t, "api-token", h.lastToken())
}

func TestLoginErrors(t *testing.T) {
	h := newHarness(t, &fakeBackend{})

	rec := h.do(http.MethodPost, "/login", url.Values{"email": {"nope"}, "password": {"x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email must be a valid email address")

	h.auth.err = &client.APIError{StatusCode: http.StatusUnauthorized, Message: "invalid credentials"}
	rec = h.do(http.MethodPost, "/login", url.Values{"email": {"ada@medease.test"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")
	assert.Empty(t, rec.Result().Cookies())
}

func TestRegisterLogsIn(t *testing.T) {
	h := newHarness(t, &fakeBackend{})

	rec := h.do(http.MethodPost, "/register", url.Values{"username": {"ada"}, "email": {"ada@medease.test"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.NotEmpty(t, rec.Result().Cookies())

	rec = h.do(http.MethodPost, "/register", url.Values{"username": {"ada"}, "email": {"ada@medease.test"}, "password": {"123"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password must be at least 6 characters")
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t, &fakeBackend{})
	cookie := h.login(t)

	rec := h.do(http.MethodPost, "/logout", url.Values{}, cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	h.do(http.MethodGet, "/inventory", nil, cookie)
	assert.Equal(t, "", h.lastToken())
}

func TestDashboardRendersEveryPanel(t *testing.T) {
	fb := &fakeBackend{
		inventoryErr: errors.New("down"),
		appointments: []domain.Appointment{{ID: "ap1", PatientName: "Jane", Date: "2024-05-01", Time: "09:00"}},
		orders:       []domain.Order{{ID: "o1", CustomerID: "c1", OrderDate: "2024-05-01"}, {ID: "o2", CustomerID: "c1", OrderDate: "2024-05-01"}},
		customers:    []domain.Customer{{ID: "c1", Name: "Acme Clinic"}},
	}
	h := newHarness(t, fb)
	cookie := h.login(t)

	rec := h.do(http.MethodGet, "/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Welcome, ada")
	assert.Contains(t, body, "Failed to load inventory")
	assert.Zero(t, rowsOf(body, "inventory"))
	assert.Equal(t, 1, rowsOf(body, "appointment"))
	assert.Equal(t, 2, rowsOf(body, "order"))
	assert.Equal(t, 1, rowsOf(body, "customer"))
	assert.Contains(t, body, "Acme Clinic")
	assert.Contains(t, body, "Schedule an Appointment")

	for _, name := range []string{"FetchInventory", "FetchAppointments", "FetchOrders", "FetchCustomers"} {
		assert.Equal(t, 1, fb.count(name), name)
	}
}

func TestAbandonedRequestRendersNothing(t *testing.T) {
	h := newHarness(t, &fakeBackend{inventory: stock("a")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/inventory", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Body.String())
}
