// Package forms parses and validates the dashboard's HTML forms.
package forms

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Parse errors that callers translate into their own wording.
var (
	ErrIncomplete  = errors.New("forms: required fields missing")
	ErrWholeNumber = errors.New("forms: quantity is not a whole number")
	ErrNotNumber   = errors.New("forms: price is not a number")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("label"); name != "" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("medemail", func(fl validator.FieldLevel) bool {
		return ValidateEmail(fl.Field().String())
	})
	return v
}

type LoginForm struct {
	Email    string `label:"Email" validate:"required,medemail"`
	Password string `label:"Password" validate:"required"`
}

type RegisterForm struct {
	Username string `label:"Username" validate:"required"`
	Email    string `label:"Email" validate:"required,medemail"`
	Password string `label:"Password" validate:"required,min=6"`
}

type InventoryForm struct {
	Name     string  `label:"Name" validate:"required"`
	Quantity int64   `label:"Quantity" validate:"gte=0"`
	Price    float64 `label:"Price" validate:"gte=0"`
}

type AppointmentForm struct {
	PatientName string `label:"Patient name" validate:"required"`
	Date        string `label:"Date" validate:"required,datetime=2006-01-02"`
	Time        string `label:"Time" validate:"required,datetime=15:04"`
	Reason      string `label:"Reason"`
}

type CustomerForm struct {
	Name    string `label:"Name" validate:"required"`
	Email   string `label:"Email" validate:"required,medemail"`
	Phone   string `label:"Phone"`
	Address string `label:"Address"`
}

type OrderLine struct {
	ItemID   string `label:"Item" validate:"required"`
	Quantity int64  `label:"Quantity" validate:"gt=0"`
}

type OrderForm struct {
	CustomerID string      `label:"Customer" validate:"required"`
	Lines      []OrderLine `label:"Items" validate:"min=1,dive"`
}

func field(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}

func ParseLogin(r *http.Request) (LoginForm, error) {
	f := LoginForm{Email: field(r, "email"), Password: r.PostFormValue("password")}
	return f, Validate(f)
}

func ParseRegister(r *http.Request) (RegisterForm, error) {
	f := RegisterForm{
		Username: field(r, "username"),
		Email:    field(r, "email"),
		Password: r.PostFormValue("password"),
	}
	return f, Validate(f)
}

func ParseInventory(r *http.Request) (InventoryForm, error) {
	f := InventoryForm{Name: field(r, "name")}
	var err error
	if f.Quantity, err = strconv.ParseInt(field(r, "quantity"), 10, 64); err != nil {
		return f, ErrWholeNumber
	}
	if f.Price, err = strconv.ParseFloat(field(r, "price"), 64); err != nil {
		return f, ErrNotNumber
	}
	return f, Validate(f)
}

// ParseAppointment collapses every validation failure into ErrIncomplete.
func ParseAppointment(r *http.Request) (AppointmentForm, error) {
	f := AppointmentForm{
		PatientName: field(r, "patientName"),
		Date:        field(r, "date"),
		Time:        field(r, "time"),
		Reason:      field(r, "reason"),
	}
	if err := Validate(f); err != nil {
		return f, ErrIncomplete
	}
	return f, nil
}

func ParseCustomer(r *http.Request) (CustomerForm, error) {
	f := CustomerForm{
		Name:    field(r, "name"),
		Email:   field(r, "email"),
		Phone:   field(r, "phone"),
		Address: field(r, "address"),
	}
	return f, Validate(f)
}

// ParseOrder reads the customer and every qty_<itemID> input with a positive
// quantity. Lines come back sorted by item id.
func ParseOrder(r *http.Request) (OrderForm, error) {
	if err := r.ParseForm(); err != nil {
		return OrderForm{}, fmt.Errorf("parse form: %w", err)
	}
	f := OrderForm{CustomerID: field(r, "customerId")}
	for key, values := range r.PostForm {
		id, ok := strings.CutPrefix(key, "qty_")
		if !ok || id == "" || len(values) == 0 {
			continue
		}
		raw := strings.TrimSpace(values[0])
		if raw == "" || raw == "0" {
			continue
		}
		qty, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, ErrWholeNumber
		}
		f.Lines = append(f.Lines, OrderLine{ItemID: id, Quantity: qty})
	}
	sort.Slice(f.Lines, func(i, j int) bool { return f.Lines[i].ItemID < f.Lines[j].ItemID })
	return f, Validate(f)
}

// Validate runs the struct's validate tags and returns a readable error.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, message(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "medemail":
		return name + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "Select at least one item"
		}
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "gte":
		return name + " must not be negative"
	case "gt":
		return name + " must be greater than zero"
	case "datetime":
		return name + " is not valid"
	default:
		return name + " is invalid"
	}
}
