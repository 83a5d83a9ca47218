package checkout_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cart-service/internal/cart"
	"cart-service/internal/checkout"
)

func validCustomer() checkout.Customer {
	return checkout.Customer{
		Name:    "Rahim Uddin",
		Phone:   "01712345678",
		Address: "House 12, Road 5, Dhanmondi",
		City:    "Dhaka",
	}
}

func TestValidateCustomer(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*checkout.Customer)
		wantField string
	}{
		{"valid customer", func(c *checkout.Customer) {}, ""},
		{"empty name", func(c *checkout.Customer) { c.Name = "" }, "name"},
		{"name too long", func(c *checkout.Customer) { c.Name = strings.Repeat("x", 31) }, "name"},
		{"name at limit", func(c *checkout.Customer) { c.Name = strings.Repeat("x", 30) }, ""},
		{"phone 11 digits", func(c *checkout.Customer) { c.Phone = "12345678901" }, ""},
		{"phone 10 digits", func(c *checkout.Customer) { c.Phone = "1234567890" }, "phone"},
		{"phone 12 digits", func(c *checkout.Customer) { c.Phone = "123456789012" }, "phone"},
		{"phone with letters", func(c *checkout.Customer) { c.Phone = "0171234567a" }, "phone"},
		{"phone with sign", func(c *checkout.Customer) { c.Phone = "+8801712345" }, "phone"},
		{"empty address", func(c *checkout.Customer) { c.Address = "" }, "address"},
		{"address too long", func(c *checkout.Customer) { c.Address = strings.Repeat("x", 101) }, "address"},
		{"address at limit", func(c *checkout.Customer) { c.Address = strings.Repeat("x", 100) }, ""},
		{"empty city", func(c *checkout.Customer) { c.City = "" }, "city"},
		{"unknown city", func(c *checkout.Customer) { c.City = "Chittagong" }, "city"},
		{"other city", func(c *checkout.Customer) { c.City = "Other" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customer := validCustomer()
			tt.mutate(&customer)

			err := checkout.ValidateCustomer(customer)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var vErr *checkout.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.NotEmpty(t, vErr.Message)
		})
	}
}

func TestBuildDraft(t *testing.T) {
	items := []cart.Item{
		{ProductID: "p1", Name: "Phone case", UnitPrice: decimal.NewFromInt(100), Quantity: 2},
		{ProductID: "p2", Name: "Charger", UnitPrice: decimal.NewFromInt(50), Quantity: 1},
	}
	customer := validCustomer()
	customer.City = "Other"

	draft, err := checkout.BuildDraft(customer, items)
	require.NoError(t, err)

	assert.True(t, draft.Subtotal.Equal(decimal.NewFromInt(250)))
	assert.True(t, draft.DeliveryCharge.Equal(decimal.NewFromInt(130)))
	assert.True(t, draft.Total.Equal(decimal.NewFromInt(380)))
	assert.Len(t, draft.Cart, 2)
	assert.False(t, draft.Date.IsZero())
}

func TestBuildDraftEmptyCart(t *testing.T) {
	_, err := checkout.BuildDraft(validCustomer(), nil)
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
}

func TestSubmit(t *testing.T) {
	var received checkout.OrderDraft

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/orders/create", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	conf, err := checkout.NewConf(nil, "", server.URL)
	require.NoError(t, err)

	items := []cart.Item{{ProductID: "p1", Name: "Phone case", UnitPrice: decimal.NewFromInt(100), Quantity: 2}}
	draft, err := checkout.BuildDraft(validCustomer(), items)
	require.NoError(t, err)

	require.NoError(t, conf.Submit(context.Background(), draft))

	assert.Equal(t, "Rahim Uddin", received.Customer.Name)
	require.Len(t, received.Cart, 1)
	assert.Equal(t, "p1", received.Cart[0].ProductID)
	assert.True(t, received.Total.Equal(decimal.NewFromInt(280)))
}

func TestSubmitRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	conf, err := checkout.NewConf(nil, "", server.URL)
	require.NoError(t, err)

	draft, err := checkout.BuildDraft(validCustomer(),
		[]cart.Item{{ProductID: "p1", UnitPrice: decimal.NewFromInt(10), Quantity: 1}})
	require.NoError(t, err)

	err = conf.Submit(context.Background(), draft)
	assert.ErrorIs(t, err, checkout.ErrSubmitFailed)
}

func TestSubmitTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	conf, err := checkout.NewConf(nil, "", server.URL)
	require.NoError(t, err)

	draft, err := checkout.BuildDraft(validCustomer(),
		[]cart.Item{{ProductID: "p1", UnitPrice: decimal.NewFromInt(10), Quantity: 1}})
	require.NoError(t, err)

	err = conf.Submit(context.Background(), draft)
	assert.ErrorIs(t, err, checkout.ErrSubmitFailed)
}

func TestNewConfRequiresTarget(t *testing.T) {
	_, err := checkout.NewConf(nil, "orders", "")
	assert.Error(t, err)
}
