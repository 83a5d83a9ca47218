package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cart-service/handlers"
	"cart-service/internal/auth"
	"cart-service/internal/cart"
	"cart-service/internal/checkout"
	"cart-service/internal/stores/memory"
	"cart-service/middleware"
)

type testEnv struct {
	router *gin.Engine
	cConf  *cart.Conf
	store  *memory.Store
	bus    *cart.Bus
}

func newTestEnv(t *testing.T, orderURL string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	keys, err := auth.NewKeys("test-secret")
	require.NoError(t, err)

	store := memory.NewStore()
	bus := cart.NewBus()
	cConf, err := cart.NewConf(store, bus)
	require.NoError(t, err)

	ckConf, err := checkout.NewConf(nil, "", orderURL)
	require.NoError(t, err)

	router, err := handlers.API("/v1", keys, cConf, ckConf, bus)
	require.NoError(t, err)

	return &testEnv{router: router, cConf: cConf, store: store, bus: bus}
}

func (e *testEnv) do(t *testing.T, method string, path string, body string, session string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set(middleware.SessionHeader, session)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func addItemBody(productID string, variant string) string {
	return `{"product_id":"` + productID + `","name":"Product ` + productID +
		`","unit_price":100,"image":"https://cdn.example.com/` + productID + `.jpg","variant":"` + variant + `"}`
}

func TestSessionIssuedOnFirstContact(t *testing.T) {
	env := newTestEnv(t, "http://localhost:0")

	w := env.do(t, http.MethodGet, "/v1/cart/count", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	session := w.Header().Get(middleware.SessionHeader)
	assert.NotEmpty(t, session)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])
}

func TestInvalidSessionRejected(t *testing.T) {
	env := newTestEnv(t, "http://localhost:0")

	w := env.do(t, http.MethodGet, "/v1/cart/count", "", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionsHaveSeparateCarts(t *testing.T) {
	env := newTestEnv(t, "http://localhost:0")

	first := env.do(t, http.MethodPost, "/v1/cart/items", addItemBody("p1", ""), "").
		Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, first)

	w := env.do(t, http.MethodGet, "/v1/cart/count", "", "")
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])

	w = env.do(t, http.MethodGet, "/v1/cart/count", "", first)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])
}

func TestCartFlow(t *testing.T) {
	env := newTestEnv(t, "http://localhost:0")

	w := env.do(t, http.MethodPost, "/v1/cart/items", addItemBody("p1", "red"), "")
	require.Equal(t, http.StatusOK, w.Code)
	session := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, session)

	// same product and variant merges rather than adding a line
	w = env.do(t, http.MethodPost, "/v1/cart/items", addItemBody("p1", "red"), session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = env.do(t, http.MethodPost, "/v1/cart/items", addItemBody("p2", ""), session)
	assert.Equal(t, float64(2), decodeBody(t, w)["count"])

	// quantity below one is clamped
	w = env.do(t, http.MethodPut, "/v1/cart/items/1", `{"quantity":-3}`, session)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/v1/cart/items", "", session)
	items := decodeBody(t, w)["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, float64(2), items[0].(map[string]any)["quantity"])
	assert.Equal(t, float64(1), items[1].(map[string]any)["quantity"])

	w = env.do(t, http.MethodGet, "/v1/cart/summary?city=Other", "", session)
	summary := decodeBody(t, w)
	assert.Equal(t, "300", summary["subtotal"])
	assert.Equal(t, "130", summary["delivery_charge"])
	assert.Equal(t, "430", summary["total"])

	w = env.do(t, http.MethodDelete, "/v1/cart/items/0", "", session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	w = env.do(t, http.MethodDelete, "/v1/cart/items/9", "", session)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodDelete, "/v1/cart", "", session)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/v1/cart/count", "", session)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])
}

func TestAddItemRejectsBadPayload(t *testing.T) {
	env := newTestEnv(t, "http://localhost:0")

	w := env.do(t, http.MethodPost, "/v1/cart/items", `{"name":"no product id","unit_price":10}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/v1/cart/items", `not json`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutValidationStopsBeforeNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)

	w := env.do(t, http.MethodPost, "/v1/cart/items", addItemBody("p1", ""), "")
	session := w.Header().Get(middleware.SessionHeader)

	w = env.do(t, http.MethodPost, "/v1/checkout",
		`{"name":"Rahim","phone":"12345","address":"Dhanmondi","city":"Dhaka"}`, session)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "phone", decodeBody(t, w)["field"])
	assert.False(t, called, "no request may be sent when validation fails")
}

func TestCheckoutIsAtomic(t *testing.T) {
	fail := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := newTestEnv(t, server.URL)

	w := env.do(t, http.MethodPost, "/v1/cart/items", addItemBody("p1", ""), "")
	session := w.Header().Get(middleware.SessionHeader)
	require.NotEmpty(t, session)

	sub := env.bus.Subscribe(16)
	defer sub.Unsubscribe()

	zeroEvents := func() int {
		count := 0
		for {
			select {
			case e := <-sub.C:
				if e.Lines == 0 {
					count++
				}
			default:
				return count
			}
		}
	}

	checkoutBody := `{"name":"Rahim Uddin","phone":"01712345678","address":"House 12, Dhanmondi","city":"Dhaka"}`

	// Failing order service: nothing changes, nothing fires.
	w = env.do(t, http.MethodPost, "/v1/checkout", checkoutBody, session)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	assert.Equal(t, 0, zeroEvents())
	w = env.do(t, http.MethodGet, "/v1/cart/count", "", session)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])

	// The user retries unchanged once the order service is back.
	fail = false
	w = env.do(t, http.MethodPost, "/v1/checkout", checkoutBody, session)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "Rahim Uddin")

	assert.Equal(t, 1, zeroEvents())

	w = env.do(t, http.MethodGet, "/v1/cart/count", "", session)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t, "http://localhost:0")

	w := env.do(t, http.MethodPost, "/v1/checkout",
		`{"name":"Rahim","phone":"01712345678","address":"Dhanmondi","city":"Dhaka"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
