package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	consulapi "github.com/hashicorp/consul/api"

	"cart-service/internal/cart"
	"cart-service/internal/consul"
)

var (
	// ErrEmptyCart rejects a submission with nothing to order.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrSubmitFailed marks a rejected or unreachable order service. The
	// caller keeps the cart and form untouched so the user can retry.
	ErrSubmitFailed = errors.New("order submission failed")
)

var validate = validator.New()

// ValidationError names the customer field that failed and carries the
// message shown to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateCustomer checks the shipping fields locally, before any network
// call. The first failing field wins.
func ValidateCustomer(customer Customer) error {
	err := validate.Struct(customer)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, vErr := range vErrs {
			field := strings.ToLower(vErr.Field())
			switch vErr.Tag() {
			case "required":
				return &ValidationError{Field: field, Message: "Please enter your " + field}
			case "max":
				return &ValidationError{Field: field, Message: field + " must be at most " + vErr.Param() + " characters"}
			case "len", "number":
				return &ValidationError{Field: field, Message: "phone number must be exactly 11 digits"}
			case "oneof":
				return &ValidationError{Field: field, Message: "Please select a valid city"}
			default:
				return &ValidationError{Field: field, Message: field + " is invalid"}
			}
		}
	}

	return fmt.Errorf("failed to validate customer: %w", err)
}

// BuildDraft assembles the order payload from the current cart and the
// customer fields, deriving the amounts from the selected city.
func BuildDraft(customer Customer, items []cart.Item) (OrderDraft, error) {
	if len(items) == 0 {
		return OrderDraft{}, ErrEmptyCart
	}

	quote := cart.QuoteFor(items, customer.City)
	return OrderDraft{
		Customer:       customer,
		Cart:           items,
		Subtotal:       quote.Subtotal,
		DeliveryCharge: quote.DeliveryCharge,
		Total:          quote.Total,
		Date:           time.Now().UTC(),
	}, nil
}

// Conf submits order drafts to the external order service, located either
// through consul or a fixed URL override.
type Conf struct {
	httpClient   *http.Client
	consulClient *consulapi.Client
	serviceName  string
	overrideURL  string
}

func NewConf(consulClient *consulapi.Client, serviceName string, overrideURL string) (*Conf, error) {
	if consulClient == nil && overrideURL == "" {
		return nil, fmt.Errorf("neither consul client nor order service URL configured")
	}
	return &Conf{
		httpClient:   &http.Client{},
		consulClient: consulClient,
		serviceName:  serviceName,
		overrideURL:  overrideURL,
	}, nil
}

func (c *Conf) endpoint() (string, error) {
	if c.overrideURL != "" {
		return strings.TrimSuffix(c.overrideURL, "/") + "/api/orders/create", nil
	}

	address, port, err := consul.GetServiceAddress(c.consulClient, c.serviceName)
	if err != nil {
		return "", fmt.Errorf("order service unavailable: %w", err)
	}
	return fmt.Sprintf("http://%s:%d/api/orders/create", address, port), nil
}

// Submit posts the draft to the order creation endpoint. Anything other
// than a 2xx response is an ErrSubmitFailed; no partial state is mutated
// here, clearing the cart is the caller's move after success.
func (c *Conf) Submit(ctx context.Context, draft OrderDraft) error {
	endpoint, err := c.endpoint()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSubmitFailed, err)
	}

	body, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal order draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSubmitFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: order service returned status %d", ErrSubmitFailed, resp.StatusCode)
	}
	return nil
}
