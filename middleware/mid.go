package middleware

import (
	"fmt"

	"cart-service/internal/auth"
)

type Mid struct {
	a *auth.Keys
}

func NewMid(a *auth.Keys) (*Mid, error) {
	if a == nil {
		return nil, fmt.Errorf("auth keys are nil")
	}
	return &Mid{a: a}, nil
}
