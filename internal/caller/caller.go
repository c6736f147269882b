// Package caller holds the resolved identity a pipeline call runs for.
package caller

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/dailymetrics/internal/wellness"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Context is either Authenticated or Service.
type Context interface {
	UserID() string
	Mode() string
	sealed()
}

// Authenticated is an end user acting on their own data.
type Authenticated struct {
	User string
}

func (a Authenticated) UserID() string { return a.User }
func (a Authenticated) Mode() string   { return "user" }
func (Authenticated) sealed()          {}

// Service is an operator acting on behalf of a target user.
type Service struct {
	OnBehalfOf string
}

func (s Service) UserID() string { return s.OnBehalfOf }
func (s Service) Mode() string   { return "service" }
func (Service) sealed()          {}

// Principal is what the auth middleware could establish about a request.
type Principal struct {
	UserID   string
	Operator bool
}

func (p Principal) IsZero() bool {
	return p.UserID == "" && !p.Operator
}

// Resolve turns a principal and the user id named in a request body into a caller context.
func Resolve(p Principal, requestedUserID string) (Context, error) {
	switch {
	case p.Operator:
		if requestedUserID == "" {
			return nil, fmt.Errorf("%w: userId is required in service mode", wellness.ErrInvalidInput)
		}
		return Service{OnBehalfOf: requestedUserID}, nil
	case p.UserID != "":
		if requestedUserID != "" && requestedUserID != p.UserID {
			return nil, fmt.Errorf("%w: user [%s] cannot act on [%s]", ErrForbidden, p.UserID, requestedUserID)
		}
		return Authenticated{User: p.UserID}, nil
	default:
		return nil, ErrUnauthenticated
	}
}

// Validate rejects contexts without a target user.
func Validate(c Context) error {
	if c == nil || c.UserID() == "" {
		return fmt.Errorf("%w: missing caller identity", wellness.ErrInvalidInput)
	}
	return nil
}

type principalCtxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalCtxKey{}).(Principal)
	return p
}
