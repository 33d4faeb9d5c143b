// Package store is the order/user persistence boundary. The pipeline only
// sees the two interfaces; the MongoDB implementation lives in mongo.go.
package store

import (
	"context"
	"errors"

	"github.com/snapkeep/printworks/internal/model"
)

// ErrNotFound is returned when a record does not exist. The pipeline treats
// it as a data-integrity signal, not a transient failure.
var ErrNotFound = errors.New("store: not found")

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// OrderStore reads and writes print orders.
type OrderStore interface {
	FindByID(ctx context.Context, id string) (*model.Order, error)
	Save(ctx context.Context, order *model.Order) error
}

// UserStore reads users.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}
