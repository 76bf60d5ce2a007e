package repository

import (
	"context"
)

// Transactor runs fn as one unit of work. Repositories called with the ctx passed
// to fn take part in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
