package model

import "context"

// TxRunner executes fn as one atomic unit of work. Store calls made with the
// context passed to fn join the same transaction; if fn returns an error,
// every change made inside it is rolled back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
