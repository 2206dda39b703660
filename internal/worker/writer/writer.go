package writer

import (
	"context"
)

const RETRY_COUNT = 3

type BatchWriter[T any] interface {
	BWrite(ctx context.Context, batch []T) error
	Close() error
}
