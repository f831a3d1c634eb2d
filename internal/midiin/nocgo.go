//go:build !cgo

package midiin

import (
	"context"
	"log/slog"
)

func Ports() ([]string, error) { return nil, ErrUnavailable }

func Listen(ctx context.Context, port string, handle Handler, logger *slog.Logger) error {
	return ErrUnavailable
}
