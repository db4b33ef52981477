// Package cache holds full per-book documents so reader sessions do not hit
// the contents API on every open.
package cache

import (
	"context"

	"bookora/internal/domain/models"
)

// BookCache is a read-through cache for per-book documents.
// A miss returns (nil, nil).
type BookCache interface {
	GetBook(ctx context.Context, id string) (*models.Book, error)
	SetBook(ctx context.Context, book *models.Book) error
	DeleteBook(ctx context.Context, id string) error
	Close() error
}

var _ BookCache = NoopBookCache{}

// NoopBookCache never stores anything
type NoopBookCache struct{}

func (NoopBookCache) GetBook(context.Context, string) (*models.Book, error) { return nil, nil }
func (NoopBookCache) SetBook(context.Context, *models.Book) error           { return nil }
func (NoopBookCache) DeleteBook(context.Context, string) error              { return nil }
func (NoopBookCache) Close() error                                          { return nil }
