package catalog

import "context"

type StoreAPI interface {
	ListDimensions(ctx context.Context, periodID string) ([]Dimension, error)
	GetDimension(ctx context.Context, id string) (Dimension, error)
	CreateDimension(ctx context.Context, periodID string, input DimensionInput) (Dimension, error)
	UpdateDimension(ctx context.Context, id string, input DimensionInput) (Dimension, error)
	DeleteDimension(ctx context.Context, id string) error
	GetItem(ctx context.Context, id string) (Item, error)
	CreateItem(ctx context.Context, dimensionID string, input ItemInput) (Item, error)
	UpdateItem(ctx context.Context, id string, input ItemInput) (Item, error)
	DeleteItem(ctx context.Context, id string) error
}
