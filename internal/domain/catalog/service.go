package catalog

import (
	"context"
	"strings"

	"perfeval/internal/domain/period"
	"perfeval/internal/platform/validate"
)

type PeriodReader interface {
	Get(ctx context.Context, id string) (period.Period, error)
}

type Service struct {
	Store   StoreAPI
	Periods PeriodReader
}

func NewService(store StoreAPI, periods PeriodReader) *Service {
	return &Service{Store: store, Periods: periods}
}

// ListDimensions returns the period's dimensions with their items and display colors.
func (s *Service) ListDimensions(ctx context.Context, periodID string) ([]Dimension, error) {
	if _, err := s.Periods.Get(ctx, periodID); err != nil {
		return nil, err
	}
	dims, err := s.Store.ListDimensions(ctx, periodID)
	if err != nil {
		return nil, err
	}
	for i := range dims {
		dims[i].resolveColor()
	}
	return dims, nil
}

func (s *Service) GetDimension(ctx context.Context, id string) (Dimension, error) {
	d, err := s.Store.GetDimension(ctx, id)
	if err != nil {
		return Dimension{}, err
	}
	d.resolveColor()
	return d, nil
}

func (s *Service) CreateDimension(ctx context.Context, periodID string, input DimensionInput) (Dimension, error) {
	input = normalizeDimension(input)
	if err := validate.Struct(input); err != nil {
		return Dimension{}, err
	}
	if err := s.requireDraft(ctx, periodID); err != nil {
		return Dimension{}, err
	}
	d, err := s.Store.CreateDimension(ctx, periodID, input)
	if err != nil {
		return Dimension{}, err
	}
	d.Items = []Item{}
	d.resolveColor()
	return d, nil
}

func (s *Service) UpdateDimension(ctx context.Context, id string, input DimensionInput) (Dimension, error) {
	input = normalizeDimension(input)
	if err := validate.Struct(input); err != nil {
		return Dimension{}, err
	}
	current, err := s.Store.GetDimension(ctx, id)
	if err != nil {
		return Dimension{}, err
	}
	if err := s.requireDraft(ctx, current.PeriodID); err != nil {
		return Dimension{}, err
	}
	d, err := s.Store.UpdateDimension(ctx, id, input)
	if err != nil {
		return Dimension{}, err
	}
	d.Items = current.Items
	d.resolveColor()
	return d, nil
}

func (s *Service) DeleteDimension(ctx context.Context, id string) (Dimension, error) {
	current, err := s.Store.GetDimension(ctx, id)
	if err != nil {
		return Dimension{}, err
	}
	if err := s.requireDraft(ctx, current.PeriodID); err != nil {
		return Dimension{}, err
	}
	return current, s.Store.DeleteDimension(ctx, id)
}

func (s *Service) CreateItem(ctx context.Context, dimensionID string, input ItemInput) (Item, error) {
	input = normalizeItem(input)
	if err := validate.Struct(input); err != nil {
		return Item{}, err
	}
	dim, err := s.Store.GetDimension(ctx, dimensionID)
	if err != nil {
		return Item{}, err
	}
	if err := s.requireDraft(ctx, dim.PeriodID); err != nil {
		return Item{}, err
	}
	return s.Store.CreateItem(ctx, dimensionID, input)
}

func (s *Service) UpdateItem(ctx context.Context, id string, input ItemInput) (Item, error) {
	input = normalizeItem(input)
	if err := validate.Struct(input); err != nil {
		return Item{}, err
	}
	if _, err := s.itemForEdit(ctx, id); err != nil {
		return Item{}, err
	}
	return s.Store.UpdateItem(ctx, id, input)
}

func (s *Service) DeleteItem(ctx context.Context, id string) (Item, error) {
	current, err := s.itemForEdit(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return current, s.Store.DeleteItem(ctx, id)
}

func (s *Service) itemForEdit(ctx context.Context, id string) (Item, error) {
	current, err := s.Store.GetItem(ctx, id)
	if err != nil {
		return Item{}, err
	}
	dim, err := s.Store.GetDimension(ctx, current.DimensionID)
	if err != nil {
		return Item{}, err
	}
	if err := s.requireDraft(ctx, dim.PeriodID); err != nil {
		return Item{}, err
	}
	return current, nil
}

func (s *Service) requireDraft(ctx context.Context, periodID string) error {
	p, err := s.Periods.Get(ctx, periodID)
	if err != nil {
		return err
	}
	if p.Status != period.StatusDraft {
		return ErrPeriodLocked
	}
	return nil
}

func normalizeDimension(input DimensionInput) DimensionInput {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Axis = strings.ToLower(strings.TrimSpace(input.Axis))
	if input.Axis == "" {
		input.Axis = AxisPerformance
	}
	if input.Weight == 0 {
		input.Weight = 1
	}
	input.Color = strings.TrimSpace(input.Color)
	return input
}

func normalizeItem(input ItemInput) ItemInput {
	input.Text = strings.TrimSpace(input.Text)
	input.AppliesTo = strings.ToLower(strings.TrimSpace(input.AppliesTo))
	if input.AppliesTo == "" {
		input.AppliesTo = AppliesToAll
	}
	if input.Weight == 0 {
		input.Weight = 1
	}
	return input
}
