package catalog

import (
	"context"
	"errors"
	"testing"

	"perfeval/internal/domain/period"
	"perfeval/internal/domain/scoring"
	"perfeval/internal/platform/validate"
)

type fakePeriods map[string]period.Period

func (f fakePeriods) Get(ctx context.Context, id string) (period.Period, error) {
	p, ok := f[id]
	if !ok {
		return period.Period{}, period.ErrNotFound
	}
	return p, nil
}

type fakeStore struct {
	dims  map[string]Dimension
	items map[string]Item
	seq   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{dims: map[string]Dimension{}, items: map[string]Item{}}
}

func (f *fakeStore) id(prefix string) string {
	f.seq++
	return prefix + string(rune('a'+f.seq))
}

func (f *fakeStore) ListDimensions(ctx context.Context, periodID string) ([]Dimension, error) {
	out := []Dimension{}
	for _, d := range f.dims {
		if d.PeriodID == periodID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) GetDimension(ctx context.Context, id string) (Dimension, error) {
	d, ok := f.dims[id]
	if !ok {
		return Dimension{}, ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) CreateDimension(ctx context.Context, periodID string, in DimensionInput) (Dimension, error) {
	d := Dimension{ID: f.id("d"), PeriodID: periodID, Code: in.Code, Name: in.Name, Axis: in.Axis, Weight: in.Weight, DisplayOrder: in.DisplayOrder, Color: in.Color}
	f.dims[d.ID] = d
	return d, nil
}

func (f *fakeStore) UpdateDimension(ctx context.Context, id string, in DimensionInput) (Dimension, error) {
	d := f.dims[id]
	d.Name = in.Name
	f.dims[id] = d
	return d, nil
}

func (f *fakeStore) DeleteDimension(ctx context.Context, id string) error {
	delete(f.dims, id)
	return nil
}

func (f *fakeStore) GetItem(ctx context.Context, id string) (Item, error) {
	it, ok := f.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (f *fakeStore) CreateItem(ctx context.Context, dimensionID string, in ItemInput) (Item, error) {
	it := Item{ID: f.id("i"), DimensionID: dimensionID, Text: in.Text, Weight: in.Weight, Required: in.Required, AppliesTo: in.AppliesTo}
	f.items[it.ID] = it
	return it, nil
}

func (f *fakeStore) UpdateItem(ctx context.Context, id string, in ItemInput) (Item, error) {
	it := f.items[id]
	it.Text = in.Text
	f.items[id] = it
	return it, nil
}

func (f *fakeStore) DeleteItem(ctx context.Context, id string) error {
	delete(f.items, id)
	return nil
}

func newService() (*Service, *fakeStore) {
	store := newFakeStore()
	periods := fakePeriods{
		"draft":  {ID: "draft", Status: period.StatusDraft},
		"active": {ID: "active", Status: period.StatusActive},
	}
	return NewService(store, periods), store
}

func TestCreateDimensionDefaultsAndColor(t *testing.T) {
	svc, _ := newService()
	d, err := svc.CreateDimension(context.Background(), "draft", DimensionInput{Code: " lead ", Name: "Leadership", DisplayOrder: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Code != "LEAD" || d.Axis != AxisPerformance || d.Weight != 1 {
		t.Fatalf("unexpected normalization %+v", d)
	}
	if d.DisplayColor != scoring.Palette[1] {
		t.Fatalf("expected palette color, got %s", d.DisplayColor)
	}
}

func TestCreateDimensionRejectsBadColorAndAxis(t *testing.T) {
	svc, _ := newService()
	_, err := svc.CreateDimension(context.Background(), "draft", DimensionInput{Code: "X", Name: "X", Axis: "vision", Color: "blue"})
	issues, ok := validate.Issues(err)
	if !ok || len(issues) != 2 {
		t.Fatalf("expected two validation issues, got %v", err)
	}
}

func TestCatalogLockedOutsideDraft(t *testing.T) {
	svc, store := newService()
	if _, err := svc.CreateDimension(context.Background(), "active", DimensionInput{Code: "A", Name: "A"}); !errors.Is(err, ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked, got %v", err)
	}

	store.dims["d1"] = Dimension{ID: "d1", PeriodID: "active"}
	store.items["i1"] = Item{ID: "i1", DimensionID: "d1"}
	if _, err := svc.CreateItem(context.Background(), "d1", ItemInput{Text: "Plans work"}); !errors.Is(err, ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked on item create, got %v", err)
	}
	if _, err := svc.UpdateItem(context.Background(), "i1", ItemInput{Text: "Plans work"}); !errors.Is(err, ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked on item update, got %v", err)
	}
	if _, err := svc.DeleteDimension(context.Background(), "d1"); !errors.Is(err, ErrPeriodLocked) {
		t.Fatalf("expected ErrPeriodLocked on delete, got %v", err)
	}
}

func TestCreateItemDefaults(t *testing.T) {
	svc, store := newService()
	store.dims["d1"] = Dimension{ID: "d1", PeriodID: "draft"}
	it, err := svc.CreateItem(context.Background(), "d1", ItemInput{Text: " Communicates clearly ", Required: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Text != "Communicates clearly" || it.Weight != 1 || it.AppliesTo != AppliesToAll {
		t.Fatalf("unexpected item %+v", it)
	}
}

func TestItemAppliesToType(t *testing.T) {
	if !(Item{AppliesTo: AppliesToAll}).AppliesToType("peer") {
		t.Fatal("all should apply to peer")
	}
	if (Item{AppliesTo: "supervisor"}).AppliesToType("self") {
		t.Fatal("supervisor item should not apply to self")
	}
}

func TestListDimensionsUnknownPeriod(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.ListDimensions(context.Background(), "missing"); !errors.Is(err, period.ErrNotFound) {
		t.Fatalf("expected period.ErrNotFound, got %v", err)
	}
}
