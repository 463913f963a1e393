package postprocessors

import (
	"errors"
	"reflect"
	"testing"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry returned nil")
	}
	if len(r.builders) != 0 {
		t.Errorf("expected empty builders, got %d", len(r.builders))
	}
}

func TestRegistry_GetBuildsOnce(t *testing.T) {
	r := NewRegistry()
	calls := 0
	var gotSettings domain.SplitSettings
	r.Register("custom", domain.SplitSettings{MaxSize: 42}, func(s domain.SplitSettings) (driven.Segmenter, error) {
		calls++
		gotSettings = s
		return &mockSegmenter{name: "custom"}, nil
	})

	if !r.Has("custom") {
		t.Fatal("expected strategy to be registered")
	}
	for i := 0; i < 2; i++ {
		seg, err := r.Get("custom")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seg.Name() != "custom" {
			t.Errorf("unexpected name %q", seg.Name())
		}
	}
	if calls != 1 {
		t.Errorf("expected builder to run once, ran %d times", calls)
	}
	if gotSettings.MaxSize != 42 {
		t.Errorf("builder got settings %+v", gotSettings)
	}
}

func TestRegistry_Unknown(t *testing.T) {
	_, err := NewRegistry().Get("nope")
	if !errors.Is(err, domain.ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestRegistry_BuilderError(t *testing.T) {
	r := NewRegistry()
	want := errors.New("bad settings")
	r.Register("broken", domain.SplitSettings{}, func(domain.SplitSettings) (driven.Segmenter, error) {
		return nil, want
	})

	if _, err := r.Get("broken"); !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewDefaultRegistry(domain.DefaultConfig().Segmenter)
	want := []domain.SegmentStrategy{domain.StrategyHeader, domain.StrategyManual}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
