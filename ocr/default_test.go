package ocr

import (
	"context"
	"testing"
)

type namedEngine struct{ name string }

func (e namedEngine) Name() string { return e.name }

func (e namedEngine) Recognize(ctx context.Context, req Request) (Result, error) {
	return Result{Text: e.name, Model: req.Model}, nil
}

func TestDefaultEngine(t *testing.T) {
	prev := DefaultEngine()
	defer SetDefaultEngine(prev)

	SetDefaultEngine(namedEngine{name: "custom"})
	if got := DefaultEngine().Name(); got != "custom" {
		t.Fatalf("unexpected default engine: %s", got)
	}
	SetDefaultEngine(nil)
	if got := DefaultEngine().Name(); got != "noop" {
		t.Fatalf("nil should restore noop engine, got %s", got)
	}
	res, err := DefaultEngine().Recognize(context.Background(), NewRequest(nil, ModelGeneric))
	if err != nil {
		t.Fatalf("noop Recognize() error = %v", err)
	}
	if !res.IsEmpty() || res.Model != ModelGeneric {
		t.Fatalf("unexpected noop result: %+v", res)
	}
}
