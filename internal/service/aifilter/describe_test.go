package aifilter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stridewear/shop-backend/internal/domain"
)

func descriptionRequest() DescriptionRequest {
	return DescriptionRequest{
		Name:        "air zoom pegasus",
		Brand:       "Nike",
		Category:    "Running",
		Description: "lightweight daily trainer",
		Gender:      "Men",
	}
}

const validDescriptionJSON = `{
	"name": "Air Zoom Pegasus",
	"isBranded": true,
	"description": "A lightweight daily trainer built for comfort over long miles.",
	"confidence": 0.92
}`

func TestGenerateDescription_Success(t *testing.T) {
	gen := &generatorMock{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		return validDescriptionJSON, nil
	}}
	svc := newTestService(gen, nil)

	d, err := svc.GenerateDescription(context.Background(), descriptionRequest())
	if err != nil {
		t.Fatalf("GenerateDescription: %v", err)
	}
	if d.Name != "Air Zoom Pegasus" || !d.IsBranded || d.Confidence != 0.92 {
		t.Errorf("unexpected description: %+v", d)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1 on valid first attempt", gen.calls)
	}
}

func TestGenerateDescription_MissingField(t *testing.T) {
	gen := &generatorMock{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		return validDescriptionJSON, nil
	}}
	svc := newTestService(gen, nil)

	req := descriptionRequest()
	req.Brand = "  "
	_, err := svc.GenerateDescription(context.Background(), req)
	if !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times before input validation, want 0", gen.calls)
	}
}

func TestGenerateDescription_RetriesOnceWithStricterPrompt(t *testing.T) {
	gen := &generatorMock{}
	gen.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		if gen.calls == 1 {
			return "I'd be happy to help! Here's a description: ...", nil
		}
		return validDescriptionJSON, nil
	}
	svc := newTestService(gen, nil)

	d, err := svc.GenerateDescription(context.Background(), descriptionRequest())
	if err != nil {
		t.Fatalf("GenerateDescription: %v", err)
	}
	if d.Name != "Air Zoom Pegasus" {
		t.Errorf("name = %q after retry", d.Name)
	}
	if gen.calls != 2 {
		t.Fatalf("generator calls = %d, want 2 (one retry)", gen.calls)
	}
	if !strings.Contains(gen.prompts[1], "ONLY valid JSON") {
		t.Error("retry prompt should be the stricter variant")
	}
}

func TestGenerateDescription_BothAttemptsInvalid(t *testing.T) {
	gen := &generatorMock{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		return "not json at all", nil
	}}
	svc := newTestService(gen, nil)

	_, err := svc.GenerateDescription(context.Background(), descriptionRequest())
	if !errors.Is(err, domain.ErrAIGeneration) {
		t.Fatalf("err = %v, want ErrAIGeneration", err)
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want retry cap of 1 (2 total)", gen.calls)
	}
}

func TestGenerateDescription_ProviderFailure(t *testing.T) {
	gen := &generatorMock{GenerateFunc: func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("provider unavailable")
	}}
	svc := newTestService(gen, nil)

	_, err := svc.GenerateDescription(context.Background(), descriptionRequest())
	if err == nil {
		t.Fatal("expected provider error to surface")
	}
	if errors.Is(err, domain.ErrAIGeneration) {
		t.Error("provider failure should not be reported as ErrAIGeneration")
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want no retry after provider failure", gen.calls)
	}
}
