package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/genxais/pipelined/internal/domain"
)

func noopFunc(_ context.Context, _, _ map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func step(name string, requires, provides []string) domain.Step {
	return domain.Step{
		Name:     name,
		Func:     noopFunc,
		Requires: requires,
		Provides: provides,
		Retry:    domain.RetryPolicy{}.Normalized(),
	}
}

func TestValidate_SimpleChain(t *testing.T) {
	steps := []domain.Step{
		step("A", nil, []string{"x"}),
		step("B", []string{"x"}, []string{"y"}),
		step("C", []string{"x", "y"}, nil),
	}

	if err := Validate(steps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingKey(t *testing.T) {
	steps := []domain.Step{
		step("A", nil, []string{"x"}),
		step("B", []string{"z"}, []string{"y"}),
	}

	err := Validate(steps)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}

	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyError, got %T", err)
	}
	if depErr.Step != "B" {
		t.Errorf("expected offending step B, got %s", depErr.Step)
	}
	if depErr.Key != "z" {
		t.Errorf("expected missing key z, got %s", depErr.Key)
	}
}

func TestValidate_FirstViolationWins(t *testing.T) {
	// Несколько нарушений — сообщается самое раннее (слева направо).
	steps := []domain.Step{
		step("A", []string{"p"}, nil),
		step("B", []string{"q"}, nil),
	}

	err := Validate(steps)
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyError, got %v", err)
	}
	if depErr.Step != "A" || depErr.Key != "p" {
		t.Errorf("expected step A / key p, got %s / %s", depErr.Step, depErr.Key)
	}
}

func TestValidate_KeyProducedBySameStep(t *testing.T) {
	// Шаг не может требовать ключ, который сам же и производит.
	steps := []domain.Step{
		step("A", []string{"x"}, []string{"x"}),
	}

	if err := Validate(steps); !errors.Is(err, ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
}

func TestValidate_Structural(t *testing.T) {
	tests := []struct {
		name    string
		steps   []domain.Step
		wantErr error
	}{
		{"empty steps", nil, ErrEmptySteps},
		{"empty name", []domain.Step{step("", nil, nil)}, ErrEmptyStepName},
		{"duplicate name", []domain.Step{
			step("A", nil, nil),
			step("A", nil, nil),
		}, ErrDuplicateStepName},
		{"nil func", []domain.Step{{
			Name:  "A",
			Retry: domain.RetryPolicy{}.Normalized(),
		}}, ErrNilStepFunc},
		{"zero retries", []domain.Step{{
			Name: "A",
			Func: noopFunc,
		}}, ErrInvalidRetryPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.steps); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
