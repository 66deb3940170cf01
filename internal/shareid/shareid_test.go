package shareid

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	code, err := Generate(12)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(code) != 12 {
		t.Errorf("len = %d, want 12", len(code))
	}
	for _, c := range code {
		if !strings.ContainsRune(alphabet, c) {
			t.Errorf("character %q not in alphabet", c)
		}
	}
}

func TestAllocateUnique_SucceedsOnLastAttempt(t *testing.T) {
	calls := 0
	code, err := AllocateUnique(context.Background(), 8, 10, func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls < 10, nil
	})
	if err != nil {
		t.Fatalf("AllocateUnique() error = %v", err)
	}
	if code == "" {
		t.Error("expected a code on the 10th attempt")
	}
	if calls != 10 {
		t.Errorf("exists called %d times, want 10", calls)
	}
}

func TestAllocateUnique_CollisionExhausted(t *testing.T) {
	calls := 0
	_, err := AllocateUnique(context.Background(), 8, 10, func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	})
	if !errors.Is(err, ErrCollisionExhausted) {
		t.Fatalf("error = %v, want ErrCollisionExhausted", err)
	}
	if calls != 10 {
		t.Errorf("exists called %d times, want exactly 10, not 11", calls)
	}
}

func TestAllocateUnique_PropagatesCheckError(t *testing.T) {
	boom := errors.New("db down")
	_, err := AllocateUnique(context.Background(), 8, 10, func(ctx context.Context, code string) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped boom", err)
	}
}

func TestAllocateUnique_Defaults(t *testing.T) {
	code, err := AllocateUnique(context.Background(), 0, 0, func(ctx context.Context, code string) (bool, error) {
		return false, nil
	})
	if err != nil {
		t.Fatalf("AllocateUnique() error = %v", err)
	}
	if len(code) != DefaultLength {
		t.Errorf("len = %d, want DefaultLength %d", len(code), DefaultLength)
	}
}
