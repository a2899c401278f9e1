package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindMatching(t *testing.T) {
	err := notFound("can't find item with this ID")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("kind matching failed")
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatalf("kinds must not cross-match")
	}
	wrapped := fmt.Errorf("list items: %w", err)
	if k, ok := AsKind(wrapped); !ok || k != KindNotFound {
		t.Fatalf("AsKind through wrap: got %q %v", k, ok)
	}
	if _, ok := AsKind(errors.New("db down")); ok {
		t.Fatalf("plain errors have no kind")
	}
}
