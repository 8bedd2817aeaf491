package usecases_test

import (
	"reflect"
	"testing"

	"github.com/samirrijal/zonebuf/internal/core/usecases"
)

func TestCompareLetters(t *testing.T) {
	first := []string{"Main St", "Main St", "Oak Ave", "UNNAMED", "", "Elm St"}
	second := []string{"Main St", "Oak Ave", "Pine Rd", "UNNAMED", ""}

	diff := usecases.CompareLetters(first, second)

	if want := []string{"Main St", "Elm St"}; !reflect.DeepEqual(diff.MissingInSecond, want) {
		t.Errorf("MissingInSecond = %v, want %v", diff.MissingInSecond, want)
	}
	if want := []string{"Pine Rd"}; !reflect.DeepEqual(diff.MissingInFirst, want) {
		t.Errorf("MissingInFirst = %v, want %v", diff.MissingInFirst, want)
	}
	if diff.Empty() {
		t.Error("diff should not be empty")
	}
}

func TestCompareLetters_Same(t *testing.T) {
	letters := []string{"A", "B", "B"}
	if diff := usecases.CompareLetters(letters, []string{"B", "A", "B"}); !diff.Empty() {
		t.Errorf("expected no differences, got %+v", diff)
	}
}
