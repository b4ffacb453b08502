package diag_test

import (
	"testing"

	"kone/internal/diag"
	"kone/internal/source"
)

func at(off uint32, sev diag.Severity) diag.Diagnostic {
	return diag.Diagnostic{Severity: sev, Code: diag.UnknownCode, Primary: source.At(0, off)}
}

func TestBagAddHonorsLimit(t *testing.T) {
	bag := diag.NewBag(1)
	if !bag.Add(at(0, diag.SevError)) {
		t.Fatal("first add dropped")
	}
	if bag.Add(at(1, diag.SevError)) {
		t.Error("add past the limit should report a drop")
	}
	if bag.Len() != 1 {
		t.Errorf("len = %d", bag.Len())
	}
}

func TestBagMerge(t *testing.T) {
	a := diag.NewBag(1)
	a.Add(at(3, diag.SevError))
	b := diag.NewBag(2)
	b.Add(at(1, diag.SevError))
	b.Add(at(2, diag.SevSuggestion))

	merged := diag.NewBag(0)
	merged.Merge(a)
	merged.Merge(b)

	if merged.Len() != 3 {
		t.Fatalf("len = %d", merged.Len())
	}
	// Merge appends; order across bags is merge order until Sort.
	if merged.Items()[0].Primary.Start != 3 {
		t.Errorf("items = %+v", merged.Items())
	}
	merged.Sort()
	if merged.Items()[0].Primary.Start != 1 {
		t.Errorf("sorted items = %+v", merged.Items())
	}
}

func TestSortErrorBeforeSuggestionAtSameSpan(t *testing.T) {
	bag := diag.NewBag(2)
	bag.Add(at(5, diag.SevSuggestion))
	bag.Add(at(5, diag.SevError))

	bag.Sort()
	if bag.Items()[0].Severity != diag.SevError {
		t.Errorf("items = %+v", bag.Items())
	}
}
