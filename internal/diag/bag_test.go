package diag_test

import (
	"strings"
	"testing"

	"shadeir/internal/diag"
	"shadeir/internal/source"
)

func TestBag_LimitAndErrors(t *testing.T) {
	bag := diag.NewBag(2)
	r := diag.BagReporter{Bag: bag}

	diag.ReportWarning(r, diag.IRInfo, source.Span{}, "note")
	if bag.HasErrors() {
		t.Fatal("warning must not count as an error")
	}
	diag.ReportError(r, diag.IRUnknownStmt, source.Span{File: 1, Start: 4, End: 8}, "unknown statement")
	diag.ReportError(r, diag.IRUnknownExpr, source.Span{}, "dropped by limit")

	if bag.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", bag.Len())
	}
	if !bag.HasErrors() || !bag.HasICE() {
		t.Fatal("expected an ICE-class error")
	}
	err := bag.Err()
	if err == nil || !strings.Contains(err.Error(), "ICE9002") {
		t.Fatalf("Err() = %v, want ICE9002", err)
	}
}

func TestCode_Classes(t *testing.T) {
	if !diag.IRNoEnclosingControl.IsICE() {
		t.Error("IRNoEnclosingControl should be ICE-class")
	}
	if diag.UnknownCode.IsICE() {
		t.Error("UnknownCode must not be ICE-class")
	}
	if got := diag.IRValidateNoBranch.ID(); got != "VAL9102" {
		t.Errorf("ID() = %q", got)
	}
}

func TestBag_SortAndMerge(t *testing.T) {
	a := diag.NewBag(1)
	a.Add(diag.NewError(diag.IRUnknownDecl, source.Span{File: 2, Start: 1}, "b"))
	b := diag.NewBag(4)
	b.Add(diag.NewError(diag.IRUnknownStmt, source.Span{File: 1, Start: 9}, "a"))
	a.Merge(b)
	a.Sort()
	items := a.Items()
	if len(items) != 2 || items[0].Primary.File != 1 {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		sev     diag.Severity
		name    string
		isError bool
	}{
		{diag.SevInfo, "info", false},
		{diag.SevWarning, "warning", false},
		{diag.SevError, "error", true},
		{diag.Severity(7), "severity(7)", true},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.sev.IsError(); got != tt.isError {
			t.Errorf("%s IsError() = %v, want %v", tt.name, got, tt.isError)
		}
	}
}
