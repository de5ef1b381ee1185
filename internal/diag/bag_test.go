package diag

import "testing"

func TestBagRespectsLimit(t *testing.T) {
	b := NewBag(2)
	for i := 0; i < 3; i++ {
		b.Add(Diagnostic{Severity: SevInfo, Code: ScanNoTerminator, Path: "net.f90", Line: uint32(i + 1)})
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", b.Len())
	}
	if b.HasWarnings() {
		t.Fatal("info diagnostics must not count as warnings")
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(10)
	b.Add(Diagnostic{Severity: SevInfo, Code: ScanIgnored, Path: "b.f90", Line: 3})
	b.Add(Diagnostic{Severity: SevWarning, Code: ScanNoTerminator, Path: "a.f90", Line: 9})
	b.Add(Diagnostic{Severity: SevInfo, Code: ScanInsideInterface, Path: "a.f90", Line: 2})
	b.Add(Diagnostic{Severity: SevInfo, Code: ScanIgnored, Path: "b.f90", Line: 3})

	b.Dedup()
	if b.Len() != 3 {
		t.Fatalf("expected 3 after dedup, got %d", b.Len())
	}
	b.Sort()
	items := b.Items()
	if items[0].Path != "a.f90" || items[0].Line != 2 {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[2].Path != "b.f90" {
		t.Fatalf("unexpected last item: %+v", items[2])
	}
	if b.Count(ScanIgnored) != 1 {
		t.Fatalf("Count(ScanIgnored) = %d", b.Count(ScanIgnored))
	}
}

func TestMergeGrowsLimit(t *testing.T) {
	a := NewBag(1)
	a.Add(Diagnostic{Code: ScanIgnored})
	other := NewBag(2)
	other.Add(Diagnostic{Code: ScanNoTerminator})
	other.Add(Diagnostic{Code: ScanInsideInterface})

	a.Merge(other)
	if a.Len() != 3 {
		t.Fatalf("expected 3 diagnostics after merge, got %d", a.Len())
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		ScanNoTerminator:     "SCN1001",
		TraceMalformedMarker: "TRC2001",
		SyncReset:            "SYN3002",
		UnknownCode:          "E0000",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Fatalf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Severity: SevInfo, Code: ScanNoTerminator, Message: "no end for subroutine foo", Path: "net.f90", Line: 12}
	want := "net.f90:12 INFO SCN1001: no end for subroutine foo"
	if got := d.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !SevError.AtLeast(SevWarning) || !SevWarning.AtLeast(SevWarning) || SevInfo.AtLeast(SevWarning) {
		t.Fatalf("unexpected severity ordering")
	}
	if SevWarning.String() != "WARNING" || Severity(9).String() != "UNKNOWN" {
		t.Fatalf("unexpected severity names: %s %s", SevWarning, Severity(9))
	}
}
