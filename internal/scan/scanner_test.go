package scan

import (
	"testing"

	"fortrace/internal/diag"
	"fortrace/internal/marker"
)

func src(lines ...string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}

func scanOne(t *testing.T, lines []string, opts Options) Routine {
	t.Helper()
	rs := Scan(lines, opts)
	if len(rs) != 1 {
		t.Fatalf("expected 1 routine, got %d: %+v", len(rs), rs)
	}
	return rs[0]
}

func TestScanSubroutine(t *testing.T) {
	r := scanOne(t, src(
		"      subroutine foo(x)",
		"      real :: x",
		"      integer :: i",
		"      x = 1.0",
		"      end subroutine foo",
	), Options{Path: "net.f90"})

	if r.Kind != Subroutine || r.Name != "foo" || r.Label != "subroutine foo" {
		t.Fatalf("unexpected identity: %+v", r)
	}
	if r.Terminator != "end subroutine foo" || r.End != 4 {
		t.Fatalf("terminator = %q at %d", r.Terminator, r.End)
	}
	if r.Insertion != 3 || r.FinishAt != 4 || r.Contains != -1 {
		t.Fatalf("insertion=%d finish=%d contains=%d", r.Insertion, r.FinishAt, r.Contains)
	}
	if !r.Instrumentable() {
		t.Fatalf("status = %s", r.Status)
	}
}

func TestScanFunction(t *testing.T) {
	r := scanOne(t, src(
		"integer function count_zones(n) ! number of zones",
		"  integer, intent(in) :: n",
		"  count_zones = n",
		"end function count_zones",
	), Options{Path: "mesh.f90"})

	if r.Kind != Function || r.Name != "count_zones" || r.Label != "integer function count_zones" {
		t.Fatalf("unexpected identity: %+v", r)
	}
	if r.Terminator != "end function count_zones" || r.End != 3 || r.Insertion != 2 {
		t.Fatalf("unexpected boundaries: %+v", r)
	}
}

func TestScanHeaderCaseInsensitive(t *testing.T) {
	r := scanOne(t, src(
		"      SUBROUTINE Do_Step(s)",
		"      TYPE(star_info) :: s",
		"      CALL advance(s)",
		"      END SUBROUTINE Do_Step ! done",
	), Options{Path: "evolve.f"})
	if r.Label != "SUBROUTINE Do_Step" || r.End != 3 || r.Insertion != 2 {
		t.Fatalf("unexpected routine: %+v", r)
	}
}

func TestScanContains(t *testing.T) {
	rs := Scan(src(
		"subroutine outer(a)",
		"  integer :: a",
		"  a = 2",
		"  call inner()",
		"contains",
		"  subroutine inner()",
		"    print *, 'hi'",
		"  end subroutine inner",
		"end subroutine outer",
	), Options{Path: "nest.f90"})
	if len(rs) != 2 {
		t.Fatalf("expected 2 routines, got %d", len(rs))
	}
	outer, inner := rs[0], rs[1]
	if outer.End != 8 || outer.Contains != 4 || outer.FinishAt != 4 || outer.Insertion != 2 {
		t.Fatalf("outer: %+v", outer)
	}
	if inner.Header != 5 || inner.End != 7 || inner.Insertion != 6 || inner.FinishAt != 7 || inner.HasContains() {
		t.Fatalf("inner: %+v", inner)
	}
}

func TestScanInsertionNeverPassesContains(t *testing.T) {
	r := Scan(src(
		"subroutine outer()",
		"  integer :: a",
		"  ! helpers",
		"contains",
		"  subroutine inner()",
		"    a = 1",
		"  end subroutine inner",
		"end subroutine outer",
	), Options{Path: "nest.f90"})[0]
	if r.Insertion != 3 || r.FinishAt != 3 {
		t.Fatalf("insertion=%d finish=%d, want both at contains (3)", r.Insertion, r.FinishAt)
	}
}

func TestScanInterfaceExclusion(t *testing.T) {
	bag := diag.NewBag(10)
	rs := Scan(src(
		"module m",
		"  interface",
		"    subroutine ext(x)",
		"      real :: x",
		"    end subroutine ext",
		"  end interface",
		"contains",
		"  subroutine local()",
		"    call ext(1.0)",
		"  end subroutine local",
		"end module m",
	), Options{Path: "m.f90", Reporter: diag.BagReporter{Bag: bag}})
	if len(rs) != 2 {
		t.Fatalf("expected 2 routines, got %d", len(rs))
	}
	if rs[0].Status != StatusInterface {
		t.Fatalf("ext status = %s, want interface", rs[0].Status)
	}
	if rs[1].Status != StatusOK || rs[1].Insertion != 8 {
		t.Fatalf("local: %+v", rs[1])
	}
	if bag.Count(diag.ScanInsideInterface) != 1 {
		t.Fatalf("expected one interface diagnostic, got %v", bag.Items())
	}
}

func TestScanNamedInterfaceInsideDeclarations(t *testing.T) {
	rs := Scan(src(
		"subroutine driver(f)",
		"  interface solver",
		"    subroutine f(x)",
		"      real :: x",
		"    end subroutine f",
		"  end interface solver",
		"  call f(1.0)",
		"end subroutine driver",
	), Options{Path: "d.f90"})
	if len(rs) != 2 {
		t.Fatalf("expected 2 routines, got %d", len(rs))
	}
	if rs[0].Status != StatusOK || rs[0].Insertion != 6 {
		t.Fatalf("driver: %+v", rs[0])
	}
	if rs[1].Status != StatusInterface {
		t.Fatalf("f status = %s", rs[1].Status)
	}
}

func TestScanTerminatorFallback(t *testing.T) {
	r := scanOne(t, src(
		"subroutine legacy(a)",
		"  a = 1",
		"end subroutine",
	), Options{Path: "old.f"})
	if r.End != 2 || r.Terminator != "end subroutine legacy" {
		t.Fatalf("fallback failed: %+v", r)
	}
}

func TestScanNoTerminator(t *testing.T) {
	bag := diag.NewBag(10)
	r := scanOne(t, src(
		"logical function is_ok(s)",
		"  is_ok = .true.",
		"end",
	), Options{Path: "ok.f90", Reporter: diag.BagReporter{Bag: bag}})
	if r.Status != StatusNoTerminator || r.End != -1 || r.Insertion != -1 {
		t.Fatalf("unexpected routine: %+v", r)
	}
	if bag.Count(diag.ScanNoTerminator) != 1 || bag.HasErrors() {
		t.Fatalf("expected one informational diagnostic, got %v", bag.Items())
	}
	if bag.Items()[0].Line != 1 {
		t.Fatalf("diagnostic line = %d, want 1", bag.Items()[0].Line)
	}
}

func TestScanContinuationAndSelect(t *testing.T) {
	cases := []struct {
		name  string
		lines []string
		want  int
	}{
		{
			name: "ampersand",
			lines: src(
				"subroutine long_args(a, &",
				"     b)",
				"  a = b",
				"end subroutine long_args",
			),
			want: 2,
		},
		{
			name: "select",
			lines: src(
				"subroutine pick(k)",
				"  integer :: k",
				"  select case (k)",
				"  case (1)",
				"    k = 2",
				"  end select",
				"  k = 3",
				"end subroutine pick",
			),
			want: 6,
		},
		{
			name: "code between closed selects",
			lines: src(
				"subroutine foo(i)",
				"  integer :: i",
				"  select case (i)",
				"  case (1)",
				"  end select",
				"  y = 1",
				"  select case (i)",
				"  case (2)",
				"  end select",
				"  z = 1",
				"end subroutine foo",
			),
			want: 5,
		},
		{
			name: "nested select closes with outer",
			lines: src(
				"subroutine bar(i, j)",
				"  integer :: i, j",
				"  select case (i)",
				"  case (1)",
				"    select case (j)",
				"    case (2)",
				"    end select",
				"    j = 0",
				"  end select",
				"  i = 0",
				"end subroutine bar",
			),
			want: 9,
		},
		{
			name: "declarations only",
			lines: src(
				"subroutine empty()",
				"  implicit none",
				"",
				"end subroutine empty",
			),
			want: 3,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := scanOne(t, tc.lines, Options{Path: "x.f90"})
			if r.Insertion != tc.want {
				t.Fatalf("insertion = %d, want %d", r.Insertion, tc.want)
			}
		})
	}
}

func TestScanRepeatedHeaders(t *testing.T) {
	rs := Scan(src(
		"subroutine foo()",
		"  x = 1",
		"end subroutine foo",
		"subroutine foo()",
		"  x = 2",
		"end subroutine foo",
	), Options{Path: "dup.f90"})
	if len(rs) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(rs))
	}
	if rs[0].End != 2 || rs[1].End != 5 || rs[1].Insertion != 4 {
		t.Fatalf("occurrences: %+v", rs)
	}
}

func TestScanAlreadyInstrumented(t *testing.T) {
	start := marker.Statement(marker.Start, "subroutine foo", "net.f90")
	finish := marker.Statement(marker.Finish, "subroutine foo", "net.f90")
	rs := Scan(src(
		"subroutine foo()",
		"  real :: y",
		start,
		"  y = 1",
		finish,
		"end subroutine foo",
		"subroutine foo()",
		"  y = 2",
		"end subroutine foo",
	), Options{Path: "/tmp/net.f90"})
	if rs[0].Status != StatusInstrumented {
		t.Fatalf("first occurrence status = %s", rs[0].Status)
	}
	if rs[1].Status != StatusOK {
		t.Fatalf("second occurrence status = %s", rs[1].Status)
	}
}

func TestScanIgnorePatterns(t *testing.T) {
	lines := src(
		"subroutine foo()",
		"  x = 1",
		"end subroutine foo",
	)
	cases := []struct {
		pattern Pattern
		origin  string
		want    Status
	}{
		{Pattern{Kind: NameEquals, Value: "foo"}, "a.f90", StatusIgnored},
		{Pattern{Kind: NameContains, Value: "subroutine f"}, "a.f90", StatusIgnored},
		{Pattern{Kind: FileEquals, Value: "a.f90"}, "a.f90", StatusIgnored},
		{Pattern{Kind: FileEquals, Value: "b.f90"}, "a.f90", StatusOK},
	}
	for _, tc := range cases {
		r := scanOne(t, lines, Options{Origin: tc.origin, Ignore: []Pattern{tc.pattern}})
		if r.Status != tc.want {
			t.Errorf("%s: status = %s, want %s", tc.pattern, r.Status, tc.want)
		}
		if tc.want == StatusIgnored && r.Reason != tc.pattern.String() {
			t.Errorf("%s: reason = %q", tc.pattern, r.Reason)
		}
	}
}
