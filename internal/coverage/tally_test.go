package coverage

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/defconcepts/sipcoverage/internal/doxygen"
)

const fooXML = `<?xml version="1.0"?>
<doxygen>
  <compounddef id="classFoo" kind="class" prot="public">
    <compoundname>Foo</compoundname>
    <sectiondef kind="public-func">
      <memberdef kind="function" prot="public">
        <type>void</type>
        <definition>void Foo::bar</definition>
        <argsstring>()</argsstring>
        <name>bar</name>
        <briefdescription><para>Does bar.</para></briefdescription>
        <detaileddescription></detaileddescription>
        <inbodydescription></inbodydescription>
      </memberdef>
      <memberdef kind="function" prot="public">
        <type>int</type>
        <definition>int Foo::baz</definition>
        <argsstring>(int a)</argsstring>
        <name>baz</name>
        <briefdescription></briefdescription>
        <detaileddescription></detaileddescription>
        <inbodydescription></inbodydescription>
      </memberdef>
    </sectiondef>
  </compounddef>
</doxygen>`

func tallyOf(t *testing.T, xml string) *Tally {
	t.Helper()

	c := NewClassifier(DefaultRules())
	tally := NewTally()
	_, err := doxygen.Parse(strings.NewReader(xml), func(cd *doxygen.Compound) error {
		if res, ok := c.Classify(cd); ok {
			tally.Add(res)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return tally
}

// TestTallyFromXML tests the whole classification path on one class.
func TestTallyFromXML(t *testing.T) {
	t.Parallel()

	tally := tallyOf(t, fooXML)

	if tally.Classes != 1 {
		t.Errorf("expected 1 class, got %d", tally.Classes)
	}
	if tally.DocumentableMembers != 2 || tally.DocumentedMembers != 1 {
		t.Errorf("expected 1/2 documented, got %d/%d", tally.DocumentedMembers, tally.DocumentableMembers)
	}
	if len(tally.Undocumented) != 1 || tally.Undocumented[0].Missing[0] != "baz(int a)" {
		t.Errorf("unexpected undocumented entries: %+v", tally.Undocumented)
	}
	want := []BindableMember{{Class: "Foo", Member: "bar"}, {Class: "Foo", Member: "baz"}}
	if !reflect.DeepEqual(tally.Bindable, want) {
		t.Errorf("Bindable = %v, want %v", tally.Bindable, want)
	}
	if got := tally.DocumentationCoverage(); got != 50 {
		t.Errorf("DocumentationCoverage() = %v, want 50", got)
	}

	report := tally.UndocumentedReport()
	if !strings.Contains(report, "Class Foo, 1/2 members documented\n Missing: baz(int a)\n") {
		t.Errorf("unexpected report:\n%s", report)
	}
}

// TestTallyReimplementationFromXML tests that a reimplements element
// excludes a member from documentation.
func TestTallyReimplementationFromXML(t *testing.T) {
	t.Parallel()

	xml := `<doxygen><compounddef kind="class" prot="public"><compoundname>Child</compoundname>
<sectiondef><memberdef kind="function" prot="public">
<type>void</type><definition>void Child::paint</definition><argsstring>()</argsstring>
<name>paint</name><reimplements refid="classBase_1a">paint</reimplements>
</memberdef></sectiondef></compounddef></doxygen>`

	tally := tallyOf(t, xml)
	if tally.DocumentableMembers != 0 {
		t.Errorf("reimplementation should not need docs, got %d documentable", tally.DocumentableMembers)
	}
	if len(tally.Bindable) != 1 {
		t.Errorf("reimplementation should still be bindable, got %v", tally.Bindable)
	}
}

// TestTallyAdd tests accumulation rules.
func TestTallyAdd(t *testing.T) {
	t.Parallel()

	t.Run("fully documented class is not listed", func(t *testing.T) {
		t.Parallel()

		tally := NewTally()
		tally.Add(ClassResult{Class: "A", Documentable: 2, Documented: 2, BindableClass: true})
		if len(tally.Undocumented) != 0 {
			t.Errorf("unexpected undocumented entries: %+v", tally.Undocumented)
		}
	})

	t.Run("opted out class keeps documentation counts", func(t *testing.T) {
		t.Parallel()

		tally := NewTally()
		tally.Add(ClassResult{
			Class:        "A",
			Documentable: 1,
			Bindable:     []BindableMember{{Class: "A", Member: "x"}},
			Undocumented: []string{"x()"},
		})
		if len(tally.Bindable) != 0 {
			t.Errorf("opted out members should be dropped, got %v", tally.Bindable)
		}
		if tally.DocumentableMembers != 1 || len(tally.Undocumented) != 1 {
			t.Errorf("documentation should still count: %+v", tally)
		}
	})

	t.Run("empty tally has full coverage", func(t *testing.T) {
		t.Parallel()

		if got := NewTally().DocumentationCoverage(); got != 100 {
			t.Errorf("DocumentationCoverage() = %v, want 100", got)
		}
	})
}

// TestTallyMerge tests that merge order does not change the result.
func TestTallyMerge(t *testing.T) {
	t.Parallel()

	build := func() (*Tally, *Tally) {
		a := NewTally()
		a.Files = 1
		a.Add(ClassResult{Class: "B", Documentable: 3, Documented: 1, Undocumented: []string{"x()", "y()"},
			Bindable: []BindableMember{{Class: "B", Member: "x"}}, BindableClass: true})

		b := NewTally()
		b.Files = 2
		b.Add(ClassResult{Class: "A", Documentable: 1, Documented: 0, Undocumented: []string{"z()"},
			Bindable: []BindableMember{{Class: "A", Member: "z"}}, BindableClass: true})
		b.AddParseError(&doxygen.ParseError{File: "bad.xml", Line: 3, Column: 2, Err: errors.New("boom")})
		return a, b
	}

	a1, b1 := build()
	ab := NewTally()
	ab.Merge(a1)
	ab.Merge(b1)
	ab.Sort()

	a2, b2 := build()
	ba := NewTally()
	ba.Merge(b2)
	ba.Merge(a2)
	ba.Sort()

	if !reflect.DeepEqual(ab, ba) {
		t.Errorf("merge is order dependent:\n%+v\n%+v", ab, ba)
	}
	if ab.Files != 3 || ab.Classes != 2 || ab.DocumentableMembers != 4 || ab.DocumentedMembers != 1 {
		t.Errorf("unexpected counters: %+v", ab)
	}
	if got := ab.BindableClasses(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("BindableClasses() = %v", got)
	}
	if ab.Undocumented[0].Class != "A" {
		t.Errorf("Sort() should order classes, got %s first", ab.Undocumented[0].Class)
	}

	ab.Merge(nil)
	if ab.Files != 3 {
		t.Error("merging nil should be a no-op")
	}
}

// TestParseFailureReport tests the parse error rendering.
func TestParseFailureReport(t *testing.T) {
	t.Parallel()

	p := ParseFailure{File: "bad.xml", Line: 2, Column: 4, Message: "unexpected EOF", SourceLine: "<a><b"}
	want := "ParseError in bad.xml\nunexpected EOF\n<a><b\n===^"
	if got := p.Report(); got != want {
		t.Errorf("Report() = %q, want %q", got, want)
	}
}
