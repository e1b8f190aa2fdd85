package helper

import (
	"reflect"
	"testing"
	"time"

	"github.com/relloyd/empetl/logger"
)

func TestCsvToStringSliceTrimSpaces(t *testing.T) {
	// Test 1 - ids with spaces.
	got := CsvToStringSliceTrimSpaces(" 5, 6 ")
	if !reflect.DeepEqual(got, []string{"5", "6"}) {
		t.Fatalf("unexpected slice %v", got)
	}
	// Test 2 - whitespace only input collapses to a single empty token.
	got = CsvToStringSliceTrimSpaces("   ")
	if !reflect.DeepEqual(got, []string{""}) {
		t.Fatalf("unexpected slice %v", got)
	}
}

func TestStringSliceToSortedCsv(t *testing.T) {
	// Test 1 - sorted and de-duplicated.
	if got := StringSliceToSortedCsv([]string{"6", "5", "6"}); got != "5,6" {
		t.Fatalf("expected 5,6; got %q", got)
	}
	// Test 2 - empty input is the empty string.
	if got := StringSliceToSortedCsv(nil); got != "" {
		t.Fatalf("expected empty string; got %q", got)
	}
}

func TestGetStringFromInterface(t *testing.T) {
	log := logger.NewLogger("empetl", "info", true)
	ts := time.Date(2023, 5, 12, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		in   interface{}
		want string
	}{
		{int64(5), "5"},
		{"abc", "abc"},
		{float64(1234.5), "1234.5"},
		{[]uint8("raw"), "raw"},
		{nil, ""},
		{true, "true"},
		{ts, "20230512T100000+0000"},
	}
	for _, c := range cases {
		if got := GetStringFromInterfaceUseUtcTime(log, c.in); got != c.want {
			t.Fatalf("input %v: expected %q; got %q", c.in, c.want, got)
		}
	}
}

func TestGetTrueFalseStringAsBool(t *testing.T) {
	for _, s := range []string{"true", " TRUE ", "1", "yes"} {
		if !GetTrueFalseStringAsBool(s) {
			t.Fatalf("expected %q to be true", s)
		}
	}
	for _, s := range []string{"", "false", "0", "untrue"} {
		if GetTrueFalseStringAsBool(s) {
			t.Fatalf("expected %q to be false", s)
		}
	}
}

func TestAtomBool(t *testing.T) {
	b := AtomBool{}
	if b.Get() {
		t.Fatal("expected zero value AtomBool to be false")
	}
	b.Set(true)
	if !b.Get() {
		t.Fatal("expected AtomBool to be true after Set(true)")
	}
	b.Set(false)
	if b.Get() {
		t.Fatal("expected AtomBool to be false after Set(false)")
	}
}

func TestStringInSlice(t *testing.T) {
	if !StringInSlice("b", []string{"a", "b"}) {
		t.Fatal("expected b to be found")
	}
	if StringInSlice("c", []string{"a", "b"}) || StringInSlice("", nil) {
		t.Fatal("unexpected match")
	}
}
