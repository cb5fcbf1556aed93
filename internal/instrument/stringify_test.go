package instrument

import (
	"errors"
	"math"
	"testing"
)

type explodingStringer struct{}

func (explodingStringer) String() string { panic("no string for you") }

type wrapper struct {
	Inner explodingStringer
}

func TestStringify(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "<nil>"},
		{"plain", "plain"},
		{1100.0, "1100.0"},
		{0.1, "0.1"},
		{float32(2), "2.0"},
		{1e21, "1e+21"},
		{math.Inf(1), "+Inf"},
		{42, "42"},
		{errors.New("bad"), "bad"},
		{[]int{1, 2}, "[1 2]"},
	}
	for _, c := range cases {
		got, ok := Stringify(c.in)
		if !ok || got != c.want {
			t.Errorf("Stringify(%#v) = %q, %v; want %q", c.in, got, ok, c.want)
		}
	}
}

func TestRepr_QuotesStrings(t *testing.T) {
	got, ok := Repr("a")
	if !ok || got != `"a"` {
		t.Errorf("expected quoted string, got %q", got)
	}
}

func TestStringify_Degrades(t *testing.T) {
	got, ok := Stringify(explodingStringer{})
	if ok || got != Unprintable {
		t.Errorf("expected placeholder, got %q, %v", got, ok)
	}

	got, ok = Stringify(wrapper{})
	if ok || got != Unprintable {
		t.Errorf("expected placeholder for nested panic, got %q, %v", got, ok)
	}
}

func TestUnprintableArgument_DoesNotAbortCall(t *testing.T) {
	in, mem, _ := setup(t)
	f := Wrap1(in, "f", func(explodingStringer) (int, error) { return 1, nil })

	got, err := f(explodingStringer{})
	if err != nil || got != 1 {
		t.Fatalf("call should succeed, got %v, %v", got, err)
	}
	if doc := onlyDocument(t, mem); doc["args"] != "("+Unprintable+")" {
		t.Errorf("unexpected args: %v", doc["args"])
	}
}
