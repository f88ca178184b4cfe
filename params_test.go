package apicall

import "testing"

func TestParamsEncode(t *testing.T) {
	testCases := []struct {
		name     string
		params   Params
		expected string
	}{
		{"Empty", nil, ""},
		{"Insertion order", P("b", 2, "a", 1), "b=2&a=1"},
		{"Escaping", P("q", "a b&c=d"), "q=a+b%26c%3Dd"},
		{"Booleans", P("t", true, "f", false), "t=1&f=0"},
		{"Nil skipped", P("a", nil, "b", "x"), "b=x"},
		{"Float", P("f", 1.5), "f=1.5"},
		{"Tilde", P("k~", "a~b"), "k%7E=a%7Eb"},
		{"Slice", P("ids", []any{1, "two"}), "ids%5B0%5D=1&ids%5B1%5D=two"},
		{"String slice", P("tags", []string{"x", "y"}), "tags%5B0%5D=x&tags%5B1%5D=y"},
		{"Map", P("u", map[string]any{"b": "2", "a": "1"}), "u%5Ba%5D=1&u%5Bb%5D=2"},
		{"Nested params", P("u", P("z", 1, "y", 2)), "u%5Bz%5D=1&u%5By%5D=2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.params.Encode(); got != tc.expected {
				t.Errorf("Encode() = %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestParamsSet(t *testing.T) {
	p := P("a", 1, "b", 2)
	p = p.Set("a", 3).Set("c", 4)

	if got := p.Encode(); got != "a=3&b=2&c=4" {
		t.Errorf("Encode() = %q, want %q", got, "a=3&b=2&c=4")
	}

	v, ok := p.Get("c")
	if !ok || v != 4 {
		t.Errorf("Get(c) = %v, %v, want 4, true", v, ok)
	}
	if _, ok := p.Get("missing"); ok {
		t.Errorf("Get(missing) found a value")
	}

	// odd number of arguments drops the last key
	if got := P("a", 1, "b").Encode(); got != "a=1" {
		t.Errorf("P with dangling key = %q, want %q", got, "a=1")
	}
}

func TestParamsSetKeepsReceiver(t *testing.T) {
	base := P("a", 1, "b", 2)
	changed := base.Set("a", 99)
	added := base.Set("c", 3)

	if got := base.Encode(); got != "a=1&b=2" {
		t.Errorf("base Encode() = %q, want %q", got, "a=1&b=2")
	}
	if got := changed.Encode(); got != "a=99&b=2" {
		t.Errorf("changed Encode() = %q, want %q", got, "a=99&b=2")
	}
	if got := added.Encode(); got != "a=1&b=2&c=3" {
		t.Errorf("added Encode() = %q, want %q", got, "a=1&b=2&c=3")
	}
}

func TestFromMap(t *testing.T) {
	p := FromMap(map[string]any{"z": "1", "a": "2", "m": "3"})
	if got := p.Encode(); got != "a=2&m=3&z=1" {
		t.Errorf("FromMap(...).Encode() = %q, want %q", got, "a=2&m=3&z=1")
	}
}
