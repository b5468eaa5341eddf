package factmodel

import "testing"

func TestValueEqual(t *testing.T) {
	cases := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"two nulls", Null, Null, true},
		{"same int", NewInt(400), NewInt(400), true},
		{"different int", NewInt(400), NewInt(401), false},
		{"same string", NewString("equity"), NewString("equity"), true},
		{"int vs string", NewInt(1), NewString("1"), false},
		{"null vs zero int", Null, NewInt(0), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Equal(c.b); got != c.equal {
				t.Errorf("Equal() = %v, want %v", got, c.equal)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	if got := NewInt(42).String(); got != "42" {
		t.Errorf("String() = %q, want 42", got)
	}
	if got := Null.String(); got != "" {
		t.Errorf("String() = %q, want empty", got)
	}
}
