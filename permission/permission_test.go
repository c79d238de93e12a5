package permission

import "testing"

func TestDominates(t *testing.T) {
	cases := []struct {
		name    string
		granted Permission
		needed  Permission
		want    bool
	}{
		{"read dominates read", Read, Read, true},
		{"read does not dominate write", Read, Write, false},
		{"read-write dominates read", Read | Write, Read, true},
		{"all dominates all", All, All, true},
		{"none dominates none", None, None, true},
		{"none does not dominate read", None, Read, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.granted.Dominates(c.needed); got != c.want {
				t.Errorf("Dominates(%v, %v) = %v, want %v", c.granted, c.needed, got, c.want)
			}
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for p := Permission(0); p <= All; p++ {
		s := p.String()
		if got := Parse(s); got != p {
			t.Errorf("Parse(%q) = %v, want %v", s, got, p)
		}
	}
}
