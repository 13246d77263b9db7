package version

import "testing"

func TestIsOutdated(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		want    bool
	}{
		{current: "v1.2.2", latest: "v1.2.3", want: true},
		{current: "1.2.3", latest: "v1.2.3", want: false},
		{current: "v1.2.3", latest: "v1.2.2", want: false},
		{current: "dev", latest: "v1.2.3", want: false},
		{current: "v1.2.3", latest: "latest", want: false},
		{current: "v1.2.3-rc1", latest: "v1.2.4", want: true},
		{current: "41", latest: "42", want: true},
		{current: "2", latest: "2.0.1", want: true},
		{current: "10.0", latest: "9.9.9", want: false},
	}

	for _, tt := range tests {
		if got := IsOutdated(tt.current, tt.latest); got != tt.want {
			t.Fatalf("IsOutdated(%q,%q)=%v want %v", tt.current, tt.latest, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
		ok   bool
	}{
		{"1.0", "1.0.0", 0, true},
		{"1.10", "1.9", 1, true},
		{"0.9", "1", -1, true},
		{"1.2.3.4", "1", 0, false},
		{"", "1", 0, false},
	}
	for _, tt := range tests {
		got, ok := Compare(tt.a, tt.b)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Compare(%q,%q)=(%d,%v) want (%d,%v)", tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValid(t *testing.T) {
	for _, v := range []string{"1", "v2.1", "3.4.5-beta"} {
		if !Valid(v) {
			t.Fatalf("expected %q to be valid", v)
		}
	}
	for _, v := range []string{"", "latest", "1..2", "1.x"} {
		if Valid(v) {
			t.Fatalf("expected %q to be invalid", v)
		}
	}
}
