package billing

import "testing"

func TestMaskCard(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"4111-1111-1111-1234", "****-****-****-1234"},
		{"4111 1111 1111 9876", "****-****-****-9876"},
		{"4111111111111234", "****-****-****-1234"},
		{"12", "****"},
		{"1-2 3", "****"},
		{"", ""},
	}

	for _, c := range cases {
		if got := MaskCard(c.in); got != c.want {
			t.Errorf("MaskCard(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
