package intent

import "testing"

func TestNormalizeDuration(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 4},
		{1, 4},
		{4, 4},
		{5, 4},
		{6, 6},
		{7, 6},
		{8, 8},
		{15, 8},
		{100, 8},
	}
	for _, tc := range cases {
		if got := NormalizeDuration(tc.in); got != tc.want {
			t.Errorf("NormalizeDuration(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFastVariant(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"veo-3.1-generate-preview", "veo-3.1-fast-generate-preview"},
		{"veo-3.1-fast-generate-preview", "veo-3.1-fast-generate-preview"},
		{"some-other-model", "some-other-model"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FastVariant(tc.in); got != tc.want {
			t.Errorf("FastVariant(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStandardVariant(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"veo-3.1-fast-generate-preview", "veo-3.1-generate-preview"},
		{"veo-3.1-generate-preview", "veo-3.1-generate-preview"},
		{"weird-model-name", "weird-model-name"},
	}
	for _, tc := range cases {
		if got := StandardVariant(tc.in); got != tc.want {
			t.Errorf("StandardVariant(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestVariantRoundTrip(t *testing.T) {
	base := "veo-3.1-generate-preview"
	if got := StandardVariant(FastVariant(base)); got != base {
		t.Fatalf("round trip changed model: %q", got)
	}
}
