package util

import "testing"

func TestParseAmountCent(t *testing.T) {
	testCases := []struct {
		in   string
		want int64
	}{
		{"150.75", 15075},
		{"0.01", 1},
		{"500", 50000},
		{"500.00", 50000},
		{"  12.3 ", 1230},
		{"-42.50", -4250}, // sign is the caller's concern, parsing keeps it
	}

	for _, tc := range testCases {
		got, err := ParseAmountCent(tc.in)
		if err != nil {
			t.Errorf("ParseAmountCent(%q) error = %v, want nil", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAmountCent(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseAmountCent_Invalid(t *testing.T) {
	testCases := []string{
		"",
		"   ",
		"abc",
		"12.345", // three decimal places
		"1,50",
	}

	for _, in := range testCases {
		if _, err := ParseAmountCent(in); err == nil {
			t.Errorf("ParseAmountCent(%q) error = nil, want error", in)
		}
	}
}

func TestFormatCent(t *testing.T) {
	testCases := []struct {
		in   int64
		want string
	}{
		{15075, "150.75"},
		{1, "0.01"},
		{50000, "500.00"},
		{0, "0.00"},
		{-4250, "-42.50"},
	}

	for _, tc := range testCases {
		if got := FormatCent(tc.in); got != tc.want {
			t.Errorf("FormatCent(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"0.01", "150.75", "9999999.99"} {
		cent, err := ParseAmountCent(s)
		if err != nil {
			t.Fatalf("ParseAmountCent(%q): %v", s, err)
		}
		if got := FormatCent(cent); got != s {
			t.Errorf("round trip %q -> %d -> %q", s, cent, got)
		}
	}
}
