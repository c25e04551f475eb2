package utils

import (
	"testing"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, 20},
		{"3", "10", 3, 10},
		{"0", "-4", 1, 20},
		{"abc", "500", 1, 50},
		{"2", "50", 2, 50},
	}
	for _, tc := range tests {
		page, limit := ParsePagination(tc.page, tc.limit, 20, 50)
		if page != tc.wantPage || limit != tc.wantLimit {
			t.Errorf("ParsePagination(%q, %q) = %d, %d; want %d, %d",
				tc.page, tc.limit, page, limit, tc.wantPage, tc.wantLimit)
		}
	}
}

func TestParseID(t *testing.T) {
	if id, ok := ParseID("42"); !ok || id != 42 {
		t.Errorf("ParseID(42) = %d, %v", id, ok)
	}
	for _, raw := range []string{"", "0", "-1", "x1"} {
		if _, ok := ParseID(raw); ok {
			t.Errorf("ParseID(%q) should fail", raw)
		}
	}
}

func TestHasMinLength(t *testing.T) {
	if HasMinLength("   short   ", 10) {
		t.Error("padding must not count towards the minimum")
	}
	if !HasMinLength("exactly 10", 10) {
		t.Error("10 characters should satisfy a minimum of 10")
	}
}
