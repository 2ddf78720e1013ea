package models

import "testing"

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"politics", CategoryPolitics, true},
		{"  Business ", CategoryBusiness, true},
		{"INTERNATIONAL", CategoryInternational, true},
		{"other", CategoryOther, true},
		{"latest", "", false},
		{"federal-politics", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseCategory(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
