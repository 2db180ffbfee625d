package model

import "testing"

func TestInNamespace(t *testing.T) {
	tests := []struct {
		key, ns string
		want    bool
	}{
		{ConfigKey("pref", "grouping"), "pref", true},
		{"pref:grouping", "", true},
		{"prefs:grouping", "pref", false},
		{"pref", "pref", false},
		{"view:default", "pref", false},
	}
	for _, tt := range tests {
		if got := InNamespace(tt.key, tt.ns); got != tt.want {
			t.Errorf("InNamespace(%q, %q) = %v, want %v", tt.key, tt.ns, got, tt.want)
		}
	}
}
