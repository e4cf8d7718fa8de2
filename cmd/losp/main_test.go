package main

import "testing"

func TestVerbosityFromEnv(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"unset", "", 0},
		{"numeric", "2", 2},
		{"garbage", "loud", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOSP_VERBOSITY", tt.env)
			if got := verbosity(); got != tt.want {
				t.Errorf("verbosity() = %d, want %d", got, tt.want)
			}
		})
	}
}
