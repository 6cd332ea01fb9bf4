package budget

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		want  Tier
	}{
		{"empty", 0, TierNone},
		{"exactly info threshold", 10 * MiB, TierNone},
		{"just over info threshold", 10*MiB + 1, TierInfo},
		{"middle of info band", 20 * MiB, TierInfo},
		{"just under warning", 30*MiB - 1, TierInfo},
		{"exactly warning", 30 * MiB, TierWarning},
		{"36 MiB", 36 * MiB, TierWarning},
		{"just under danger", 40*MiB - 1, TierWarning},
		{"exactly danger", 40 * MiB, TierDanger},
		{"at cap", 45 * MiB, TierDanger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.total); got != tt.want {
				t.Errorf("Classify(%d) = %q, want %q", tt.total, got, tt.want)
			}
		})
	}
}
