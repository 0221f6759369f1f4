package core

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "plain", in: "150000", want: 150000},
		{name: "dot separators", in: "1.500.000", want: 1500000},
		{name: "comma separators", in: "1,500,000", want: 1500000},
		{name: "surrounding space", in: "  42000 ", want: 42000},
		{name: "zero", in: "0", want: 0},
		{name: "empty", in: "", wantErr: true},
		{name: "blank", in: "   ", wantErr: true},
		{name: "negative", in: "-5000", wantErr: true},
		{name: "plus sign", in: "+5000", wantErr: true},
		{name: "non numeric", in: "abc", wantErr: true},
		{name: "mixed", in: "12x00", wantErr: true},
		{name: "only separators", in: "...", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0 VND"},
		{999, "999 VND"},
		{1000, "1.000 VND"},
		{150000, "150.000 VND"},
		{1500000, "1.500.000 VND"},
		{-25000, "-25.000 VND"},
	}
	for _, tt := range tests {
		if got := (Money{Amount: tt.amount}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Amount: 0}).Validate(); err != nil {
		t.Errorf("zero must be valid: %v", err)
	}
	if err := (Money{Amount: -1}).Validate(); err == nil {
		t.Error("negative amount must be rejected")
	}
}
