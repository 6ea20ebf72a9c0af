package memoparser

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Result
	}{
		{
			name: "full memo with account code",
			in:   "PAYMENT PL1_PROD2_VAR3 6211 INVOICE 42",
			want: Result{ProductLineID: "PL1", ProductID: "PROD2", VariantID: "VAR3", AccountCode: "6211"},
		},
		{
			name: "lowercase input uppercased",
			in:   "pl1_prod2_var3 6411",
			want: Result{ProductLineID: "PL1", ProductID: "PROD2", VariantID: "VAR3", AccountCode: "6411"},
		},
		{
			name: "memo without account code",
			in:   "transfer ABC_DEF_GHI to supplier",
			want: Result{ProductLineID: "ABC", ProductID: "DEF", VariantID: "GHI"},
		},
		{
			name: "off-list code discarded, triple kept",
			in:   "PL1_PROD2_VAR3 9999",
			want: Result{ProductLineID: "PL1", ProductID: "PROD2", VariantID: "VAR3"},
		},
		{
			name: "no memo at all",
			in:   "GROCERY STORE PURCHASE",
			want: Result{},
		},
		{
			name: "empty description",
			in:   "",
			want: Result{},
		},
		{
			name: "two underscores but only two segments",
			in:   "AB_CD payment",
			want: Result{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatched(t *testing.T) {
	if (Result{}).Matched() {
		t.Fatal("zero Result should not report Matched")
	}
	if !Parse("X_Y_Z").Matched() {
		t.Fatal("parsed memo should report Matched")
	}
}

func TestValidAccountCode(t *testing.T) {
	for _, code := range []string{"6211", "6225", "6273", "6414", "6428"} {
		if !ValidAccountCode(code) {
			t.Errorf("ValidAccountCode(%s) = false, want true", code)
		}
	}
	for _, code := range []string{"6200", "0000", "", "62110"} {
		if ValidAccountCode(code) {
			t.Errorf("ValidAccountCode(%q) = true, want false", code)
		}
	}
}
