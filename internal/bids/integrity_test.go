package bids

import "testing"

func items(complete, total int) []ChecklistItem {
	out := make([]ChecklistItem, 0, total)
	for i := 0; i < total; i++ {
		status := ChecklistPending
		if i < complete {
			status = ChecklistComplete
		}
		out = append(out, ChecklistItem{ID: string(rune('a' + i)), Status: status})
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		bid  Bid
		want int
	}{
		{
			name: "half technical, empty elsewhere",
			bid:  Bid{TechnicalQualificationChecklist: items(2, 4)},
			want: 45,
		},
		{
			name: "empty bid scores checklist weights only",
			bid:  Bid{},
			want: 60,
		},
		{
			name: "fully complete",
			bid: Bid{
				TechnicalQualificationChecklist: items(3, 3),
				ComplianceChecklist:             items(2, 2),
				FinancialFormats:                []FinancialRow{{Item: "a", UnitPrice: 10}, {Item: "b", UnitPrice: 1}},
				ManagementApprovalStatus:        ApprovalApproved,
			},
			want: 100,
		},
		{
			name: "unpriced rows count against commercial",
			bid: Bid{
				FinancialFormats: []FinancialRow{{Item: "a", UnitPrice: 10}, {Item: "b"}, {Item: "c"}},
			},
			want: 70,
		},
		{
			name: "approval must be exact",
			bid:  Bid{ManagementApprovalStatus: "Submitted"},
			want: 60,
		},
		{
			name: "custom weights",
			bid: Bid{
				IntegrityScoreBreakdown:  &IntegrityWeights{Technical: 40, Compliance: 20, Commercial: 20, Legal: 20},
				ComplianceChecklist:      items(1, 3),
				ManagementApprovalStatus: ApprovalApproved,
			},
			want: 67,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.bid); got != tt.want {
				t.Fatalf("Score = %d, want %d (breakdown %+v)", got, tt.want, Breakdown(tt.bid))
			}
		})
	}
}

func TestBreakdownExample(t *testing.T) {
	got := Breakdown(Bid{TechnicalQualificationChecklist: items(2, 4)})
	if got.Technical != 15 || got.Compliance != 30 || got.Commercial != 0 || got.Legal != 0 {
		t.Fatalf("unexpected breakdown: %+v", got)
	}
}
