package event

import "testing"

func TestParseType(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Type
		wantOK bool
	}{
		{"auction_started exact", "auction_started", AuctionStarted, true},
		{"submission_rejected exact", "submission_rejected", SubmissionRejected, true},
		{"uppercase", "AUCTION_RESOLVED", AuctionResolved, true},
		{"mixed case", "Occurrence_Detected", OccurrenceDetected, true},
		{"leading space", " occurrence_ignored", OccurrenceIgnored, true},
		{"tab", "\tpromotion_rejected\t", PromotionRejected, true},

		{"unknown type", "unknown", "", false},
		{"empty string", "", "", false},
		{"internal space", "auction started", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseType(tt.input)
			if ok != tt.wantOK {
				t.Errorf("ParseType(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseType_RoundTrip(t *testing.T) {
	for _, name := range TypeNames() {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseType(name)
			if !ok {
				t.Errorf("ParseType(%q) returned false, expected true", name)
			}
			if string(got) != name {
				t.Errorf("ParseType(%q) = %q, expected %q", name, got, name)
			}
		})
	}
}

func TestTypeNames(t *testing.T) {
	names := TypeNames()
	if len(names) != len(allTypes) {
		t.Fatalf("TypeNames() returned %d names, want %d", len(names), len(allTypes))
	}
	seen := make(map[string]bool)
	for i, name := range names {
		if seen[name] {
			t.Errorf("TypeNames() contains duplicate: %q", name)
		}
		seen[name] = true
		if i > 0 && names[i-1] > name {
			t.Errorf("TypeNames() not sorted: %q > %q", names[i-1], name)
		}
	}
}
