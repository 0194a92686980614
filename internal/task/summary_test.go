package task

import "testing"

func TestParseSummary(t *testing.T) {
	tests := []struct {
		summary   string
		wantZone  string
		wantTitle string
	}{
		{"[Kitchen] Descale kettle", "Kitchen", "Descale kettle"},
		{"[ Garage ]   Sweep floor ", "Garage", "Sweep floor"},
		{"Water plants", DefaultZone, "Water plants"},
		{"[] Dust shelves", DefaultZone, "Dust shelves"},
		{"[Attic]", "Attic", "[Attic]"},
		{"[Unclosed bracket", DefaultZone, "[Unclosed bracket"},
	}

	for _, tt := range tests {
		t.Run(tt.summary, func(t *testing.T) {
			zone, title := ParseSummary(tt.summary, DefaultZone)
			if zone != tt.wantZone || title != tt.wantTitle {
				t.Errorf("ParseSummary(%q) = (%q, %q), want (%q, %q)",
					tt.summary, zone, title, tt.wantZone, tt.wantTitle)
			}
		})
	}
}

func TestDeriveID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Descale kettle", "descale_kettle"},
		{"Re-seal grout", "re_seal_grout"},
		{"  HVAC filter (2x) ", "hvac_filter_2x"},
		{"Café", "caf"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := DeriveID(tt.in)
			if got != tt.want {
				t.Errorf("DeriveID(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if got != "" && !IsValidID(got) {
				t.Errorf("DeriveID(%q) = %q is not a valid id", tt.in, got)
			}
		})
	}
}

func TestIsValidID(t *testing.T) {
	valid := []string{"a", "mop_floor", "filter_2"}
	invalid := []string{"", "Mop", "mop floor", "mop-floor", "mop.floor"}

	for _, id := range valid {
		if !IsValidID(id) {
			t.Errorf("IsValidID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if IsValidID(id) {
			t.Errorf("IsValidID(%q) = true, want false", id)
		}
	}
}
