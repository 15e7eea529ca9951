package edgecases

import "testing"

func TestParseKinds(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"special-chars,long-names", 2, false},
		{"special-chars, long-names ,missing-tags,old-dates,varied-ids,nested-names", 6, false},
		{"all", len(AllKinds()), false},
		{"invalid-kind", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKinds(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKinds(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("ParseKinds(%q) returned %d kinds, want %d", tt.input, len(got), tt.want)
			}
		})
	}

	kinds, _ := ParseKinds("special-chars,long-names")
	if kinds[0] != SpecialChars || kinds[1] != LongNames {
		t.Errorf("ParseKinds kept wrong order: %v", kinds)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{Percentage: 50, Kinds: []Kind{SpecialChars}}, false},
		{"zero percent", Config{Percentage: 0, Kinds: []Kind{SpecialChars}}, false},
		{"negative percent", Config{Percentage: -1, Kinds: []Kind{SpecialChars}}, true},
		{"over 100 percent", Config{Percentage: 101, Kinds: []Kind{SpecialChars}}, true},
		{"empty kinds with percent", Config{Percentage: 50, Kinds: []Kind{}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsEnabled(t *testing.T) {
	if (&Config{Percentage: 0}).IsEnabled() {
		t.Error("0% should not be enabled")
	}
	if (&Config{Percentage: 50, Kinds: []Kind{}}).IsEnabled() {
		t.Error("empty kinds should not be enabled")
	}
	c := Config{Percentage: 50, Kinds: []Kind{SpecialChars}}
	if !c.IsEnabled() {
		t.Error("50% with kinds should be enabled")
	}
	if !c.Has(SpecialChars) || c.Has(NestedNames) {
		t.Errorf("Has() mismatch for %v", c.Kinds)
	}
}
