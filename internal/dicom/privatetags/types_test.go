package privatetags

import "testing"

func TestParseKinds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Kind
		wantErr bool
	}{
		{name: "empty", input: "", want: nil},
		{name: "single kind", input: "siemens-csa", want: []Kind{SiemensCSA}},
		{name: "multiple kinds", input: "siemens-csa,ge-private", want: []Kind{SiemensCSA, GEPrivate}},
		{name: "all", input: "all", want: AllKinds()},
		{name: "with whitespace", input: " siemens-csa , ge-private ", want: []Kind{SiemensCSA, GEPrivate}},
		{name: "duplicates collapse", input: "ge-private,ge-private", want: []Kind{GEPrivate}},
		{name: "invalid kind", input: "invalid-kind", wantErr: true},
		{
			name:  "every kind individually",
			input: "siemens-csa,ge-private,philips-private,malformed-lengths",
			want:  []Kind{SiemensCSA, GEPrivate, PhilipsPrivate, MalformedLengths},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKinds(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKinds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseKinds() got %d kinds, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseKinds()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestConfig_IsEnabled(t *testing.T) {
	if (&Config{}).IsEnabled() {
		t.Error("empty config should not be enabled")
	}
	c := Config{Kinds: []Kind{PhilipsPrivate}}
	if !c.IsEnabled() {
		t.Error("config with kinds should be enabled")
	}
	if !c.Has(PhilipsPrivate) || c.Has(SiemensCSA) {
		t.Errorf("Has() mismatch for %v", c.Kinds)
	}
}

func TestForManufacturer(t *testing.T) {
	tests := []struct {
		manufacturer string
		want         Kind
		ok           bool
	}{
		{"SIEMENS", SiemensCSA, true},
		{"Siemens Healthineers", SiemensCSA, true},
		{"GE MEDICAL SYSTEMS", GEPrivate, true},
		{"Philips Medical Systems", PhilipsPrivate, true},
		{"Canon", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.manufacturer, func(t *testing.T) {
			got, ok := ForManufacturer(tt.manufacturer)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ForManufacturer(%q) = %q, %v, want %q, %v", tt.manufacturer, got, ok, tt.want, tt.ok)
			}
		})
	}
}
