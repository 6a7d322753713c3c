package models

import (
	"errors"
	"testing"
	"time"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func TestParseCultureStartDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "plain date",
			input: "2024-03-01",
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, ist),
		},
		{
			name:  "local date-time",
			input: "2024-03-01T06:30:00",
			want:  time.Date(2024, 3, 1, 6, 30, 0, 0, ist),
		},
		{
			name:  "RFC3339 with offset",
			input: "2024-03-01T06:30:00+05:30",
			want:  time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC),
		},
		{
			name:  "RFC3339 in UTC ignores the default zone",
			input: "2024-03-01T06:30:00Z",
			want:  time.Date(2024, 3, 1, 6, 30, 0, 0, time.UTC),
		},
		{
			name:  "surrounding whitespace",
			input: " 2024-03-01 ",
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, ist),
		},
		{
			name:    "day first",
			input:   "01/03/2024",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCultureStartDateIn(tt.input, ist)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCultureStartDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("error type = %T, want *ValidationError", err)
				}
				if vErr.Field != "culture_start_date" {
					t.Errorf("Field = %q, want culture_start_date", vErr.Field)
				}
				if len(vErr.Problems) != 1 {
					t.Errorf("len(Problems) = %d, want 1", len(vErr.Problems))
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseCultureStartDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCultureStartDate_LocalZone(t *testing.T) {
	saved := time.Local
	time.Local = ist
	t.Cleanup(func() { time.Local = saved })

	// just after local midnight the date is already "today" in IST
	now := time.Date(2026, 10, 18, 2, 0, 0, 0, ist)

	got, err := ParseCultureStartDate("2026-10-18")
	if err != nil {
		t.Fatalf("ParseCultureStartDate() error = %v", err)
	}
	if got.After(now) {
		t.Errorf("start %v is after now %v", got, now)
	}
	if want := time.Date(2026, 10, 17, 18, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ParseCultureStartDate() = %v, want %v", got.UTC(), want)
	}
}

func TestEnumValidity(t *testing.T) {
	for _, c := range AllWaterColors() {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}
	if WaterColor("Blue").Valid() {
		t.Error("Blue should not be a valid water color")
	}
	if WaterColor("clear").Valid() {
		t.Error("water colors are case sensitive")
	}

	for _, b := range AllShrimpBehaviors() {
		if !b.Valid() {
			t.Errorf("%q should be valid", b)
		}
	}
	if ShrimpBehavior("Sleeping").Valid() {
		t.Error("Sleeping should not be a valid behavior")
	}
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := NewValidationError([]string{"ph must be between 6 and 9", "Culture start date cannot be in the future"})

	if err.Error() != "ph must be between 6 and 9; Culture start date cannot be in the future" {
		t.Errorf("Error() = %v", err.Error())
	}

	if len(err.Problems) != 2 {
		t.Errorf("len(Problems) = %d, want 2", len(err.Problems))
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}
