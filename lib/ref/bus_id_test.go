// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseBusID(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		// Valid.
		{"agent-7", false},
		{"prod.fleet.trading", false},
		{"a", false},
		{"0", false},
		{"bus_01", false},
		{strings.Repeat("x", 128), false},
		// Invalid: empty.
		{"", true},
		// Invalid: too long.
		{strings.Repeat("x", 129), true},
		// Invalid: bad first character.
		{".hidden", true},
		{"-flag", true},
		{"_bus", true},
		// Invalid: disallowed characters.
		{"Agent", true},
		{"bus/7", true},
		{"bus 7", true},
		{"bus:7", true},
		{"bus\x00", true},
	}

	for _, test := range tests {
		_, err := ParseBusID(test.input)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseBusID(%q): err=%v, wantErr=%v", test.input, err, test.wantErr)
		}
	}
}

func TestBusIDRoundTrip(t *testing.T) {
	original := MustParseBusID("agent-7")

	if original.String() != "agent-7" {
		t.Errorf("String() = %q, want %q", original.String(), "agent-7")
	}
	if original.IsZero() {
		t.Error("IsZero() = true for valid BusID")
	}

	// JSON round-trip.
	type wrapper struct {
		Bus BusID `json:"bus"`
	}
	data, err := json.Marshal(wrapper{Bus: original})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"bus":"agent-7"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var decoded wrapper
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Bus != original {
		t.Errorf("round-trip: got %q, want %q", decoded.Bus, original)
	}
}

func TestBusIDUnmarshalRejectsInvalid(t *testing.T) {
	type wrapper struct {
		Bus BusID `json:"bus"`
	}
	var decoded wrapper
	if err := json.Unmarshal([]byte(`{"bus":"NOT VALID"}`), &decoded); err == nil {
		t.Error("Unmarshal of invalid bus ID should fail")
	}
}

func TestBusIDZeroValue(t *testing.T) {
	var zero BusID
	if !zero.IsZero() {
		t.Error("zero value should be IsZero()")
	}
	if zero.String() != "" {
		t.Errorf("zero String() = %q, want empty", zero.String())
	}
	if _, err := zero.MarshalText(); err == nil {
		t.Error("MarshalText of zero value should fail")
	}
}

func TestBusIDJournalFile(t *testing.T) {
	bus := MustParseBusID("prod.fleet.trading")
	want := "prod.fleet.trading.journal"
	if got := bus.JournalFile(); got != want {
		t.Errorf("JournalFile() = %q, want %q", got, want)
	}
}

func TestParseJournalFile(t *testing.T) {
	bus, err := ParseJournalFile("agent-7.journal")
	if err != nil {
		t.Fatalf("ParseJournalFile failed: %v", err)
	}
	if bus.String() != "agent-7" {
		t.Errorf("ParseJournalFile() = %q, want %q", bus, "agent-7")
	}

	invalid := []string{
		"agent-7",          // no suffix
		".journal",         // empty stem
		"-agent.journal",   // invalid leading character
		"UPPER.journal",    // invalid character
		"agent-7.jrnl",     // wrong suffix
	}
	for _, name := range invalid {
		if _, err := ParseJournalFile(name); err == nil {
			t.Errorf("ParseJournalFile(%q) should fail", name)
		}
	}
}

func TestMustParseBusIDPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParseBusID should panic on invalid input")
		}
	}()
	MustParseBusID("")
}
