package protocol

import (
	"testing"
)

func TestHashName(t *testing.T) {
	// Standard MD5 test vectors; the fingerprint must be stable across hosts
	tests := []struct {
		input    string
		expected string
	}{
		{"", "d41d8cd98f00b204e9800998ecf8427e"},
		{"abc", "900150983cd24fb0d6963f7d28e17f72"},
		{"chirp", "80be224388ca185662472f28f16a73a5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := HashName(tt.input).String(); got != tt.expected {
				t.Errorf("HashName(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMD5HashCompare(t *testing.T) {
	a := MD5Hash{0x00, 0x01}
	b := MD5Hash{0x00, 0x02}

	if a.Compare(b) >= 0 {
		t.Errorf("Compare(%s, %s) = %d, want < 0", a, b, a.Compare(b))
	}
	if b.Compare(a) <= 0 {
		t.Errorf("Compare(%s, %s) = %d, want > 0", b, a, b.Compare(a))
	}
	if a.Compare(a) != 0 {
		t.Errorf("Compare(%s, %s) = %d, want 0", a, a, a.Compare(a))
	}
}

func TestMessageTypeString(t *testing.T) {
	tests := []struct {
		typ      MessageType
		expected string
	}{
		{TypeRequest, "REQUEST"},
		{TypeOffer, "OFFER"},
		{TypeLeaving, "LEAVING"},
		{MessageType(0x7f), "unknown(0x7f)"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.expected {
			t.Errorf("MessageType(%d).String() = %q, want %q", tt.typ, got, tt.expected)
		}
	}
}

func TestServiceIdentifierString(t *testing.T) {
	tests := []struct {
		id       ServiceIdentifier
		expected string
	}{
		{ServiceControl, "CONTROL"},
		{ServiceHeartbeat, "HEARTBEAT"},
		{ServiceMonitoring, "MONITORING"},
		{ServiceData, "DATA"},
		{ServiceIdentifier(0xfe), "unknown(0xfe)"},
	}

	for _, tt := range tests {
		if got := tt.id.String(); got != tt.expected {
			t.Errorf("ServiceIdentifier(%d).String() = %q, want %q", tt.id, got, tt.expected)
		}
	}
}
