package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestAssembleLayout(t *testing.T) {
	msg := Message{
		Type:      TypeOffer,
		GroupHash: HashName("edda"),
		NameHash:  HashName("gro"),
		ServiceID: ServiceControl,
		Port:      0x1234,
	}

	wire := Assemble(msg)

	if len(wire) != MessageSize {
		t.Fatalf("assembled length = %d, want %d", len(wire), MessageSize)
	}

	wantMagic := []byte{0x43, 0x48, 0x49, 0x52, 0x50, 0x01}
	if !bytes.Equal(wire[:6], wantMagic) {
		t.Errorf("magic = % x, want % x", wire[:6], wantMagic)
	}
	if wire[6] != byte(TypeOffer) {
		t.Errorf("type byte = 0x%02x, want 0x%02x", wire[6], byte(TypeOffer))
	}

	group := HashName("edda")
	if !bytes.Equal(wire[7:23], group[:]) {
		t.Errorf("group hash = % x, want % x", wire[7:23], group[:])
	}
	name := HashName("gro")
	if !bytes.Equal(wire[23:39], name[:]) {
		t.Errorf("name hash = % x, want % x", wire[23:39], name[:])
	}

	if wire[39] != byte(ServiceControl) {
		t.Errorf("service byte = 0x%02x, want 0x%02x", wire[39], byte(ServiceControl))
	}

	// Port must be network byte order
	if wire[40] != 0x12 || wire[41] != 0x34 {
		t.Errorf("port bytes = [0x%02x 0x%02x], want [0x12 0x34]", wire[40], wire[41])
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
	}{
		{
			name: "offer",
			msg: Message{
				Type:      TypeOffer,
				GroupHash: HashName("group"),
				NameHash:  HashName("node"),
				ServiceID: ServiceData,
				Port:      5555,
			},
		},
		{
			name: "request with zero port",
			msg: Message{
				Type:      TypeRequest,
				GroupHash: HashName("group"),
				NameHash:  HashName("node"),
				ServiceID: ServiceControl,
				Port:      0,
			},
		},
		{
			name: "request with nonzero port is accepted",
			msg: Message{
				Type:      TypeRequest,
				GroupHash: HashName("group"),
				NameHash:  HashName("node"),
				ServiceID: ServiceHeartbeat,
				Port:      41234,
			},
		},
		{
			name: "leaving with max port",
			msg: Message{
				Type:      TypeLeaving,
				GroupHash: HashName(""),
				NameHash:  HashName("x"),
				ServiceID: ServiceMonitoring,
				Port:      0xffff,
			},
		},
		{
			name: "service id outside roster passes through opaquely",
			msg: Message{
				Type:      TypeOffer,
				GroupHash: HashName("g"),
				NameHash:  HashName("n"),
				ServiceID: ServiceIdentifier(0xfe),
				Port:      1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire := Assemble(tt.msg)
			got, err := Parse(wire[:])
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got != tt.msg {
				t.Errorf("Parse(Assemble(m)) = %+v, want %+v", got, tt.msg)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	valid := Assemble(Message{
		Type:      TypeOffer,
		GroupHash: HashName("g"),
		NameHash:  HashName("n"),
		ServiceID: ServiceData,
		Port:      1234,
	})

	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty",
			data: nil,
		},
		{
			name: "too short",
			data: valid[:41],
		},
		{
			name: "too long",
			data: append(append([]byte{}, valid[:]...), 0x00),
		},
		{
			name: "bad magic",
			data: func() []byte {
				d := append([]byte{}, valid[:]...)
				d[0] = 'X'
				return d
			}(),
		},
		{
			name: "unsupported version",
			data: func() []byte {
				d := append([]byte{}, valid[:]...)
				d[5] = 0x02
				return d
			}(),
		},
		{
			name: "message type zero",
			data: func() []byte {
				d := append([]byte{}, valid[:]...)
				d[6] = 0x00
				return d
			}(),
		},
		{
			name: "message type out of range",
			data: func() []byte {
				d := append([]byte{}, valid[:]...)
				d[6] = 0x04
				return d
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if err == nil {
				t.Fatal("Parse() error = nil, want *DecodeError")
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("Parse() error = %v (%T), want *DecodeError", err, err)
			}
		})
	}
}

func TestParseRejectsForeignPayload(t *testing.T) {
	// Non-CHIRP traffic on the port must fail decoding, not panic
	junk := [][]byte{
		[]byte("DISCOVER"),
		bytes.Repeat([]byte{0xff}, MessageSize),
		bytes.Repeat([]byte{0x00}, 1024),
	}
	for _, data := range junk {
		if _, err := Parse(data); err == nil {
			t.Errorf("Parse(% x...) succeeded on junk input", data[:min(8, len(data))])
		}
	}
}
