package crypto

import "testing"

func TestHashHex(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "empty input",
			input: []byte{},
			want:  "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b85",
		},
		{
			name:  "abc",
			input: []byte("abc"),
			want:  "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HashHex(tt.input); got != tt.want {
				t.Errorf("HashHex(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestHashHex_Deterministic(t *testing.T) {
	data := []byte("deterministic test input")
	if HashHex(data) != HashHex(data) {
		t.Error("HashHex is not deterministic")
	}
}

func TestHashHex_DifferentInputs(t *testing.T) {
	if HashHex([]byte("input A")) == HashHex([]byte("input B")) {
		t.Error("different inputs produced the same hash")
	}
}

func TestAddressFromPubKey(t *testing.T) {
	pub := []byte("not a real pubkey, just test bytes")

	addr := AddressFromPubKey(pub)
	if len(addr) != 42 { // 21 bytes hex-encoded
		t.Errorf("address length = %d, want 42", len(addr))
	}
	if addr[:2] != "4b" {
		t.Errorf("address prefix = %q, want 4b", addr[:2])
	}

	// Deterministic.
	if AddressFromPubKey(pub) != addr {
		t.Error("AddressFromPubKey is not deterministic")
	}

	// Different keys produce different addresses.
	other := AddressFromPubKey([]byte("a different pubkey"))
	if other == addr {
		t.Error("different public keys produced the same address")
	}
}
