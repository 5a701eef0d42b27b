package crypto

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := key.PubKey().Address()
	encoded := addr.String()
	if !strings.HasPrefix(encoded, StakePrefix+"1") {
		t.Fatalf("encoded address %q lacks the %s prefix", encoded, StakePrefix)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded.Bytes(), addr.Bytes()) {
		t.Fatalf("round trip changed the address: %x vs %x", decoded.Bytes(), addr.Bytes())
	}
}

func TestDecodeAddressRejectsForeignPrefix(t *testing.T) {
	if _, err := DecodeAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"); err == nil {
		t.Fatal("expected prefix rejection")
	}
}

func TestNewAddressRequiresTwentyBytes(t *testing.T) {
	if _, err := NewAddress(make([]byte, 19)); err == nil {
		t.Fatal("expected length error")
	}
}

func TestModuleAddressIsStableAndDistinct(t *testing.T) {
	a := ModuleAddress("staking")
	b := ModuleAddress("staking")
	if a != b {
		t.Fatal("module address must be deterministic")
	}
	if a == ModuleAddress("treasury") {
		t.Fatal("distinct module names must derive distinct addresses")
	}
	var zero [20]byte
	if a == zero {
		t.Fatal("module address must not be the zero address")
	}
}

func TestKeystoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admin.keystore")

	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	if err := SaveToKeystore(path, key, "hunter2"); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFromKeystore(path, "hunter2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(loaded.Bytes(), key.Bytes()) {
		t.Fatal("loaded key differs from the saved key")
	}

	if _, err := LoadFromKeystore(path, "wrong"); err == nil {
		t.Fatal("expected decryption failure with wrong passphrase")
	}
}
