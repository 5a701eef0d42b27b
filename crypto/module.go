package crypto

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

// ModuleAddress derives a deterministic custody address for a named module
// account. Module accounts hold balances but have no corresponding private
// key, so funds parked there can only move through engine transitions.
func ModuleAddress(name string) [20]byte {
	sum := ethcrypto.Keccak256([]byte("stakevault/module/" + name))
	var addr [20]byte
	copy(addr[:], sum[12:])
	return addr
}
