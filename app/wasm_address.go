package app

import (
	"encoding/binary"

	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkaddress "github.com/cosmos/cosmos-sdk/types/address"

	"github.com/cosmos/multitest/store"
)

const addressModuleName = "wasm"

// contractAddress derives an instance address from the running instance
// counter.
func contractAddress(instanceID uint64) string {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], instanceID)
	return sdk.AccAddress(sdkaddress.Module(addressModuleName, key[:])).String()
}

// predictableContractAddress is a pure function of code checksum, creator
// and salt. Instantiating twice with the same triple yields the same
// address, which the duplicate check then rejects.
func predictableContractAddress(checksum []byte, creator string, salt []byte) string {
	key := store.Namespace(checksum, []byte(creator), salt)
	return sdk.AccAddress(sdkaddress.Hash(addressModuleName, key)).String()
}
