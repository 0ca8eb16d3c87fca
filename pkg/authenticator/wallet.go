package authenticator

import (
	"errors"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var ErrMismatchedAddress = errors.New("mismatched address")

// VerifyWalletSignature checks that the personal_sign signature of the message was produced by
// the address.
func VerifyWalletSignature(message, hexSignature, address string) error {
	hash := accounts.TextHash([]byte(message))
	signature, err := hexutil.Decode(hexSignature)
	if err != nil {
		return err
	}

	if len(signature) != ethcrypto.SignatureLength {
		return errors.New("invalid signature length")
	}

	if signature[ethcrypto.RecoveryIDOffset] == 27 || signature[ethcrypto.RecoveryIDOffset] == 28 {
		signature[ethcrypto.RecoveryIDOffset] -= 27 // Transform yellow paper V from 27/28 to 0/1
	}

	recovered, err := ethcrypto.SigToPub(hash, signature)
	if err != nil {
		return err
	}

	if ethcrypto.PubkeyToAddress(*recovered) != common.HexToAddress(address) {
		return ErrMismatchedAddress
	}

	return nil
}
