package authenticator_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/questx-lab/raffle/config"
	"github.com/questx-lab/raffle/pkg/authenticator"
	"github.com/stretchr/testify/require"
)

func TestJWT(t *testing.T) {
	engine := authenticator.NewTokenEngine[string]("secret", config.TokenConfigs{Expiration: time.Minute})
	token, err := engine.Generate("sub", "abc")
	require.NoError(t, err)

	msg, err := engine.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "abc", msg)

	other := authenticator.NewTokenEngine[string]("other", config.TokenConfigs{Expiration: time.Minute})
	_, err = other.Verify(token)
	require.Error(t, err)
}

func TestJWTExpiration(t *testing.T) {
	engine := authenticator.NewTokenEngine[string]("secret", config.TokenConfigs{Expiration: -time.Minute})
	token, err := engine.Generate("sub", "abc")
	require.NoError(t, err)

	_, err = engine.Verify(token)
	require.Error(t, err)
}

func TestVerifyWalletSignature(t *testing.T) {
	key, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	address := ethcrypto.PubkeyToAddress(key.PublicKey).Hex()

	sig, err := ethcrypto.Sign(accounts.TextHash([]byte("nonce")), key)
	require.NoError(t, err)
	sig[ethcrypto.RecoveryIDOffset] += 27

	require.NoError(t, authenticator.VerifyWalletSignature("nonce", hexutil.Encode(sig), address))
	require.ErrorIs(t,
		authenticator.VerifyWalletSignature("other", hexutil.Encode(sig), address),
		authenticator.ErrMismatchedAddress,
	)
}
