package ethutil

import (
	"encoding/hex"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestGeneratePrivateKey(t *testing.T) {
	key1, err := GeneratePrivateKey([]byte("secret"), []byte("a"))
	require.NoError(t, err)

	key2, err := GeneratePrivateKey([]byte("secret"), []byte("a"))
	require.NoError(t, err)
	require.Equal(t, key1.D, key2.D)

	key3, err := GeneratePrivateKey([]byte("secret"), []byte("b"))
	require.NoError(t, err)
	require.NotEqual(t, key1.D, key3.D)

	address, err := GeneratePublicKey([]byte("secret"), []byte("a"))
	require.NoError(t, err)
	require.Equal(t, ethcrypto.PubkeyToAddress(key1.PublicKey), address)
}

func TestLoadPrivateKey(t *testing.T) {
	key, err := GeneratePrivateKey([]byte("secret"), nil)
	require.NoError(t, err)

	hexKey := "0x" + hex.EncodeToString(ethcrypto.FromECDSA(key))
	loaded, err := LoadPrivateKey(hexKey)
	require.NoError(t, err)
	require.Equal(t, key.D, loaded.D)

	_, err = LoadPrivateKey("not-a-key")
	require.Error(t, err)
}

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{
			name:    "lowercase",
			address: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			want:    "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		},
		{
			name:    "checksummed",
			address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			want:    "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		},
		{
			name:    "invalid",
			address: "alice",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeAddress(tt.address))
		})
	}
}
