package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"math/big"
)

func GenerateRandomString() (string, error) {
	b, err := GenerateRandomBytes(32)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	return b, nil
}

// GenerateRandom32Bytes returns a random value that fits into a bytes32 solidity type.
func GenerateRandom32Bytes() ([32]byte, error) {
	var out [32]byte
	b, err := GenerateRandomBytes(32)
	if err != nil {
		return out, err
	}

	copy(out[:], b)
	return out, nil
}

// RandUint256 returns a uniform random value in [0, 2^256).
func RandUint256() (*big.Int, error) {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return rand.Int(rand.Reader, max)
}

func HMAC(hashFunc func() hash.Hash, data []byte, secret []byte) string {
	h := hmac.New(hashFunc, secret)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RandIntn returns a uniform random value in [0, n). It panics if got a
// non-positive parameter.
func RandIntn(n int) int {
	r, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}

	return int(r.Int64())
}
