package testutil

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is a throwaway signing identity.
type Account struct {
	Key     *ecdsa.PrivateKey
	Address common.Address
}

func NewAccount() (*Account, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &Account{
		Key:     key,
		Address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

func MustNewAccount() *Account {
	acc, err := NewAccount()
	if err != nil {
		panic(err)
	}
	return acc
}
