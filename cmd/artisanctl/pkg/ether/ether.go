// Package ether converts between wei and decimal ether amounts.
package ether

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const decimals = 18

// ToWei parses an ether amount such as "0.25".
func ToWei(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid ether amount %q: %w", amount, err)
	}
	if !d.IsPositive() {
		return nil, fmt.Errorf("ether amount must be positive, got %s", amount)
	}
	wei := d.Shift(decimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("ether amount %s is finer than one wei", amount)
	}
	return wei.BigInt(), nil
}

// FromWei renders wei as ether without trailing zeros.
func FromWei(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -decimals).String()
}
