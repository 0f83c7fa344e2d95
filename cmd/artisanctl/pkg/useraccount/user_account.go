package useraccount

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/chennaiartisanal/provenance/market/config"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/term"
)

const PasswordEnv = "WALLET_PASSWORD"

// DefaultKeystoreDir returns the key directory under the user's config home.
func DefaultKeystoreDir() string {
	return filepath.Join(xdg.ConfigHome, config.AppName, "keystore")
}

func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create keystore dir %s: %w", dir, err)
	}
	return nil
}

// Open returns the keystore kept in dir, creating the directory if needed.
func Open(dir string) (*keystore.KeyStore, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	return keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP), nil
}

// Password asks for the passphrase of an existing account.
func Password(acc accounts.Account) (string, error) {
	return readPassword(fmt.Sprintf("Enter password for %s: ", acc.Address.Hex()), false)
}

// NewPassword asks for the passphrase of a new account, confirming it when
// read from a terminal.
func NewPassword() (string, error) {
	return readPassword("Enter wallet password: ", true)
}

// readPassword first checks WALLET_PASSWORD, then reads a password
// interactively if in a terminal, or from stdin if piped
func readPassword(prompt string, confirm bool) (string, error) {
	password, ok := os.LookupEnv(PasswordEnv)
	if ok {
		return password, nil
	}

	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Fprint(os.Stderr, prompt)
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		password := strings.TrimSpace(string(bytePassword))
		if !confirm {
			return password, nil
		}

		fmt.Fprint(os.Stderr, "Confirm password: ")
		byteConfirm, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		if password != strings.TrimSpace(string(byteConfirm)) {
			return "", fmt.Errorf("passwords did not match")
		}
		return password, nil
	}

	// Otherwise, read from stdin (e.g., piped input)
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(password), nil
}

// Select returns the account addressed by hex, or the first one when hex is
// empty.
func Select(ks *keystore.KeyStore, hex string) (accounts.Account, error) {
	accs := ks.Accounts()
	if len(accs) == 0 {
		return accounts.Account{}, fmt.Errorf("no accounts found, create one with 'account create'")
	}
	if hex == "" {
		return accs[0], nil
	}
	if !common.IsHexAddress(hex) {
		return accounts.Account{}, fmt.Errorf("invalid account address %q", hex)
	}
	addr := common.HexToAddress(hex)
	for _, acc := range accs {
		if acc.Address == addr {
			return acc, nil
		}
	}
	return accounts.Account{}, fmt.Errorf("account %s not found in keystore", addr.Hex())
}
