package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chennaiartisanal/provenance/market/failure"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
)

var revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

var (
	unauthorizedErrors = map[string]bool{
		"OwnableUnauthorizedAccount": true,
		"ERC721InsufficientApproval": true,
		"ERC721IncorrectOwner":       true,
	}
	notFoundErrors = map[string]bool{
		"ERC721NonexistentToken": true,
	}

	unauthorizedPhrases = []string{
		"only verified",
		"only owner",
		"only token owner",
		"not the owner",
		"not owner",
		"not token owner",
		"not authorized",
		"unauthorized",
		"caller is not",
	}
	notFoundPhrases = []string{
		"not registered",
		"nonexistent",
		"does not exist",
		"invalid token",
		"not found",
	}
)

// revertData extracts the revert payload carried by a JSON-RPC error.
func revertData(err error) []byte {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return nil
	}
	switch d := de.ErrorData().(type) {
	case string:
		b, err := hexutil.Decode(d)
		if err != nil {
			return nil
		}
		return b
	case []byte:
		return d
	case hexutil.Bytes:
		return d
	}
	return nil
}

// revertReason decodes a revert into a readable reason and, for custom
// errors declared in the ABI, the error name.
func revertReason(parsed abi.ABI, err error) (reason, custom string) {
	data := revertData(err)
	if len(data) >= 4 {
		if bytes.Equal(data[:4], revertSelector) {
			if r, uerr := abi.UnpackRevert(data); uerr == nil {
				return r, ""
			}
		}
		for name, e := range parsed.Errors {
			if !bytes.Equal(e.ID[:4], data[:4]) {
				continue
			}
			if args, uerr := e.Unpack(data); uerr == nil {
				return fmt.Sprintf("%s%v", name, args), name
			}
			return name, name
		}
	}

	msg := err.Error()
	if _, after, ok := strings.Cut(msg, "execution reverted: "); ok {
		return after, ""
	}
	return "", ""
}

func classify(reason, custom string) error {
	if unauthorizedErrors[custom] {
		return failure.ErrUnauthorized
	}
	if notFoundErrors[custom] {
		return failure.ErrNotFound
	}
	lower := strings.ToLower(reason)
	for _, p := range unauthorizedPhrases {
		if strings.Contains(lower, p) {
			return failure.ErrUnauthorized
		}
	}
	for _, p := range notFoundPhrases {
		if strings.Contains(lower, p) {
			return failure.ErrNotFound
		}
	}
	return failure.ErrLedger
}

// translate maps a contract call error onto the failure taxonomy, keeping the
// revert reason as the message and the original error as the cause.
func translate(op string, parsed abi.ABI, err error) error {
	if err == nil {
		return nil
	}
	if failure.KindOf(err) != nil {
		return err
	}
	if errors.Is(err, bind.ErrNoCode) {
		return failure.Wrap(failure.ErrLedger, op, err, "no contract deployed at the configured address")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return failure.Wrap(failure.ErrLedger, op, err, "request interrupted")
	}

	reason, custom := revertReason(parsed, err)
	if reason == "" {
		return failure.Wrap(failure.ErrLedger, op, err, "")
	}
	return failure.Wrap(classify(reason, custom), op, err, reason)
}
