// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wzj13456/shardeum/ledger"
)

// Error kinds. Match with errors.Is.
var (
	// ErrInvolvementDenied is raised when the oracle refuses an account or slot.
	ErrInvolvementDenied = errors.New("involvement denied")
	// ErrDataUnavailable is raised when strict reads miss in the local store.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrCorruptRecord is raised when stored bytes fail to decode.
	ErrCorruptRecord = errors.New("corrupt record")
)

// Error is the error caused by state access failure.
type Error struct {
	Kind error
	Addr ledger.Address
	Key  *ledger.Bytes32 // nil for account access

	cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "state: %v: %v", e.Kind, e.Addr)
	if e.Key != nil {
		fmt.Fprintf(&b, " key %v", *e.Key)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind error, addr ledger.Address, key *ledger.Bytes32, cause error) *Error {
	if key != nil {
		k := *key
		key = &k
	}
	return &Error{Kind: kind, Addr: addr, Key: key, cause: cause}
}
