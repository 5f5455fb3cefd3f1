package item

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Additional-Code/rentalhub/pkg/errorbank"
	"github.com/Additional-Code/rentalhub/pkg/retry"
)

// firstCode is handed out when no items exist yet.
const firstCode = "001"

// CodeStore is the slice of item storage code assignment reads from.
type CodeStore interface {
	ListAllCodes(ctx context.Context) ([]string, error)
}

// CodeAssigner derives the next sequential item code from the stored ones.
// It scans every item, active and inactive, so a retired item's code is
// never handed out again. Two concurrent calls can propose the same code;
// the unique index on itemcode catches that at insert time and the create
// path re-runs the assignment.
type CodeAssigner struct {
	store      CodeStore
	readPolicy retry.Policy
}

// NewCodeAssigner builds a CodeAssigner over the item store.
func NewCodeAssigner(store CodeStore, readPolicy retry.Policy) *CodeAssigner {
	return &CodeAssigner{store: store, readPolicy: readPolicy}
}

// NextCode returns max(stored codes)+1, left-padded with zeros to at least
// three digits; the item after "999" gets "1000". A stored code that does
// not parse as a base-10 integer fails the whole operation with a malformed
// error so the caller can decide repair policy.
func (a *CodeAssigner) NextCode(ctx context.Context) (string, error) {
	itemCodes, err := retry.Do(ctx, a.readPolicy, func(ctx context.Context) ([]string, error) {
		return a.store.ListAllCodes(ctx)
	})
	if err != nil {
		return "", err
	}
	if len(itemCodes) == 0 {
		return firstCode, nil
	}

	highest := 0
	for _, code := range itemCodes {
		n, err := strconv.Atoi(code)
		if err != nil {
			return "", errorbank.Malformed("stored item code is not numeric",
				errorbank.WithCause(err),
				errorbank.WithDetail("code", code),
			)
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%03d", highest+1), nil
}
