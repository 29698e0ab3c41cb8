// Package plan turns typed instructions into ordered contract-call
// sequences. A plan is data: building one performs no chain writes.
package plan

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Call is one contract invocation. Data is the packed calldata the
// executor submits; Method and Args are the human-readable echo of the
// same call for rendering and journaling.
type Call struct {
	Target common.Address
	Method string
	Args   []string
	Data   []byte
	Value  *big.Int
}

// Plan is an ordered call sequence. Every call that carries a deadline
// shares Deadline, computed once when the plan was built. Any transfer
// needing spender allowance is preceded by its approve call; the
// economic action is always last.
type Plan struct {
	Calls    []Call
	Deadline *big.Int
}
