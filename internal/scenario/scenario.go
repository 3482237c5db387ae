package scenario

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Scenario is one declarative auction run.
type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Auction     AuctionDef   `yaml:"auction"`
	Accounts    []AccountDef `yaml:"accounts"`
	Assets      []AssetDef   `yaml:"assets"`
	Steps       []Step       `yaml:"steps"`
	Assertions  *Assertions  `yaml:"assertions"`
}

// AuctionDef holds the auction parameters. The bidding window is expressed
// as second offsets from the scenario epoch.
type AuctionDef struct {
	ID           string `yaml:"id"`
	Seller       string `yaml:"seller"`
	Asset        string `yaml:"asset"`
	ReservePrice int64  `yaml:"reserve_price"`
	BidIncrement int64  `yaml:"bid_increment"`
	StartOffset  int64  `yaml:"start_offset"`
	EndOffset    int64  `yaml:"end_offset"`
}

// AccountDef seeds a ledger account with an opening balance.
type AccountDef struct {
	Account string `yaml:"account"`
	Balance int64  `yaml:"balance"`
}

// AssetDef seeds an asset with its initial owner.
type AssetDef struct {
	Asset string `yaml:"asset"`
	Owner string `yaml:"owner"`
}

// Step operations.
const (
	OpBid      = "bid"
	OpFinalize = "finalize"
)

// Step is one timed operation against the auction.
type Step struct {
	At          int64  `yaml:"at"`
	Op          string `yaml:"op"`
	Actor       string `yaml:"actor"`
	Amount      int64  `yaml:"amount"`
	FundsSource string `yaml:"funds_source"`
	Expect      Expect `yaml:"expect"`
}

// Expect declares the outcome of a step: success, or rejection with a
// specific error code. The schema guarantees exactly one form is set.
type Expect struct {
	OK    bool   `yaml:"ok"`
	Error string `yaml:"error"`
}

// Assertions are checked against the final state after all steps ran.
type Assertions struct {
	Balances   map[string]int64 `yaml:"balances"`
	AssetOwner string           `yaml:"asset_owner"`
	Record     *RecordExpect    `yaml:"record"`
}

// RecordExpect asserts fields of the final auction record. Nil fields are
// not checked; an empty HighestBidder string asserts no bidder.
type RecordExpect struct {
	Settled        *bool   `yaml:"settled"`
	HighestBid     *int64  `yaml:"highest_bid"`
	HighestBidder  *string `yaml:"highest_bidder"`
	EscrowedAmount *int64  `yaml:"escrowed_amount"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse validates YAML bytes against the schema and decodes them.
func Parse(data []byte) (*Scenario, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}
	if err := checkSteps(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// validate unifies the document with the #Scenario definition. Definitions
// are closed, so misspelled fields fail here rather than decoding to zero.
func validate(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("resolving schema definition: %w", err)
	}

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encoding scenario: %w", err)
	}
	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}
	return nil
}

// checkSteps enforces the constraints the schema cannot express per op.
func checkSteps(sc *Scenario) error {
	var prev int64 = -1
	for i, st := range sc.Steps {
		if st.At < prev {
			return fmt.Errorf("step %d: at %d precedes step %d at %d", i, st.At, i-1, prev)
		}
		prev = st.At
		switch st.Op {
		case OpBid:
			if st.Amount <= 0 {
				return fmt.Errorf("step %d: bid requires a positive amount", i)
			}
		case OpFinalize:
			if st.Amount != 0 || st.FundsSource != "" {
				return fmt.Errorf("step %d: finalize takes no amount or funds_source", i)
			}
		}
	}
	return nil
}
