package game

import (
	"encoding/json"
	"fmt"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/action"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/resources"
	"github.com/hegemony-sim/hegemony-server-go/internal/game/rules"
)

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

var proposeBillSchema = action.MustSchema(fmt.Sprintf(`{
	"type": "object",
	"required": ["policy", "value"],
	"additionalProperties": false,
	"properties": {
		"policy": {"enum": %s},
		"value": {"type": "integer", "minimum": 0, "maximum": 2}
	}
}`, mustJSON(rules.PolicyNames())))

// BillInput is the input of proposeBill.
type BillInput struct {
	Policy string `json:"policy"`
	Value  int    `json:"value"`
}

func decodeBill(in action.Input) (rules.Policy, int, error) {
	var bill BillInput
	if err := in.Decode(&bill); err != nil {
		return 0, 0, err
	}
	policy, ok := rules.PolicyByName(bill.Policy)
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown policy %q", action.ErrValidationFailed, bill.Policy)
	}
	return policy, bill.Value, nil
}

func skipAction() *action.Action {
	return &action.Action{
		Run: func(*action.RunContext, action.Input) error { return nil },
	}
}

func proposeBillAction(g *Game, r Role) *action.Action {
	board := func() *Board { return g.state.Board }
	return &action.Action{
		Condition: func() action.Checks {
			return action.Checks{
				action.Require("maxProposals", board().ProposalsBy(r.Name()) < rules.MaxRoleProposals),
			}
		},
		InputSchema: proposeBillSchema,
		ValidateInput: func(in action.Input) action.Checks {
			policy, value, err := decodeBill(in)
			if err != nil {
				return action.Checks{action.Require("policy", false)}
			}
			_, taken := board().PolicyProposals[policy.String()]
			return action.Checks{
				action.Require("policyFree", !taken),
				action.Require("valueChanges", board().Policy(policy) != value),
			}
		},
		Run: func(_ *action.RunContext, in action.Input) error {
			policy, value, err := decodeBill(in)
			if err != nil {
				return err
			}
			board().PolicyProposals[policy.String()] = PolicyProposal{Role: r.Name(), Value: value}
			board().VotingCubeBag[r.Name()]++
			return nil
		},
	}
}

func payLoanAction(r Role) *action.Action {
	return &action.Action{
		Condition: func() action.Checks {
			return action.Checks{
				action.Require("hasLoan", r.Money().Loans() > 0),
				action.Require("canRepay", r.Money().Value() >= resources.LoanSize),
			}
		},
		Run: func(*action.RunContext, action.Input) error {
			if err := r.Pay(resources.LoanSize, resources.RemoveOptions{}); err != nil {
				return err
			}
			_, err := r.Money().RemoveLoans(1)
			return err
		},
	}
}

// registerCommon installs the actions every role shares.
func registerCommon(g *Game, r Role) {
	set := r.Actions()
	set.Basic["proposeBill"] = proposeBillAction(g, r)
	set.Free[rules.FreeKey("payLoan")] = payLoanAction(r)
}
