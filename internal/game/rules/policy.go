package rules

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrMalformedPolicy is returned for unparseable policy strings or operators.
	ErrMalformedPolicy = errors.New("malformed policy check")
	// ErrPolicyValue is returned for policy positions outside A-C.
	ErrPolicyValue = errors.New("policy value out of range")
)

// Policy is one of the seven board policies.
type Policy int

const (
	PolicyFiscal Policy = iota + 1
	PolicyLaborMarket
	PolicyTaxation
	PolicyHealthcare
	PolicyEducation
	PolicyForeignTrade
	PolicyImmigration
)

var policyNames = map[Policy]string{
	PolicyFiscal:       "fiscalPolicy",
	PolicyLaborMarket:  "laborMarket",
	PolicyTaxation:     "taxation",
	PolicyHealthcare:   "healthcare",
	PolicyEducation:    "education",
	PolicyForeignTrade: "foreignTrade",
	PolicyImmigration:  "immigration",
}

// Policies lists all policies in board order.
var Policies = []Policy{
	PolicyFiscal,
	PolicyLaborMarket,
	PolicyTaxation,
	PolicyHealthcare,
	PolicyEducation,
	PolicyForeignTrade,
	PolicyImmigration,
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("POLICY_%d", int(p))
}

// PolicyByName resolves a policy from its board name.
func PolicyByName(name string) (Policy, bool) {
	for p, n := range policyNames {
		if n == name {
			return p, true
		}
	}
	return 0, false
}

// Policy positions.
const (
	PolicyA = 0
	PolicyB = 1
	PolicyC = 2
)

// CheckPolicyValue rejects positions other than A, B and C.
func CheckPolicyValue(value int) error {
	if value < PolicyA || value > PolicyC {
		return fmt.Errorf("%w: %d", ErrPolicyValue, value)
	}
	return nil
}

// PolicyNames returns the board names of all policies in board order.
func PolicyNames() []string {
	names := make([]string, len(Policies))
	for i, p := range Policies {
		names[i] = p.String()
	}
	return names
}

// ParsePolicyString parses the compact "<1-7><A|B|C>" notation, e.g. "6A".
func ParsePolicyString(s string) (Policy, int, error) {
	if len(s) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedPolicy, s)
	}
	idx, err := strconv.Atoi(s[:1])
	if err != nil || idx < 1 || idx > len(Policies) {
		return 0, 0, fmt.Errorf("%w: %q has no policy index 1-7", ErrMalformedPolicy, s)
	}
	var value int
	switch s[1] {
	case 'A':
		value = PolicyA
	case 'B':
		value = PolicyB
	case 'C':
		value = PolicyC
	default:
		return 0, 0, fmt.Errorf("%w: %q has no value A-C", ErrMalformedPolicy, s)
	}
	return Policy(idx), value, nil
}

// ComparePolicy evaluates current <op> want for op in "==", "<=", ">=".
func ComparePolicy(current int, op string, want int) (bool, error) {
	switch op {
	case "==":
		return current == want, nil
	case "<=":
		return current <= want, nil
	case ">=":
		return current >= want, nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", ErrMalformedPolicy, op)
	}
}
