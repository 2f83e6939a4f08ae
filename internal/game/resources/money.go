package resources

import (
	"encoding/json"
	"errors"
	"fmt"
)

// LoanSize is the amount of money a single loan unit provides.
const LoanSize = 50

// ErrInsufficientFunds is returned when a payment cannot be covered and loans
// are not allowed.
var ErrInsufficientFunds = errors.New("insufficient funds")

// RemoveOptions controls how a payment is taken from a money resource.
type RemoveOptions struct {
	// CanTakeLoans converts any shortfall into whole loan units.
	CanTakeLoans bool
	// UseCapital pays from the capital bucket first (capitalist money only).
	UseCapital bool
}

// AddOptions controls how income is credited to a money resource.
type AddOptions struct {
	// UseCapital credits the capital bucket instead of revenue (capitalist money only).
	UseCapital bool
}

// Account is a money resource a role pays from and earns into. Both Money
// and CapitalistMoney implement it, so callers never reach past the
// capitalist's buckets.
type Account interface {
	Name() string
	Value() int
	Set(value int) (int, error)
	Deposit(amount int, opts AddOptions) (int, error)
	Remove(amount int, opts RemoveOptions) (int, error)
	Loans() int
	AddLoans(count int) int
	RemoveLoans(count int) (int, error)
}

var (
	_ Account = (*Money)(nil)
	_ Account = (*CapitalistMoney)(nil)
)

// loanUnits returns the minimum number of loans needed to cover shortfall.
func loanUnits(shortfall int) int {
	if shortfall <= 0 {
		return 0
	}
	return (shortfall + LoanSize - 1) / LoanSize
}

// Money is a resource manager with loan bookkeeping.
type Money struct {
	*Manager
	loans int
}

// NewMoney creates a money resource with a lower bound of zero.
func NewMoney(name string, value int) *Money {
	return &Money{Manager: New(name, WithValue(value))}
}

// Loans returns the number of outstanding loans.
func (m *Money) Loans() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loans
}

// AddLoans records count additional loans without touching the balance.
func (m *Money) AddLoans(count int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if count > 0 {
		m.loans += count
	}
	return m.loans
}

// RemoveLoans clears count loans without touching the balance.
func (m *Money) RemoveLoans(count int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if count > m.loans {
		return m.loans, fmt.Errorf("%s: cannot remove %d loans, only %d outstanding", m.name, count, m.loans)
	}
	if count > 0 {
		m.loans -= count
	}
	return m.loans, nil
}

// Deposit credits amount. Money has a single bucket, so opts is ignored.
func (m *Money) Deposit(amount int, _ AddOptions) (int, error) {
	return m.Add(amount)
}

// Remove pays amount. When the balance does not cover it and loans are allowed,
// the shortfall is covered by the minimum number of whole loans.
func (m *Money) Remove(amount int, opts RemoveOptions) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkAmount(m.name, amount); err != nil {
		return m.value, err
	}
	if m.value >= amount {
		return m.setLocked(m.value - amount)
	}
	if !opts.CanTakeLoans {
		return m.value, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, m.name, m.value, amount)
	}

	units := loanUnits(amount - m.value)
	m.loans += units
	m.value = m.value + units*LoanSize - amount
	return m.value, nil
}

// MarshalJSON renders balance and loans.
func (m *Money) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return json.Marshal(struct {
		Value int `json:"value"`
		Loans int `json:"loans"`
	}{m.value, m.loans})
}

// CapitalistMoney splits money into independent revenue and capital buckets.
// Value is always their sum.
type CapitalistMoney struct {
	*Money
	revenue int
	capital int
}

// NewCapitalistMoney creates split money with the given starting buckets.
func NewCapitalistMoney(name string, revenue, capital int) *CapitalistMoney {
	return &CapitalistMoney{
		Money:   NewMoney(name, revenue+capital),
		revenue: revenue,
		capital: capital,
	}
}

// Revenue returns the revenue bucket.
func (c *CapitalistMoney) Revenue() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revenue
}

// Capital returns the capital bucket.
func (c *CapitalistMoney) Capital() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capital
}

// Add credits amount to revenue, or to capital when opts.UseCapital is set.
func (c *CapitalistMoney) Add(amount int, opts AddOptions) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkAmount(c.name, amount); err != nil {
		return c.value, err
	}
	chosen, _ := c.buckets(opts.UseCapital)
	*chosen += amount
	c.sync()
	return c.value, nil
}

// Deposit is Add.
func (c *CapitalistMoney) Deposit(amount int, opts AddOptions) (int, error) {
	return c.Add(amount, opts)
}

// Set replaces the total. Capital keeps as much of its balance as fits and
// revenue holds the rest.
func (c *CapitalistMoney) Set(value int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value < c.min {
		return c.value, fmt.Errorf("%w: %s cannot go below %d (got %d)", ErrOutOfBounds, c.name, c.min, value)
	}
	if value < c.capital {
		c.capital = value
	}
	c.revenue = value - c.capital
	c.sync()
	return c.value, nil
}

// Remove pays amount from the chosen bucket, falling back to the other bucket
// and finally to loans, whose proceeds land in the chosen bucket.
func (c *CapitalistMoney) Remove(amount int, opts RemoveOptions) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkAmount(c.name, amount); err != nil {
		return c.value, err
	}
	chosen, other := c.buckets(opts.UseCapital)
	switch {
	case *chosen >= amount:
		*chosen -= amount
	case *chosen+*other >= amount:
		*other -= amount - *chosen
		*chosen = 0
	case opts.CanTakeLoans:
		shortfall := amount - *chosen - *other
		units := loanUnits(shortfall)
		c.loans += units
		*chosen = units*LoanSize - shortfall
		*other = 0
	default:
		return c.value, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, c.name, *chosen+*other, amount)
	}
	c.sync()
	return c.value, nil
}

// MoveToCapital transfers amount from revenue into capital.
func (c *CapitalistMoney) MoveToCapital(amount int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if amount < 0 || amount > c.revenue {
		return fmt.Errorf("%w: %s revenue is %d, cannot move %d", ErrInsufficientFunds, c.name, c.revenue, amount)
	}
	c.revenue -= amount
	c.capital += amount
	return nil
}

func (c *CapitalistMoney) buckets(useCapital bool) (chosen, other *int) {
	if useCapital {
		return &c.capital, &c.revenue
	}
	return &c.revenue, &c.capital
}

func (c *CapitalistMoney) sync() {
	c.value = c.revenue + c.capital
}

// MarshalJSON renders both buckets, their sum and loans.
func (c *CapitalistMoney) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(struct {
		Value   int `json:"value"`
		Revenue int `json:"revenue"`
		Capital int `json:"capital"`
		Loans   int `json:"loans"`
	}{c.value, c.revenue, c.capital, c.loans})
}
