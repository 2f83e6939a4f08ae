package cards

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var defaultData embed.FS

// Good is a tradeable resource kind.
type Good string

const (
	GoodFood       Good = "food"
	GoodLuxury     Good = "luxury"
	GoodHealthcare Good = "healthcare"
	GoodEducation  Good = "education"
	GoodInfluence  Good = "influence"
)

// Offer is a quantity of a good available at a unit price.
type Offer struct {
	Quantity int `yaml:"quantity" json:"quantity"`
	Price    int `yaml:"price" json:"price"`
}

// ForeignMarketCard sets the import offers for a round.
type ForeignMarketCard struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Food   Offer  `yaml:"food" json:"food"`
	Luxury Offer  `yaml:"luxury" json:"luxury"`
}

func (c ForeignMarketCard) CardID() string { return c.ID }

// OfferFor returns the card's offer for a good, if any.
func (c ForeignMarketCard) OfferFor(good Good) (Offer, bool) {
	switch good {
	case GoodFood:
		return c.Food, true
	case GoodLuxury:
		return c.Luxury, true
	default:
		return Offer{}, false
	}
}

// BusinessDealCard is a bulk import the capitalist can sign.
type BusinessDealCard struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Resource Good   `yaml:"resource" json:"resource"`
	Quantity int    `yaml:"quantity" json:"quantity"`
	Cost     int    `yaml:"cost" json:"cost"`
	Tariff   int    `yaml:"tariff" json:"tariff"`
}

func (c BusinessDealCard) CardID() string { return c.ID }

// CompanyDefinition is the static description of a company card. A company
// produces Production units of Resource in a round when all Workers slots are
// filled, and pays Wages[level] to each worker of another class.
type CompanyDefinition struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Owner      string `yaml:"owner" json:"owner"`
	Industry   string `yaml:"industry" json:"industry"`
	Cost       int    `yaml:"cost" json:"cost"`
	Workers    int    `yaml:"workers" json:"workers"`
	Wages      [3]int `yaml:"wages" json:"wages"`
	Resource   Good   `yaml:"resource" json:"resource"`
	Production int    `yaml:"production" json:"production"`
}

func (c CompanyDefinition) CardID() string { return c.ID }

// Set is the full card data a game is configured with.
type Set struct {
	ForeignMarket []ForeignMarketCard
	BusinessDeals []BusinessDealCard
	Companies     []CompanyDefinition
}

// CompaniesFor returns the company definitions owned by role.
func (s *Set) CompaniesFor(role string) []CompanyDefinition {
	var out []CompanyDefinition
	for _, def := range s.Companies {
		if def.Owner == role {
			out = append(out, def)
		}
	}
	return out
}

// Default returns the card data shipped with the engine.
func Default() *Set {
	set, err := load(defaultData, "data")
	if err != nil {
		panic(fmt.Sprintf("embedded card data: %v", err))
	}
	return set
}

// LoadDir reads foreign_market.yaml, business_deals.yaml and companies.yaml from dir.
func LoadDir(dir string) (*Set, error) {
	return load(os.DirFS(dir), ".")
}

func load(fsys fs.FS, dir string) (*Set, error) {
	set := &Set{}
	if err := decodeFile(fsys, filepath.Join(dir, "foreign_market.yaml"), &set.ForeignMarket); err != nil {
		return nil, err
	}
	if err := decodeFile(fsys, filepath.Join(dir, "business_deals.yaml"), &set.BusinessDeals); err != nil {
		return nil, err
	}
	if err := decodeFile(fsys, filepath.Join(dir, "companies.yaml"), &set.Companies); err != nil {
		return nil, err
	}
	return set, nil
}

func decodeFile(fsys fs.FS, name string, out any) error {
	raw, err := fs.ReadFile(fsys, filepath.ToSlash(name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
