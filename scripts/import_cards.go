// import_cards converts a spreadsheet export of the card data into the YAML
// deck files read by cards.LoadDir.
//
//	go run ./scripts/import_cards.go data/cards_export.csv internal/game/cards/data
//
// The CSV has a header row and a "kind" column naming the deck of each row:
// company, businessDeal or foreignMarket. Columns that do not apply to a kind
// are left empty.
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hegemony-sim/hegemony-server-go/internal/game/cards"
)

type row map[string]string

func (r row) int(column string) (int, error) {
	v := strings.TrimSpace(r[column])
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", column, err)
	}
	return n, nil
}

func main() {
	csvPath := "data/cards_export.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	outDir := "internal/game/cards/data"
	if len(os.Args) > 2 {
		outDir = os.Args[2]
	}

	fmt.Println("=== Card Data Import ===")
	fmt.Printf("CSV file: %s\n", csvPath)

	file, err := os.Open(csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	set, err := parse(file)
	if err != nil {
		log.Fatalf("Failed to parse CSV: %v", err)
	}
	fmt.Printf("Parsed %d companies, %d business deals, %d foreign market cards\n",
		len(set.Companies), len(set.BusinessDeals), len(set.ForeignMarket))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", outDir, err)
	}
	for name, v := range map[string]any{
		"companies.yaml":      set.Companies,
		"business_deals.yaml": set.BusinessDeals,
		"foreign_market.yaml": set.ForeignMarket,
	} {
		raw, err := yaml.Marshal(v)
		if err != nil {
			log.Fatalf("Failed to encode %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(outDir, name), raw, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	// Reload through the engine loader so a bad export fails here.
	if _, err := cards.LoadDir(outDir); err != nil {
		log.Fatalf("Written decks do not load: %v", err)
	}
	fmt.Printf("✓ Decks written to %s\n", outDir)
}

func parse(r io.Reader) (*cards.Set, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or has no data rows")
	}

	header := records[0]
	set := &cards.Set{}
	for i, record := range records[1:] {
		line := i + 2
		if len(record) != len(header) {
			log.Printf("Warning: Skipping row %d - expected %d columns, got %d", line, len(header), len(record))
			continue
		}
		rec := make(row, len(header))
		for j, column := range header {
			rec[strings.TrimSpace(column)] = strings.TrimSpace(record[j])
		}
		if err := add(set, rec); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
	}
	return set, nil
}

func add(set *cards.Set, rec row) error {
	ints := func(columns ...string) ([]int, error) {
		out := make([]int, len(columns))
		for i, column := range columns {
			n, err := rec.int(column)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}

	switch rec["kind"] {
	case "company":
		n, err := ints("cost", "workers", "wage1", "wage2", "wage3", "production")
		if err != nil {
			return err
		}
		set.Companies = append(set.Companies, cards.CompanyDefinition{
			ID:         rec["id"],
			Name:       rec["name"],
			Owner:      rec["owner"],
			Industry:   rec["industry"],
			Cost:       n[0],
			Workers:    n[1],
			Wages:      [3]int{n[2], n[3], n[4]},
			Resource:   cards.Good(rec["resource"]),
			Production: n[5],
		})
	case "businessDeal":
		n, err := ints("quantity", "cost", "tariff")
		if err != nil {
			return err
		}
		set.BusinessDeals = append(set.BusinessDeals, cards.BusinessDealCard{
			ID:       rec["id"],
			Name:     rec["name"],
			Resource: cards.Good(rec["resource"]),
			Quantity: n[0],
			Cost:     n[1],
			Tariff:   n[2],
		})
	case "foreignMarket":
		n, err := ints("food_quantity", "food_price", "luxury_quantity", "luxury_price")
		if err != nil {
			return err
		}
		set.ForeignMarket = append(set.ForeignMarket, cards.ForeignMarketCard{
			ID:     rec["id"],
			Name:   rec["name"],
			Food:   cards.Offer{Quantity: n[0], Price: n[1]},
			Luxury: cards.Offer{Quantity: n[2], Price: n[3]},
		})
	default:
		return fmt.Errorf("unknown kind %q", rec["kind"])
	}
	return nil
}
