package loader

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/napolitain/stronghold/internal/formula"
	"github.com/napolitain/stronghold/internal/models"
)

// Catalog file names inside the data directory
const (
	CurrenciesFile = "currencies.json"
	FacilitiesFile = "facilities.json"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// currenciesJSON represents the JSON structure of currencies.json
type currenciesJSON struct {
	Denominations []models.DenominationDef `json:"denominations"`
}

// facilitiesJSON represents the JSON structure of facilities.json
type facilitiesJSON struct {
	Facilities []facilityJSON `json:"facilities"`
}

// facilityJSON represents one facility definition
type facilityJSON struct {
	ID                 string      `json:"id"`
	Tier               int         `json:"tier"`
	Name               string      `json:"name"`
	Description        string      `json:"description"`
	NpcSlots           int         `json:"npc_slots"`
	AllowedProfessions []string    `json:"npc_allowed_professions"`
	Build              buildJSON   `json:"build"`
	Parent             *string     `json:"parent"`
	Orders             []orderJSON `json:"orders"`
}

type buildJSON struct {
	Cost          map[string]int64 `json:"cost"`
	DurationTurns int              `json:"duration_turns"`
}

// LoadCatalog loads currencies.json and facilities.json from dataDir
func LoadCatalog(dataDir string) (*models.Catalog, error) {
	currencies, err := os.ReadFile(filepath.Join(dataDir, CurrenciesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", CurrenciesFile, err)
	}
	facilities, err := os.ReadFile(filepath.Join(dataDir, FacilitiesFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FacilitiesFile, err)
	}
	return ParseCatalog(currencies, facilities)
}

// ParseCatalog validates and converts raw catalog documents. Every failure
// wraps models.ErrInvalidCatalog.
func ParseCatalog(currenciesData, facilitiesData []byte) (*models.Catalog, error) {
	currency, err := ParseCurrencies(currenciesData)
	if err != nil {
		return nil, err
	}
	defs, err := ParseFacilities(facilitiesData, currency)
	if err != nil {
		return nil, err
	}
	return models.NewCatalog(currency, defs)
}

// ParseCurrencies builds the currency model from currencies.json content
func ParseCurrencies(data []byte) (*models.CurrencyModel, error) {
	if err := validateDocument("currencies.schema.json", data); err != nil {
		return nil, err
	}
	var raw currenciesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", models.ErrInvalidCatalog, CurrenciesFile, err)
	}
	m, err := models.NewCurrencyModel(raw.Denominations)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidCatalog, err)
	}
	return m, nil
}

// ParseFacilities converts facilities.json content into definitions. Formulas
// are compiled and their variables checked against declared inputs.
func ParseFacilities(data []byte, currency *models.CurrencyModel) ([]*models.FacilityDefinition, error) {
	if err := validateDocument("facilities.schema.json", data); err != nil {
		return nil, err
	}
	var raw facilitiesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", models.ErrInvalidCatalog, FacilitiesFile, err)
	}

	eval := formula.New()
	defs := make([]*models.FacilityDefinition, 0, len(raw.Facilities))
	for _, fj := range raw.Facilities {
		def := &models.FacilityDefinition{
			ID:                 strings.TrimSpace(fj.ID),
			Tier:               fj.Tier,
			Name:               fj.Name,
			Description:        fj.Description,
			NpcSlots:           fj.NpcSlots,
			AllowedProfessions: fj.AllowedProfessions,
			Build: models.BuildSpec{
				Cost:          toWallet(fj.Build.Cost),
				DurationTurns: fj.Build.DurationTurns,
			},
		}
		if fj.Parent != nil {
			def.Parent = strings.TrimSpace(*fj.Parent)
		}

		for _, oj := range fj.Orders {
			order, err := convertOrder(oj, eval)
			if err != nil {
				return nil, fmt.Errorf("%w: facility %q order %q: %v", models.ErrInvalidCatalog, def.ID, oj.ID, err)
			}
			def.Orders = append(def.Orders, order)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func validateDocument(schemaName string, data []byte) error {
	schema, err := compileSchema(schemaName)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrInvalidCatalog, schemaName, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidCatalog, err)
	}
	return nil
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
	}
	schema, err := jsonschema.CompileString(name, string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return schema, nil
}

func toWallet(m map[string]int64) models.Wallet {
	if len(m) == 0 {
		return nil
	}
	w := make(models.Wallet, len(m))
	for code, amount := range m {
		w[models.Denomination(code)] = amount
	}
	return w
}
