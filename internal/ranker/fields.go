package ranker

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// FieldMap names the catalog columns the ranker reads and the placeholders
// used when a retained record is missing one of them.
type FieldMap struct {
	Name             string `yaml:"name"`
	Price            string `yaml:"price"`
	Group            string `yaml:"group"`
	PricePlaceholder string `yaml:"price_placeholder"`
	GroupPlaceholder string `yaml:"group_placeholder"`
}

// DefaultFieldMap matches the column layout of the company product sheet.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Name:             "Название",
		Price:            "Цена за шт в рублях",
		Group:            "Группа",
		PricePlaceholder: "не указана",
		GroupPlaceholder: "—",
	}
}

// LoadFieldMap reads a field mapping from a YAML file. Fields left empty in
// the file keep their defaults, so a partial override is fine.
func LoadFieldMap(path string) (FieldMap, error) {
	fm := DefaultFieldMap()
	if path == "" {
		return fm, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fm, eris.Wrapf(err, "ranker: read field map %s", path)
	}

	var override FieldMap
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fm, eris.Wrapf(err, "ranker: parse field map %s", path)
	}

	if override.Name != "" {
		fm.Name = override.Name
	}
	if override.Price != "" {
		fm.Price = override.Price
	}
	if override.Group != "" {
		fm.Group = override.Group
	}
	if override.PricePlaceholder != "" {
		fm.PricePlaceholder = override.PricePlaceholder
	}
	if override.GroupPlaceholder != "" {
		fm.GroupPlaceholder = override.GroupPlaceholder
	}
	return fm, nil
}
