package settings

import (
	_ "embed"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/lojf/classbook/internal/models"
)

//go:embed factory_defaults.json
var factoryJSON []byte

// Factory is the packaged snapshot of defaults shipped with the binary.
type Factory struct {
	Global map[string]string            `json:"global"`
	Class  map[string]string            `json:"class"`
	Forms  map[string]map[string]string `json:"forms"`
}

// LoadFactory decodes the packaged snapshot.
func LoadFactory() (Factory, error) {
	var f Factory
	if err := json.Unmarshal(factoryJSON, &f); err != nil {
		return Factory{}, errors.Wrap(err, "decode factory defaults")
	}
	return f, nil
}

// Rows flattens the snapshot into factory_defaults rows in a stable order.
func (f Factory) Rows() []models.FactoryDefault {
	var out []models.FactoryDefault
	for _, k := range sortedKeys(f.Global) {
		out = append(out, models.FactoryDefault{Scope: models.ScopeGlobal, Key: k, Value: f.Global[k]})
	}
	for _, k := range sortedKeys(f.Class) {
		out = append(out, models.FactoryDefault{Scope: models.ScopeClass, Key: k, Value: f.Class[k]})
	}
	for _, name := range sortedFormNames(f.Forms) {
		form := name
		for _, k := range sortedKeys(f.Forms[name]) {
			out = append(out, models.FactoryDefault{Scope: models.ScopeForm, FormName: &form, Key: k, Value: f.Forms[name][k]})
		}
	}
	return out
}

// Visibility returns the class-scope show_* values.
func (f Factory) Visibility() map[string]string {
	out := map[string]string{}
	for _, col := range models.VisibilityColumns {
		if v, ok := f.Class[col]; ok {
			out[col] = v
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFormNames(m map[string]map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
