package location

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/weathermap/internal/geo"
)

// Alias is a known place with the keys that resolve to it offline.
type Alias struct {
	Keys  []string `yaml:"keys"`
	Lat   float64  `yaml:"lat"`
	Lon   float64  `yaml:"lon"`
	Label string   `yaml:"label"`
}

// AliasTable is an ordered list of aliases. Order is the tie breaker when
// two keys match equally well.
type AliasTable struct {
	entries []Alias
}

// DefaultAliases is the built-in table.
var DefaultAliases = []Alias{
	{Keys: []string{"tehran", "تهران"}, Lat: 35.6892, Lon: 51.3890, Label: "تهران، ایران"},
	{Keys: []string{"mashhad", "مشهد"}, Lat: 36.2605, Lon: 59.6168, Label: "مشهد، ایران"},
	{Keys: []string{"isfahan", "esfahan", "اصفهان"}, Lat: 32.6546, Lon: 51.6680, Label: "اصفهان، ایران"},
	{Keys: []string{"shiraz", "شیراز"}, Lat: 29.5918, Lon: 52.5837, Label: "شیراز، ایران"},
	{Keys: []string{"tabriz", "تبریز"}, Lat: 38.0962, Lon: 46.2738, Label: "تبریز، ایران"},
	{Keys: []string{"karaj", "کرج"}, Lat: 35.8400, Lon: 50.9391, Label: "کرج، ایران"},
	{Keys: []string{"qom", "قم"}, Lat: 34.6416, Lon: 50.8746, Label: "قم، ایران"},
	{Keys: []string{"ahvaz", "اهواز"}, Lat: 31.3183, Lon: 48.6706, Label: "اهواز، ایران"},
	{Keys: []string{"kermanshah", "کرمانشاه"}, Lat: 34.3142, Lon: 47.0650, Label: "کرمانشاه، ایران"},
	{Keys: []string{"rasht", "رشت"}, Lat: 37.2808, Lon: 49.5832, Label: "رشت، ایران"},
}

// NewAliasTable validates and normalizes entries. Keys are lowercased and
// trimmed; empty keys are dropped.
func NewAliasTable(entries []Alias) (*AliasTable, error) {
	out := make([]Alias, 0, len(entries))
	for i, e := range entries {
		if err := geo.ValidateCoordinates(e.Lat, e.Lon); err != nil {
			return nil, fmt.Errorf("alias %d (%s): %w", i, e.Label, err)
		}
		if strings.TrimSpace(e.Label) == "" {
			return nil, fmt.Errorf("alias %d: label is required", i)
		}

		keys := make([]string, 0, len(e.Keys))
		for _, k := range e.Keys {
			if k = normalize(k); k != "" {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("alias %d (%s): at least one key is required", i, e.Label)
		}

		e.Keys = keys
		out = append(out, e)
	}
	return &AliasTable{entries: out}, nil
}

// LoadAliasFile reads a YAML list of aliases.
func LoadAliasFile(path string) (*AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Aliases []Alias `yaml:"aliases"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewAliasTable(doc.Aliases)
}

// Len returns the number of entries.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Match finds the alias for an already normalized query. An exact key match
// anywhere in the table wins; otherwise the longest key that contains, or is
// contained in, the query wins. Equal lengths resolve in table order.
func (t *AliasTable) Match(query string) (Alias, bool) {
	if t == nil || query == "" {
		return Alias{}, false
	}

	for _, e := range t.entries {
		for _, k := range e.Keys {
			if k == query {
				return e, true
			}
		}
	}

	var (
		best    Alias
		bestLen int
	)
	for _, e := range t.entries {
		for _, k := range e.Keys {
			if !strings.Contains(query, k) && !strings.Contains(k, query) {
				continue
			}
			if n := len([]rune(k)); n > bestLen {
				best, bestLen = e, n
			}
		}
	}
	return best, bestLen > 0
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
