package fees

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var canonicalOrder = []string{
	ComponentStakers,
	ComponentPlatform,
	ComponentBonus,
	ComponentReferral,
	ComponentTeam,
}

// ScheduleFromMap builds a schedule from a name->bps table. Known components
// keep their canonical order; unknown names follow in lexical order. Keys
// written in snake or camel case with a "_bps"/"Bps" suffix are accepted.
func ScheduleFromMap(table map[string]uint64) Schedule {
	normalized := make(map[string]uint64, len(table))
	for key, bps := range table {
		normalized[normalizeKey(key)] = bps
	}
	schedule := Schedule{Weights: make([]Weight, 0, len(normalized))}
	for _, name := range canonicalOrder {
		if bps, ok := normalized[name]; ok {
			schedule.Weights = append(schedule.Weights, Weight{Name: name, Bps: bps})
			delete(normalized, name)
		}
	}
	extra := make([]string, 0, len(normalized))
	for name := range normalized {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		schedule.Weights = append(schedule.Weights, Weight{Name: name, Bps: normalized[name]})
	}
	if _, ok := schedule.Bps(ComponentStakers); ok {
		schedule.Residual = ComponentStakers
	}
	return schedule
}

// Map returns the schedule as a name->bps table.
func (s Schedule) Map() map[string]uint64 {
	out := make(map[string]uint64, len(s.Weights))
	for _, w := range s.Weights {
		out[w.Name] = w.Bps
	}
	return out
}

// MarshalTOML renders the schedule as an inline table in weight order so
// a persisted config decodes back through UnmarshalTOML.
func (s Schedule) MarshalTOML() ([]byte, error) {
	var b strings.Builder
	b.WriteString("{")
	for i, w := range s.Weights {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s = %d", strconv.Quote(w.Name), w.Bps)
	}
	b.WriteString("}")
	return []byte(b.String()), nil
}

// UnmarshalTOML decodes a schedule table such as
//
//	[fees]
//	stakers_bps = 700
//	platform_bps = 100
func (s *Schedule) UnmarshalTOML(data interface{}) error {
	table, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf("fees: schedule must decode from a table")
	}
	converted := make(map[string]uint64, len(table))
	for key, value := range table {
		bps, err := toBps(value)
		if err != nil {
			return fmt.Errorf("fees: %s: %w", key, err)
		}
		converted[key] = bps
	}
	*s = ScheduleFromMap(converted)
	return nil
}

// UnmarshalYAML accepts the same name->bps mapping as the TOML form.
func (s *Schedule) UnmarshalYAML(node *yaml.Node) error {
	var table map[string]uint64
	if err := node.Decode(&table); err != nil {
		return fmt.Errorf("fees: %w", err)
	}
	*s = ScheduleFromMap(table)
	return nil
}

func toBps(value interface{}) (uint64, error) {
	switch v := value.(type) {
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("negative basis points %d", v)
		}
		return uint64(v), nil
	case uint64:
		return v, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("negative basis points %d", v)
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("unsupported basis point value %T", value)
	}
}

func normalizeKey(key string) string {
	name := NormalizeName(key)
	name = strings.TrimSuffix(name, "_bps")
	name = strings.TrimSuffix(name, "bps")
	return strings.TrimSuffix(name, "_")
}
