package authz

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed legacy_roles.yaml
var defaultLegacyRoles []byte

// LegacyRoleMap is the single table of legacy role-label heuristics. Resolution
// consults it only after exact code/name matching fails.
type LegacyRoleMap struct {
	aliases map[string][]string
}

type legacyRoleFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// DefaultLegacyRoleMap returns the embedded table.
func DefaultLegacyRoleMap() LegacyRoleMap {
	m, err := ParseLegacyRoleMap(strings.NewReader(string(defaultLegacyRoles)))
	if err != nil {
		panic(fmt.Sprintf("authz: embedded legacy role map: %v", err))
	}
	return m
}

// LoadLegacyRoleMapFile reads a YAML table from disk. An empty path yields the embedded default.
func LoadLegacyRoleMapFile(path string) (LegacyRoleMap, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultLegacyRoleMap(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return LegacyRoleMap{}, fmt.Errorf("open legacy role map: %w", err)
	}
	defer f.Close()
	return ParseLegacyRoleMap(f)
}

// ParseLegacyRoleMap decodes a YAML table of the form `roles: {label: [alias, ...]}`.
func ParseLegacyRoleMap(r io.Reader) (LegacyRoleMap, error) {
	var file legacyRoleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return LegacyRoleMap{}, fmt.Errorf("decode legacy role map: %w", err)
	}

	m := LegacyRoleMap{aliases: make(map[string][]string, len(file.Roles))}
	for label, aliases := range file.Roles {
		key := normalizeLabel(label)
		if key == "" {
			return LegacyRoleMap{}, fmt.Errorf("legacy role map: empty label")
		}
		for _, a := range aliases {
			if alias := normalizeLabel(a); alias != "" {
				m.aliases[key] = append(m.aliases[key], alias)
			}
		}
	}
	return m, nil
}

// Aliases returns the substrings associated with a label, directly or through one of its aliases.
func (m LegacyRoleMap) Aliases(label string) []string {
	canonical := m.Canonical(label)
	if aliases, ok := m.aliases[canonical]; ok {
		return aliases
	}
	return nil
}

// Canonical maps a legacy label to its table key, e.g. "Cocina" to "kitchen".
// Labels that are not in the table are returned normalized.
func (m LegacyRoleMap) Canonical(label string) string {
	key := normalizeLabel(label)
	if _, ok := m.aliases[key]; ok {
		return key
	}

	labels := make([]string, 0, len(m.aliases))
	for l := range m.aliases {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	for _, l := range labels {
		for _, alias := range m.aliases[l] {
			if alias == key {
				return l
			}
		}
	}
	return key
}

// Match returns the index of the role a legacy label stands for. Aliases are
// tried in table order, so a label's own wording outranks looser synonyms. An
// alias equal to a role's name or code wins over any substring hit; within one
// alias the first role in the given order wins.
func (m LegacyRoleMap) Match(label string, roles []RoleDefinition) (int, bool) {
	aliases := m.Aliases(label)
	if len(aliases) == 0 {
		return -1, false
	}
	for _, alias := range aliases {
		for i, role := range roles {
			if normalizeLabel(role.Name) == alias || normalizeLabel(role.Code) == alias {
				return i, true
			}
		}
	}
	for _, alias := range aliases {
		for i, role := range roles {
			if strings.Contains(normalizeLabel(role.Name), alias) || strings.Contains(normalizeLabel(role.Code), alias) {
				return i, true
			}
		}
	}
	return -1, false
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
