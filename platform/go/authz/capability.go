package authz

import "strings"

// Capability is a named boolean permission granted through a role.
type Capability string

const (
	CanVote        Capability = "canVote"
	KitchenView    Capability = "kitchenView"
	KitchenManage  Capability = "kitchenManage"
	ViewStatistics Capability = "viewStatistics"
	ManageShifts   Capability = "manageShifts"
	IsAdmin        Capability = "isAdmin"
)

// Capabilities lists every recognised capability in display order.
var Capabilities = []Capability{CanVote, KitchenView, KitchenManage, ViewStatistics, ManageShifts, IsAdmin}

// ParseCapability matches a capability name case-insensitively.
func ParseCapability(name string) (Capability, bool) {
	trimmed := strings.TrimSpace(name)
	for _, c := range Capabilities {
		if strings.EqualFold(string(c), trimmed) {
			return c, true
		}
	}
	return "", false
}

// CapabilitySet is total: every recognised capability is an explicit field, so a
// missing grant can never be confused with an absent key.
type CapabilitySet struct {
	CanVote        bool `json:"canVote"`
	KitchenView    bool `json:"kitchenView"`
	KitchenManage  bool `json:"kitchenManage"`
	ViewStatistics bool `json:"viewStatistics"`
	ManageShifts   bool `json:"manageShifts"`
	IsAdmin        bool `json:"isAdmin"`
}

// None is the anonymous capability set.
func None() CapabilitySet { return CapabilitySet{} }

// All grants every capability; used when seeding the admin role.
func All() CapabilitySet {
	return CapabilitySet{
		CanVote:        true,
		KitchenView:    true,
		KitchenManage:  true,
		ViewStatistics: true,
		ManageShifts:   true,
		IsAdmin:        true,
	}
}

// Has reports whether the capability is granted. Unknown capabilities are never granted.
func (s CapabilitySet) Has(c Capability) bool {
	switch c {
	case CanVote:
		return s.CanVote
	case KitchenView:
		return s.KitchenView
	case KitchenManage:
		return s.KitchenManage
	case ViewStatistics:
		return s.ViewStatistics
	case ManageShifts:
		return s.ManageShifts
	case IsAdmin:
		return s.IsAdmin
	default:
		return false
	}
}

// Map renders the set keyed by capability name, including false entries.
func (s CapabilitySet) Map() map[string]bool {
	out := make(map[string]bool, len(Capabilities))
	for _, c := range Capabilities {
		out[string(c)] = s.Has(c)
	}
	return out
}

// FromMap builds a set from named grants. Names outside Capabilities are reported back.
func FromMap(grants map[string]bool) (CapabilitySet, []string) {
	var set CapabilitySet
	var unknown []string
	for name, granted := range grants {
		c, ok := ParseCapability(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		switch c {
		case CanVote:
			set.CanVote = granted
		case KitchenView:
			set.KitchenView = granted
		case KitchenManage:
			set.KitchenManage = granted
		case ViewStatistics:
			set.ViewStatistics = granted
		case ManageShifts:
			set.ManageShifts = granted
		case IsAdmin:
			set.IsAdmin = granted
		}
	}
	return set, unknown
}
