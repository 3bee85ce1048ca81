// Package inventory models fixed-slot item containers and the transfers
// between them.
package inventory

import "strings"

// Stack is the content of one slot. The zero value is an empty slot.
type Stack struct {
	Item  string `json:"name"`
	Count int    `json:"count"`
}

func (s Stack) Empty() bool { return s.Item == "" || s.Count <= 0 }

// DefaultSlotLimit is the per-slot cap for items without an explicit limit.
const DefaultSlotLimit = 64

// DisplayName strips namespace and translation-key prefixes from an item id.
func DisplayName(id string) string {
	for _, p := range []string{"item.minecraft.", "block.minecraft.", "minecraft:"} {
		id = strings.TrimPrefix(id, p)
	}
	return id
}

// Matcher selects items by id. A nil Matcher matches everything.
type Matcher func(item string) bool

// NameFilter matches items whose display name contains filter,
// case-insensitively. An empty filter yields nil.
func NameFilter(filter string) Matcher {
	f := strings.ToLower(strings.TrimSpace(filter))
	if f == "" {
		return nil
	}
	return func(item string) bool {
		return strings.Contains(strings.ToLower(DisplayName(item)), f)
	}
}

func (m Matcher) matches(item string) bool {
	return m == nil || m(item)
}
