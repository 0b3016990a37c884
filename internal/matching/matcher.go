// Package matching resolves invoice line items against the product catalog.
//
// The cascade is: product reference, normalized code, learned alias, exact
// name, normalized name, then fuzzy name within MaxDistance. A higher tier always
// wins over a lower one regardless of distance.
package matching

import (
	"errors"
	"strings"

	"github.com/MrJamesThe3rd/stockscan/internal/catalog"
	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/pricing"
)

// MaxDistance is the largest accepted edit distance for a fuzzy name match.
const MaxDistance = 3

var (
	ErrUpdateWithoutRef = errors.New("update result without product reference")
	ErrAddNewWithRef    = errors.New("add-new result with product reference")
	ErrUnknownAction    = errors.New("unknown match action")
)

type Action string

const (
	ActionUpdate Action = "UPDATE"
	ActionAddNew Action = "ADD_NEW"
)

type MatchType string

const (
	MatchID             MatchType = "id"
	MatchCode           MatchType = "code"
	MatchAlias          MatchType = "alias"
	MatchExactName      MatchType = "exactName"
	MatchNormalizedName MatchType = "normalizedName"
	MatchFuzzyName      MatchType = "fuzzyName"
)

// MatchResult is the resolution of one line item.
type MatchResult struct {
	Item       invoice.LineItem `json:"item"`
	Action     Action           `json:"action"`
	ProductRef string           `json:"product_ref,omitempty"`
	MatchType  MatchType        `json:"match_type,omitempty"`
	Distance   int              `json:"distance,omitempty"`
	Pricing    *pricing.Quote   `json:"pricing,omitempty"`
}

// Update resolves item to an existing product.
func Update(item invoice.LineItem, productID string, mt MatchType, distance int) MatchResult {
	item.ProductRef = productID

	return MatchResult{
		Item:       item,
		Action:     ActionUpdate,
		ProductRef: productID,
		MatchType:  mt,
		Distance:   distance,
	}
}

// AddNew marks item as a product to create.
func AddNew(item invoice.LineItem) MatchResult {
	item.ProductRef = ""

	return MatchResult{Item: item, Action: ActionAddNew}
}

// Validate checks that an UPDATE carries a reference and an ADD_NEW does not.
func (r MatchResult) Validate() error {
	switch r.Action {
	case ActionUpdate:
		if r.ProductRef == "" {
			return ErrUpdateWithoutRef
		}
	case ActionAddNew:
		if r.ProductRef != "" {
			return ErrAddNewWithRef
		}
	default:
		return ErrUnknownAction
	}

	return nil
}

// Match resolves a single item. The snapshot is only read.
func Match(item invoice.LineItem, snap *catalog.Snapshot) MatchResult {
	return newIndex(snap).match(item)
}

// MatchAll resolves every item against the same snapshot. Two items naming
// the same unknown product are both reported as ADD_NEW.
func MatchAll(items []invoice.LineItem, snap *catalog.Snapshot) []MatchResult {
	return MatchAllWithAliases(items, snap, nil)
}

// MatchAllWithAliases is MatchAll with learned aliases consulted after the
// code tier. Aliases naming a product missing from snap are ignored.
func MatchAllWithAliases(items []invoice.LineItem, snap *catalog.Snapshot, aliases Aliases) []MatchResult {
	idx := newIndex(snap)
	idx.aliases = aliases

	out := make([]MatchResult, 0, len(items))
	for _, item := range items {
		out = append(out, idx.match(item))
	}

	return out
}

// Aliases maps a normalized raw name to the product it was confirmed as.
type Aliases map[string]string

type entry struct {
	id    string
	code  string
	name  string
	norm  string
	runes int
}

// index holds the normalized catalog in product ID order.
type index struct {
	entries []entry
	byID    map[string]bool
	aliases Aliases
}

func newIndex(snap *catalog.Snapshot) *index {
	idx := &index{
		entries: make([]entry, 0, snap.Len()),
		byID:    make(map[string]bool, snap.Len()),
	}

	snap.Each(func(p *catalog.Product) bool {
		n := NormalizeName(p.Name)

		idx.entries = append(idx.entries, entry{
			id:    p.ID,
			code:  NormalizeCode(p.Code),
			name:  strings.ToLower(strings.TrimSpace(p.Name)),
			norm:  n,
			runes: len([]rune(n)),
		})
		idx.byID[p.ID] = true

		return true
	})

	return idx
}

func (idx *index) match(item invoice.LineItem) MatchResult {
	if item.ProductRef != "" && idx.byID[item.ProductRef] {
		return Update(item, item.ProductRef, MatchID, 0)
	}

	if code := NormalizeCode(item.Code); code != "" {
		if id, ok := idx.find(func(e entry) bool { return e.code == code }); ok {
			return Update(item, id, MatchCode, 0)
		}
	}

	n := NormalizeName(item.Name)

	if id, ok := idx.aliases[n]; ok && n != "" && idx.byID[id] {
		return Update(item, id, MatchAlias, 0)
	}

	name := strings.ToLower(strings.TrimSpace(item.Name))
	if name != "" {
		if id, ok := idx.find(func(e entry) bool { return e.name == name }); ok {
			return Update(item, id, MatchExactName, 0)
		}
	}

	if n == "" {
		return AddNew(item)
	}

	if id, ok := idx.find(func(e entry) bool { return e.norm == n }); ok {
		return Update(item, id, MatchNormalizedName, 0)
	}

	if id, d, ok := idx.fuzzy(n); ok {
		return Update(item, id, MatchFuzzyName, d)
	}

	return AddNew(item)
}

func (idx *index) find(pred func(e entry) bool) (string, bool) {
	for _, e := range idx.entries {
		if pred(e) {
			return e.id, true
		}
	}

	return "", false
}

// fuzzy returns the closest name within MaxDistance. Ties go to the
// smaller length difference, then to the smaller product ID, which is the
// iteration order.
func (idx *index) fuzzy(n string) (string, int, bool) {
	size := len([]rune(n))

	var (
		best     string
		found    bool
		bestDist = MaxDistance + 1
		bestDiff int
	)

	for _, e := range idx.entries {
		if e.norm == "" {
			continue
		}

		diff := abs(e.runes - size)
		if diff > MaxDistance {
			continue
		}

		d := Levenshtein(n, e.norm)
		if d > MaxDistance {
			continue
		}

		if d < bestDist || (d == bestDist && diff < bestDiff) {
			best, bestDist, bestDiff, found = e.id, d, diff, true
		}
	}

	return best, bestDist, found
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
