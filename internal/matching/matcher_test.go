package matching_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/stockscan/internal/catalog"
	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
	"github.com/MrJamesThe3rd/stockscan/internal/matching"
)

func snapshot(products ...catalog.Product) *catalog.Snapshot {
	return catalog.NewSnapshot(products, nil, time.Now())
}

func item(code, name string) invoice.LineItem {
	return invoice.NewLineItem(code, name, 1, decimal.NewFromInt(10), nil)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "00337090", matching.NormalizeCode("0.033-709.0"))
	assert.Equal(t, "abc123", matching.NormalizeCode("ABC 123"))
	assert.Equal(t, "abc123", matching.NormalizeCode("abc-123"))
	assert.Empty(t, matching.NormalizeCode(" .-"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "spraynozzle", matching.NormalizeName("Spray-Nozzle "))
	assert.Equal(t, "cmimkafee", matching.NormalizeName("Çmim Kafe-Ë"))
	assert.Equal(t, "hochdruckschlauch2m", matching.NormalizeName("Hochdruck-Schlauch, 2m"))
}

func TestLevenshtein(t *testing.T) {
	type testCase struct {
		a, b string
		want int
	}

	tests := []testCase{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"çaj", "caj", 1},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matching.Levenshtein(tt.a, tt.b), "%s/%s", tt.a, tt.b)
		assert.Equal(t, tt.want, matching.Levenshtein(tt.b, tt.a), "%s/%s", tt.b, tt.a)
	}
}

func TestMatch_Cascade(t *testing.T) {
	snap := snapshot(
		catalog.Product{ID: "p1", Code: "ABC123", Name: "Bearing"},
		catalog.Product{ID: "p2", Name: "Spray Nozzle"},
		catalog.Product{ID: "p3", Name: "Spray-Nozzle X"},
		catalog.Product{ID: "p4", Name: "Seal ring"},
	)

	type want struct {
		action matching.Action
		ref    string
		mt     matching.MatchType
		dist   int
	}

	type testCase struct {
		name string
		item invoice.LineItem
		want want
	}

	withRef := item("", "Anything")
	withRef.ProductRef = "p4"

	danglingRef := item("", "Seal ring")
	danglingRef.ProductRef = "gone"

	tests := []testCase{
		{
			name: "ProductReference",
			item: withRef,
			want: want{matching.ActionUpdate, "p4", matching.MatchID, 0},
		},
		{
			name: "UnknownReferenceFallsThrough",
			item: danglingRef,
			want: want{matching.ActionUpdate, "p4", matching.MatchExactName, 0},
		},
		{
			name: "CodeDifferentCaseAndPunctuation",
			item: item("abc-123", "Unrelated"),
			want: want{matching.ActionUpdate, "p1", matching.MatchCode, 0},
		},
		{
			name: "CodeBeatsCloserFuzzyName",
			item: item("abc.123", "Spray Nozzle"),
			want: want{matching.ActionUpdate, "p1", matching.MatchCode, 0},
		},
		{
			name: "ExactNameIgnoringCase",
			item: item("", "  spray nozzle "),
			want: want{matching.ActionUpdate, "p2", matching.MatchExactName, 0},
		},
		{
			name: "NormalizedName",
			item: item("", "SPRAY-NOZZLE-X"),
			want: want{matching.ActionUpdate, "p3", matching.MatchNormalizedName, 0},
		},
		{
			name: "FuzzyAtDistanceThree",
			item: item("", "Seal rxxx"),
			want: want{matching.ActionUpdate, "p4", matching.MatchFuzzyName, 3},
		},
		{
			name: "FuzzyAtDistanceFourIsNew",
			item: item("", "Seal xxxx"),
			want: want{matching.ActionAddNew, "", "", 0},
		},
		{
			name: "NameWithoutLettersIsNew",
			item: item("", "--"),
			want: want{matching.ActionAddNew, "", "", 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matching.Match(tt.item, snap)

			assert.Equal(t, tt.want.action, got.Action)
			assert.Equal(t, tt.want.ref, got.ProductRef)
			assert.Equal(t, tt.want.ref, got.Item.ProductRef)
			assert.Equal(t, tt.want.mt, got.MatchType)
			assert.Equal(t, tt.want.dist, got.Distance)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestMatch_FuzzyTieBreak(t *testing.T) {
	t.Run("SmallerLengthDifference", func(t *testing.T) {
		snap := snapshot(
			catalog.Product{ID: "a", Name: "filterx"},
			catalog.Product{ID: "b", Name: "filtxr"},
		)

		// "filter" is one edit from both; "filtxr" has the same length
		got := matching.Match(item("", "filter"), snap)
		assert.Equal(t, "b", got.ProductRef)
		assert.Equal(t, 1, got.Distance)
	})

	t.Run("SmallestIDRegardlessOfInputOrder", func(t *testing.T) {
		snap := snapshot(
			catalog.Product{ID: "z", Name: "filtxr"},
			catalog.Product{ID: "m", Name: "filtyr"},
		)

		got := matching.Match(item("", "filter"), snap)
		assert.Equal(t, "m", got.ProductRef)
	})
}

func TestMatchAll_SameNewProductTwice(t *testing.T) {
	snap := snapshot(catalog.Product{ID: "p1", Name: "Bearing"})

	got := matching.MatchAll([]invoice.LineItem{item("", "Brand new thing"), item("", "Brand new thing"), item("", "bearing")}, snap)

	assert.Len(t, got, 3)
	assert.Equal(t, matching.ActionAddNew, got[0].Action)
	assert.Equal(t, matching.ActionAddNew, got[1].Action)
	assert.Equal(t, matching.ActionUpdate, got[2].Action)
	assert.Equal(t, 1, snap.Len())
}

func TestMatchAllWithAliases(t *testing.T) {
	type testCase struct {
		name     string
		item     invoice.LineItem
		aliases  matching.Aliases
		wantRef  string
		wantType matching.MatchType
	}

	snap := snapshot(
		catalog.Product{ID: "p1", Code: "ABC123", Name: "Pump seal"},
		catalog.Product{ID: "p2", Name: "Gasket"},
	)

	tests := []testCase{
		{
			name:     "CodeBeatsAlias",
			item:     item("abc-123", "Pump seal kit"),
			aliases:  matching.Aliases{"pumpsealkit": "p2"},
			wantRef:  "p1",
			wantType: matching.MatchCode,
		},
		{
			name:     "AliasBeatsExactName",
			item:     item("", "Pump seal"),
			aliases:  matching.Aliases{"pumpseal": "p2"},
			wantRef:  "p2",
			wantType: matching.MatchAlias,
		},
		{
			name:     "AliasToMissingProductIgnored",
			item:     item("", "Gaskett"),
			aliases:  matching.Aliases{"gaskett": "gone"},
			wantRef:  "p2",
			wantType: matching.MatchFuzzyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matching.MatchAllWithAliases([]invoice.LineItem{tt.item}, snap, tt.aliases)
			require.Len(t, got, 1)

			assert.Equal(t, tt.wantRef, got[0].ProductRef)
			assert.Equal(t, tt.wantType, got[0].MatchType)
		})
	}
}

func TestMatchResult_Validate(t *testing.T) {
	assert.ErrorIs(t, matching.MatchResult{Action: matching.ActionUpdate}.Validate(), matching.ErrUpdateWithoutRef)
	assert.ErrorIs(t, matching.MatchResult{Action: matching.ActionAddNew, ProductRef: "p1"}.Validate(), matching.ErrAddNewWithRef)
	assert.ErrorIs(t, matching.MatchResult{Action: "MAYBE"}.Validate(), matching.ErrUnknownAction)
}
