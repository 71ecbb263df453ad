package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/resourcemart/storefront/internal/models"
)

func TestApplyMergesOnlyTouchedFields(t *testing.T) {
	base := Patch{
		Category: Set("前端开发"),
		SortBy:   Set(models.SortLatest),
	}.Apply(Filters{})

	require.Equal(t, "前端开发", base.Category)
	require.Equal(t, models.SortLatest, base.SortBy)

	next := Patch{
		Price: Set(PriceRange{Min: 100, Max: 500}),
	}.Apply(base)

	require.Equal(t, "前端开发", next.Category, "untouched field must survive")
	require.Equal(t, models.SortLatest, next.SortBy)
	require.NotNil(t, next.Price)
	require.Equal(t, PriceRange{Min: 100, Max: 500}, *next.Price)
}

func TestApplyClearRemovesConstraint(t *testing.T) {
	f := Patch{
		Category: Set("UI设计"),
		Rating:   Set(4.0),
		Types:    Set([]models.ResourceType{models.TypeVideo}),
	}.Apply(Filters{})

	f = Patch{
		Category: Clear[string](),
		Rating:   Clear[float64](),
	}.Apply(f)

	require.Empty(t, f.Category)
	require.Nil(t, f.Rating)
	require.NotNil(t, f.Types, "unmentioned field stays set")
}

func TestApplyIsPure(t *testing.T) {
	orig := Patch{
		Types: Set([]models.ResourceType{models.TypeVideo, models.TypeFile}),
		Price: Set(PriceRange{Min: 10, Max: 20}),
	}.Apply(Filters{})

	next := Patch{
		Types: Set([]models.ResourceType{models.TypeArticle}),
		Price: Set(PriceRange{Min: 1, Max: 2}),
	}.Apply(orig)

	require.Equal(t, []models.ResourceType{models.TypeVideo, models.TypeFile}, orig.Types)
	require.Equal(t, PriceRange{Min: 10, Max: 20}, *orig.Price)
	require.Equal(t, []models.ResourceType{models.TypeArticle}, next.Types)
}

func TestEmptyPatchKeepsEverything(t *testing.T) {
	f := Patch{Category: Set("后端开发")}.Apply(Filters{})
	same := Patch{}.Apply(f)
	require.Equal(t, f.Category, same.Category)
}

func TestIsZero(t *testing.T) {
	require.True(t, Filters{}.IsZero())
	require.False(t, Patch{Category: Set("x")}.Apply(Filters{}).IsZero())
	cleared := Patch{Category: Clear[string]()}.Apply(Patch{Category: Set("x")}.Apply(Filters{}))
	require.True(t, cleared.IsZero())
}

func TestNormalizeClampsRanges(t *testing.T) {
	f := Patch{
		Price:  Set(PriceRange{Min: -50, Max: PriceCeiling + 500}),
		Rating: Set(9.5),
	}.Apply(Filters{})

	n := f.Normalize()
	require.Equal(t, float64(0), n.Price.Min)
	require.Equal(t, float64(PriceCeiling), n.Price.Max)
	require.Equal(t, float64(RatingCeiling), *n.Rating)

	// Original untouched.
	require.Equal(t, float64(-50), f.Price.Min)
}

func TestNormalizeInvertedIntervalCollapses(t *testing.T) {
	f := Patch{Price: Set(PriceRange{Min: 700, Max: 300})}.Apply(Filters{})
	n := f.Normalize()
	require.Equal(t, n.Price.Min, n.Price.Max)
	require.Equal(t, float64(300), n.Price.Max)
}

func TestQueryParams(t *testing.T) {
	r := 4.5
	f := Filters{
		Category: "前端开发",
		Types:    []models.ResourceType{models.TypeVideo, models.TypeDocument},
		Price:    &PriceRange{Min: 0, Max: 250},
		Rating:   &r,
		SortBy:   models.SortPrice,
	}

	v := f.QueryParams()
	require.Equal(t, "前端开发", v.Get("category"))
	require.Equal(t, []string{"video", "document"}, v["type"])
	require.Equal(t, "0", v.Get("price_min"))
	require.Equal(t, "250", v.Get("price_max"))
	require.Equal(t, "4.5", v.Get("rating"))
	require.Equal(t, "price", v.Get("sort_by"))

	require.Empty(t, Filters{}.QueryParams())
}
