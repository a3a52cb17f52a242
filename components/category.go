package components

import "strings"

// Category is the closed set of agent labels used for pairing eligibility.
type Category uint8

const (
	CategoryNone Category = iota // no label assigned; never pairs or attracts
	CategoryLow
	CategoryMid
	CategoryHigh
	CategoryRhythmic

	categoryCount
)

// complement maps each category to the one it seeks. The table is read in
// both directions by Complementary, so High pairs with Mid even though Mid
// itself seeks Low.
var complement = [categoryCount]Category{
	CategoryNone:     CategoryNone,
	CategoryLow:      CategoryMid,
	CategoryMid:      CategoryLow,
	CategoryHigh:     CategoryMid,
	CategoryRhythmic: CategoryMid,
}

// Complement returns the category c seeks, or CategoryNone.
func (c Category) Complement() Category {
	if c >= categoryCount {
		return CategoryNone
	}
	return complement[c]
}

// Complementary reports whether a and b may pair or attract.
func Complementary(a, b Category) bool {
	if a == CategoryNone || b == CategoryNone {
		return false
	}
	return a.Complement() == b || b.Complement() == a
}

// Valid reports whether c is a known, assigned category.
func (c Category) Valid() bool {
	return c > CategoryNone && c < categoryCount
}

// String returns the display name for a Category.
func (c Category) String() string {
	names := CategoryNames()
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// CategoryNames returns the names for all categories.
// The order matches the Category constants.
func CategoryNames() []string {
	return []string{"none", "low", "mid", "high", "rhythmic"}
}

// ParseCategory maps a name to its Category. Unknown names yield CategoryNone.
func ParseCategory(name string) Category {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range CategoryNames() {
		if n == name {
			return Category(i)
		}
	}
	return CategoryNone
}

// AssignableCategories lists every category a host may hand out.
func AssignableCategories() []Category {
	return []Category{CategoryLow, CategoryMid, CategoryHigh, CategoryRhythmic}
}
