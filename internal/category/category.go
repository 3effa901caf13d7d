package category

import (
	"strings"
	"unicode"
)

// Total is the budget sentinel meaning "all categories".
const Total = "total"

const (
	Food          = "food"
	Transport     = "transport"
	Entertainment = "entertainment"
	Shopping      = "shopping"
	Bills         = "bills"
	Healthcare    = "healthcare"
	Education     = "education"
	Other         = "other"
)

// Category is one entry of the fixed expense catalog.
type Category struct {
	Name        string
	DisplayName string
	Description string
}

var catalog = []Category{
	{Name: Food, DisplayName: "🍕 Food & Dining", Description: "groceries, restaurants and delivery"},
	{Name: Transport, DisplayName: "🚗 Transportation", Description: "fuel, transit and ride hailing"},
	{Name: Entertainment, DisplayName: "🎬 Entertainment", Description: "movies, events and subscriptions"},
	{Name: Shopping, DisplayName: "🛒 Shopping", Description: "clothing, electronics and household goods"},
	{Name: Bills, DisplayName: "📄 Bills & Utilities", Description: "rent, power, water and internet"},
	{Name: Healthcare, DisplayName: "🏥 Healthcare", Description: "medicine, insurance and visits"},
	{Name: Education, DisplayName: "📚 Education", Description: "courses, books and tuition"},
	{Name: Other, DisplayName: "🔧 Other", Description: "everything else"},
}

const totalDisplayName = "💰 Total Budget"

// All returns the expense categories in catalog order.
func All() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}

// Names returns the expense category names in catalog order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, c := range catalog {
		names[i] = c.Name
	}
	return names
}

// Normalize lowercases and trims a category name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsValid reports whether name is an expense category. The total sentinel is not one.
func IsValid(name string) bool {
	for _, c := range catalog {
		if c.Name == name {
			return true
		}
	}
	return false
}

// IsValidForBudget accepts every expense category plus the total sentinel.
func IsValidForBudget(name string) bool {
	return name == Total || IsValid(name)
}

// BudgetNames lists the values a budget category may take.
func BudgetNames() []string {
	return append(Names(), Total)
}

func DisplayName(name string) string {
	if name == Total {
		return totalDisplayName
	}
	for _, c := range catalog {
		if c.Name == name {
			return c.DisplayName
		}
	}
	return titleCase(name)
}

func titleCase(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if upper {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
			upper = false
			continue
		}
		b.WriteRune(r)
		upper = true
	}
	return b.String()
}

// Essential and discretionary groups used by the 50/30/20 check.
var (
	Needs = []string{Food, Transport, Bills, Healthcare}
	Wants = []string{Entertainment, Shopping}
)

func (c Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		Name:        c.Name,
		DisplayName: c.DisplayName,
		Description: c.Description,
	}
}
