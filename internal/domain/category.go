package domain

import "fmt"

// Category names a front type. The value doubles as the variable name in
// both the observation file and the raster file.
type Category string

const (
	ColdFront       Category = "cold_fronts"
	WarmFront       Category = "warm_fronts"
	StationaryFront Category = "stat_fronts"
)

// Categories lists front types in processing order.
var Categories = []Category{ColdFront, WarmFront, StationaryFront}

// MergePriority lists front types from highest to lowest merge precedence.
var MergePriority = []Category{WarmFront, ColdFront, StationaryFront}

// Label returns the short name used in logs and metric labels.
func (c Category) Label() string {
	switch c {
	case ColdFront:
		return "cold"
	case WarmFront:
		return "warm"
	case StationaryFront:
		return "stationary"
	default:
		return string(c)
	}
}

// LongName returns the long_name attribute for the category's front-id variable.
func (c Category) LongName() string {
	return fmt.Sprintf("Index of %s front within time step", c.Label())
}

// ParseCategory maps a variable name or short label to a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if s == string(c) || s == c.Label() {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown front category %q", s)
}
