package model

import "strings"

// categoryUnknownStr is the string representation for unknown category values.
const categoryUnknownStr = "unknown"

// Category groups issues by the area of accessibility they affect.
type Category string

// Issue category constants.
const (
	// CategoryUnknown represents an unrecognized category.
	CategoryUnknown Category = ""
	// CategoryImages covers non-text content such as <img>.
	CategoryImages Category = "images"
	// CategoryForms covers form controls, labels and validation feedback.
	CategoryForms Category = "forms"
	// CategoryNavigation covers heading structure and page outline.
	CategoryNavigation Category = "navigation"
	// CategoryColors covers color contrast.
	CategoryColors Category = "colors"
	// CategoryTypography is reserved for text presentation rules.
	CategoryTypography Category = "typography"
	// CategoryARIA covers accessible names and landmarks.
	CategoryARIA Category = "aria"
	// CategoryKeyboard covers keyboard operability.
	CategoryKeyboard Category = "keyboard"
)

// AllCategories lists every valid category in presentation order.
func AllCategories() []Category {
	return []Category{
		CategoryImages, CategoryForms, CategoryNavigation, CategoryColors,
		CategoryTypography, CategoryARIA, CategoryKeyboard,
	}
}

// String returns the string representation of the Category.
func (c Category) String() string {
	if c == CategoryUnknown {
		return categoryUnknownStr
	}
	return string(c)
}

// IsValid returns true if this is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryImages, CategoryForms, CategoryNavigation, CategoryColors,
		CategoryTypography, CategoryARIA, CategoryKeyboard:
		return true
	default:
		return false
	}
}

// ParseCategory converts a string to Category.
// Unrecognized values yield CategoryUnknown.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "images", "image":
		return CategoryImages
	case "forms", "form":
		return CategoryForms
	case "navigation", "headings":
		return CategoryNavigation
	case "colors", "color", "contrast":
		return CategoryColors
	case "typography":
		return CategoryTypography
	case "aria":
		return CategoryARIA
	case "keyboard":
		return CategoryKeyboard
	default:
		return CategoryUnknown
	}
}
