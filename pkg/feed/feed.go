package feed

import (
	"fmt"
	"time"
)

type Category string

const (
	World Category = "world"
	US    Category = "us"
	Cyber Category = "cyber"
)

var Categories = []Category{World, US, Cyber}

func ParseCategory(value string) (Category, error) {
	for _, category := range Categories {
		if string(category) == value {
			return category, nil
		}
	}
	return "", fmt.Errorf("invalid category: %q", value)
}

// Source is a headline provider with an ordered list of candidate endpoints: mirrors go first when they are
// more likely to work.
type Source struct {
	Name       string
	Category   Category
	Candidates []string
}

type Method int

const (
	Structured Method = iota
	Fallback
)

func (m Method) String() string {
	switch m {
	case Structured:
		return "structured"
	case Fallback:
		return "fallback"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

const UntitledPlaceholder = "(untitled)"

type Article struct {
	Title     string
	Link      string
	Source    string
	Category  Category
	Published time.Time
	Method    Method
}
