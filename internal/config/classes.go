package config

import (
	"fmt"
	"strings"

	"github.com/DiFronzo/CatWatchBot2.0/internal/common"
	"github.com/DiFronzo/CatWatchBot2.0/internal/model"
)

// Classes is an immutable, validated table of category classes.
// The zero value is an empty table.
type Classes struct {
	byName     map[string]int
	byCategory map[string]string
	list       []model.CategoryClass
}

// NewClasses validates the given classes and returns an immutable table.
// Class order is preserved.
func NewClasses(list []model.CategoryClass) (Classes, error) {
	c := Classes{
		list:       make([]model.CategoryClass, 0, len(list)),
		byName:     make(map[string]int, len(list)),
		byCategory: make(map[string]string),
	}

	for i, cls := range list {
		name := strings.TrimSpace(cls.Name)
		if name == "" {
			return Classes{}, fmt.Errorf("%w: class at index %d has no name", common.ErrInvalidConfig, i)
		}
		if _, dup := c.byName[name]; dup {
			return Classes{}, fmt.Errorf("%w: duplicate class %q", common.ErrInvalidConfig, name)
		}
		if len(cls.Categories) == 0 {
			return Classes{}, fmt.Errorf("%w: class %q has no categories", common.ErrInvalidConfig, name)
		}
		if len(cls.Markers) == 0 {
			return Classes{}, fmt.Errorf("%w: class %q has no markers", common.ErrInvalidConfig, name)
		}
		for _, cat := range cls.Categories {
			if owner, taken := c.byCategory[cat]; taken {
				return Classes{}, fmt.Errorf("%w: category %q belongs to both %q and %q",
					common.ErrInvalidConfig, cat, owner, name)
			}
			c.byCategory[cat] = name
		}

		c.byName[name] = len(c.list)
		c.list = append(c.list, model.CategoryClass{
			Name:       name,
			Categories: append([]string(nil), cls.Categories...),
			Markers:    append([]string(nil), cls.Markers...),
		})
	}

	return c, nil
}

// MustClasses is NewClasses for static tables; it panics on invalid input.
func MustClasses(list []model.CategoryClass) Classes {
	c, err := NewClasses(list)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns a copy of the classes in configuration order.
func (c Classes) All() []model.CategoryClass {
	out := make([]model.CategoryClass, len(c.list))
	for i, cls := range c.list {
		out[i] = model.CategoryClass{
			Name:       cls.Name,
			Categories: append([]string(nil), cls.Categories...),
			Markers:    append([]string(nil), cls.Markers...),
		}
	}
	return out
}

// Names returns the class names in configuration order.
func (c Classes) Names() []string {
	names := make([]string, len(c.list))
	for i, cls := range c.list {
		names[i] = cls.Name
	}
	return names
}

// Lookup returns the class with the given name.
func (c Classes) Lookup(name string) (model.CategoryClass, bool) {
	i, ok := c.byName[name]
	if !ok {
		return model.CategoryClass{}, false
	}
	return c.All()[i], true
}

// ClassOf returns the name of the class owning category.
func (c Classes) ClassOf(category string) (string, bool) {
	name, ok := c.byCategory[category]
	return name, ok
}

// Len returns the number of classes.
func (c Classes) Len() int {
	return len(c.list)
}

// DefaultClasses returns the maintenance classes tracked on Norwegian
// (Bokmål) Wikipedia.
func DefaultClasses() []model.CategoryClass {
	return []model.CategoryClass{
		{
			Name:       "opprydning",
			Categories: []string{"Opprydning-statistikk", "Viktig opprydning"},
			Markers:    []string{"opprydning", "opprydningfordi", "opprydding", "viktig opprydning", "opprydning-viktig"},
		},
		{
			Name:       "oppdatering",
			Categories: []string{"Trenger oppdatering"},
			Markers:    []string{"trenger oppdatering", "best før"},
		},
		{
			Name:       "interwiki",
			Categories: []string{"Mangler interwiki"},
			Markers:    []string{"mangler interwiki"},
		},
		{
			Name:       "flytting",
			Categories: []string{"Artikler som bør flyttes"},
			Markers:    []string{"flytting", "flytt"},
		},
		{
			Name:       "fletting",
			Categories: []string{"Artikler som bør flettes"},
			Markers:    []string{"fletting", "flett fra", "flett-fra", "flett til", "flett-til", "flett"},
		},
		{
			Name:       "språkvask",
			Categories: []string{"Artikler som trenger språkvask"},
			Markers:    []string{"språkvask", "dårlig språk", "språkrøkt"},
		},
		{
			Name:       "kilder",
			Categories: []string{"Artikler uten referanser", "Artikler som trenger referanser", "Artikler uten kilder"},
			Markers:    []string{"referanseløs", "trenger referanse", "tr", "referanse", "citation needed", "cn", "fact", "kildeløs", "refforbedreavsnitt"},
		},
		{
			Name:       "ukategorisert",
			Categories: []string{"Ukategorisert"},
			Markers:    []string{"ukategorisert", "mangler kategori", "ukat"},
		},
	}
}
