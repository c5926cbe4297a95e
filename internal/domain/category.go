// Package domain contains the core business entities and interfaces.
package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownCategory indicates an activity identifier outside the fixed set.
var ErrUnknownCategory = errors.New("unknown activity category")

// Category identifies one kind of trackable activity.
type Category string

// The closed set of activity categories.
const (
	Walk      Category = "walk"
	Transit   Category = "transit"
	Car       Category = "car"
	HomeFood  Category = "home_food"
	StoreFood Category = "store_food"
	Fastfood  Category = "fastfood"
	Energy    Category = "energy"
	Recycling Category = "recycling"
	Shopping  Category = "shopping"
)

const categoryCount = 9

var categories = [categoryCount]Category{
	Walk, Transit, Car, HomeFood, StoreFood, Fastfood, Energy, Recycling, Shopping,
}

type categoryInfo struct {
	factor float64
	label  string
	icon   string
}

// Impact factors are kg CO2 per unit; recycling offsets.
var categoryTable = [categoryCount]categoryInfo{
	{factor: 0, label: "Walking", icon: "🚶"},
	{factor: 0.05, label: "Public transport", icon: "🚌"},
	{factor: 0.2, label: "Car", icon: "🚗"},
	{factor: 0.5, label: "Home-cooked food", icon: "🏠"},
	{factor: 1.5, label: "Store-bought food", icon: "🛍️"},
	{factor: 3, label: "Fast food", icon: "🍔"},
	{factor: 0.1, label: "Energy", icon: "⚡"},
	{factor: -0.3, label: "Recycling", icon: "♻️"},
	{factor: 2, label: "Shopping", icon: "🛒"},
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, categoryCount)
	copy(out, categories[:])
	return out
}

// ParseCategory validates an activity identifier.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := c.index(); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

func (c Category) index() (int, bool) {
	switch c {
	case Walk:
		return 0, true
	case Transit:
		return 1, true
	case Car:
		return 2, true
	case HomeFood:
		return 3, true
	case StoreFood:
		return 4, true
	case Fastfood:
		return 5, true
	case Energy:
		return 6, true
	case Recycling:
		return 7, true
	case Shopping:
		return 8, true
	}
	return -1, false
}

// Valid reports whether c belongs to the fixed category set.
func (c Category) Valid() bool {
	_, ok := c.index()
	return ok
}

// ImpactFactor returns the kg CO2 per unit for c, or 0 for an unknown category.
func (c Category) ImpactFactor() float64 {
	i, ok := c.index()
	if !ok {
		return 0
	}
	return categoryTable[i].factor
}

// Label returns the human readable name of c.
func (c Category) Label() string {
	i, ok := c.index()
	if !ok {
		return string(c)
	}
	return categoryTable[i].label
}

// Icon returns the display glyph for c.
func (c Category) Icon() string {
	i, ok := c.index()
	if !ok {
		return ""
	}
	return categoryTable[i].icon
}

func (c Category) String() string { return string(c) }
