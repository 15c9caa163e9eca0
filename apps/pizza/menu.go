// Package pizza serves a restaurant menu loaded from YAML and tells whether
// the restaurant is open.
package pizza

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/validation"
)

//go:embed menu.yaml
var defaultMenu []byte

type Pizza struct {
	Name        string  `yaml:"name" json:"name" validate:"required"`
	Ingredients string  `yaml:"ingredients" json:"ingredients"`
	Price       float64 `yaml:"price" json:"price" validate:"gt=0"`
	Photo       string  `yaml:"photo" json:"photo"`
	SoldOut     bool    `yaml:"sold_out" json:"soldOut"`
}

// Label is the price, or "SOLD OUT".
func (p Pizza) Label() string {
	if p.SoldOut {
		return "SOLD OUT"
	}
	return fmt.Sprintf("$%g", p.Price)
}

// Menu is the restaurant's offer and opening hours. The restaurant is open
// from OpenHour through the whole of CloseHour.
type Menu struct {
	OpenHour  int     `yaml:"open_hour" json:"openHour" validate:"min=0,max=23"`
	CloseHour int     `yaml:"close_hour" json:"closeHour" validate:"min=0,max=23,gtefield=OpenHour"`
	Pizzas    []Pizza `yaml:"pizzas" json:"pizzas" validate:"dive"`
}

// LoadMenu decodes and validates a YAML menu.
func LoadMenu(r io.Reader) (*Menu, error) {
	var m Menu
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, errors.InvalidInput("menu", err.Error())
	}
	if err := validation.Validate(m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DefaultMenu returns the built-in menu.
func DefaultMenu() *Menu {
	m, err := LoadMenu(bytes.NewReader(defaultMenu))
	if err != nil {
		panic(fmt.Sprintf("pizza: built-in menu: %v", err))
	}
	return m
}

// Available lists pizzas that are not sold out.
func (m *Menu) Available() []Pizza {
	out := make([]Pizza, 0, len(m.Pizzas))
	for _, p := range m.Pizzas {
		if !p.SoldOut {
			out = append(out, p)
		}
	}
	return out
}

// IsOpen reports whether t's hour is within opening hours.
func (m *Menu) IsOpen(t time.Time) bool {
	h := t.Hour()
	return h >= m.OpenHour && h <= m.CloseHour
}

// Footer is the opening-hours line for t.
func (m *Menu) Footer(t time.Time) string {
	if m.IsOpen(t) {
		return fmt.Sprintf("We're open from %d:00 to %d:00. Come visit us or order online.", m.OpenHour, m.CloseHour)
	}
	return fmt.Sprintf("We're happy to welcome you between %d:00 and %d:00.", m.OpenHour, m.CloseHour)
}
