package pizza

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultMenu(t *testing.T) {
	m := DefaultMenu()
	if len(m.Pizzas) != 6 {
		t.Fatalf("menu has %d pizzas", len(m.Pizzas))
	}
	if m.Pizzas[0].Label() != "$6" {
		t.Errorf("label = %q", m.Pizzas[0].Label())
	}

	var soldOut []string
	for _, p := range m.Pizzas {
		if p.SoldOut {
			soldOut = append(soldOut, p.Name)
			if p.Label() != "SOLD OUT" {
				t.Errorf("%s label = %q", p.Name, p.Label())
			}
		}
	}
	if diff := cmp.Diff([]string{"Pizza Salamino"}, soldOut); diff != "" {
		t.Errorf("sold out mismatch (-want +got):\n%s", diff)
	}
	if len(m.Available()) != 5 {
		t.Errorf("available = %d", len(m.Available()))
	}
}

func TestOpeningHours(t *testing.T) {
	m := DefaultMenu()
	at := func(h, min int) time.Time { return time.Date(2027, 6, 21, h, min, 0, 0, time.UTC) }

	tests := []struct {
		t    time.Time
		open bool
	}{
		{at(9, 59), false},
		{at(10, 0), true},
		{at(22, 59), true},
		{at(23, 0), false},
	}
	for _, tc := range tests {
		if got := m.IsOpen(tc.t); got != tc.open {
			t.Errorf("IsOpen(%s) = %v", tc.t.Format(time.Kitchen), got)
		}
	}
	if got := m.Footer(at(12, 0)); got != "We're open from 10:00 to 22:00. Come visit us or order online." {
		t.Errorf("open footer = %q", got)
	}
	if got := m.Footer(at(8, 0)); got != "We're happy to welcome you between 10:00 and 22:00." {
		t.Errorf("closed footer = %q", got)
	}
}

func TestLoadMenuRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"unknown field": "open_hour: 10\nclose_hour: 22\nwine: true\n",
		"bad hours":     "open_hour: 22\nclose_hour: 10\n",
		"free pizza":    "open_hour: 10\nclose_hour: 22\npizzas:\n  - name: Free\n    price: 0\n",
		"not yaml":      "[",
	}
	for name, in := range tests {
		if _, err := LoadMenu(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
