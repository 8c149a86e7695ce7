package model

import (
	"sort"
	"strings"
)

// PCBLayer is one copper or dielectric layer of the board stackup. Height is
// the layer thickness in mils.
type PCBLayer struct {
	Name               string  `json:"name" mapstructure:"name"`
	Number             int     `json:"layer_number" mapstructure:"layer_number"`
	Height             float64 `json:"height" mapstructure:"height"`
	Material           string  `json:"material" mapstructure:"material"`
	DielectricConstant float64 `json:"dielectric_constant" mapstructure:"dielectric_constant"`
}

// IsCopper reports whether the layer is a conductor rather than a dielectric.
func (l PCBLayer) IsCopper() bool {
	return strings.EqualFold(strings.TrimSpace(l.Material), "copper")
}

// Stackup is an ordered set of layers, sorted by layer number.
type Stackup struct {
	layers []PCBLayer
	index  map[int]int
}

// NewStackup copies and sorts the given layers. A later layer with the same
// number replaces an earlier one.
func NewStackup(layers []PCBLayer) *Stackup {
	byNumber := make(map[int]PCBLayer, len(layers))
	for _, l := range layers {
		byNumber[l.Number] = l
	}
	sorted := make([]PCBLayer, 0, len(byNumber))
	for _, l := range byNumber {
		sorted = append(sorted, l)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	index := make(map[int]int, len(sorted))
	for i, l := range sorted {
		index[l.Number] = i
	}
	return &Stackup{layers: sorted, index: index}
}

// DefaultStackup is a 7-layer FR4 board: outer copper, three dielectrics and
// two inner planes.
func DefaultStackup() *Stackup {
	return NewStackup([]PCBLayer{
		{Name: "Top", Number: 1, Height: 6.0, Material: "copper", DielectricConstant: 4.2},
		{Name: "Dielectric1", Number: 2, Height: 10.0, Material: "FR4", DielectricConstant: 4.5},
		{Name: "GND", Number: 3, Height: 1.4, Material: "copper", DielectricConstant: 1.0},
		{Name: "Dielectric2", Number: 4, Height: 10.0, Material: "FR4", DielectricConstant: 4.5},
		{Name: "Power", Number: 5, Height: 1.4, Material: "copper", DielectricConstant: 1.0},
		{Name: "Dielectric3", Number: 6, Height: 10.0, Material: "FR4", DielectricConstant: 4.5},
		{Name: "Bottom", Number: 7, Height: 6.0, Material: "copper", DielectricConstant: 4.2},
	})
}

// Layers returns the layers in order.
func (s *Stackup) Layers() []PCBLayer {
	if s == nil {
		return nil
	}
	out := make([]PCBLayer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Len is the number of layers.
func (s *Stackup) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Layer looks up a layer by number.
func (s *Stackup) Layer(number int) (PCBLayer, bool) {
	if s == nil {
		return PCBLayer{}, false
	}
	i, ok := s.index[number]
	if !ok {
		return PCBLayer{}, false
	}
	return s.layers[i], true
}

// IsOuter reports whether a copper layer number is the top or bottom of the
// stackup. Numbers outside the stackup range count as outer.
func (s *Stackup) IsOuter(number int) bool {
	if s.Len() == 0 {
		return true
	}
	return number <= s.layers[0].Number || number >= s.layers[len(s.layers)-1].Number
}

// Dielectric returns the layer that insulates a trace on the given layer from
// its reference plane. A dielectric layer is its own reference; a copper
// layer uses its neighbour toward the interior of the board.
func (s *Stackup) Dielectric(number int) (PCBLayer, bool) {
	if s.Len() == 0 {
		return PCBLayer{}, false
	}
	i, ok := s.index[number]
	if !ok {
		switch {
		case number <= s.layers[0].Number:
			i = 0
		case number >= s.layers[len(s.layers)-1].Number:
			i = len(s.layers) - 1
		default:
			return PCBLayer{}, false
		}
	}
	l := s.layers[i]
	if !l.IsCopper() {
		return l, true
	}
	next := i + 1
	if i == len(s.layers)-1 {
		next = i - 1
	}
	if next < 0 || next >= len(s.layers) {
		return l, true
	}
	return s.layers[next], true
}
