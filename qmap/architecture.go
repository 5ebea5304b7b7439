package qmap

import "slices"

// Architecture is a Height x Width grid of physical sites. Site ids are
// row-major: site s sits at column s % Width, row s / Width.
//
// AlgQubits are the sites that may hold logical qubits; MagicStates are the
// sites reserved for resource ("magic state") operations. The two sets are
// disjoint. Treat an Architecture as read-only once constructed.
type Architecture struct {
	Height      int   `json:"height" yaml:"height"`
	Width       int   `json:"width" yaml:"width"`
	AlgQubits   []int `json:"alg_qubits" yaml:"alg_qubits"`
	MagicStates []int `json:"magic_states" yaml:"magic_states"`
}

// NewArchitecture validates and returns an Architecture. The site slices are
// copied, so later changes to the arguments do not leak into the result.
func NewArchitecture(height, width int, algQubits, magicStates []int) (Architecture, error) {
	a := Architecture{
		Height:      height,
		Width:       width,
		AlgQubits:   slices.Clone(algQubits),
		MagicStates: slices.Clone(magicStates),
	}
	if a.AlgQubits == nil {
		a.AlgQubits = []int{}
	}
	if a.MagicStates == nil {
		a.MagicStates = []int{}
	}
	if err := a.Validate(); err != nil {
		return Architecture{}, err
	}
	return a, nil
}

// Validate checks the grid extents and the site sets.
func (a Architecture) Validate() error {
	if a.Height <= 0 {
		return malformed("arch.height", "must be positive, got %d", a.Height)
	}
	if a.Width <= 0 {
		return malformed("arch.width", "must be positive, got %d", a.Width)
	}
	seen := make(map[int]string, len(a.AlgQubits)+len(a.MagicStates))
	check := func(field string, sites []int) error {
		for i, s := range sites {
			if s < 0 || s >= a.Size() {
				return malformed(field, "site %d at index %d outside [0, %d)", s, i, a.Size())
			}
			if prev, dup := seen[s]; dup {
				return malformed(field, "site %d at index %d already listed in %s", s, i, prev)
			}
			seen[s] = field
		}
		return nil
	}
	if err := check("arch.alg_qubits", a.AlgQubits); err != nil {
		return err
	}
	return check("arch.magic_states", a.MagicStates)
}

// Size returns the number of sites on the grid.
func (a Architecture) Size() int {
	return a.Height * a.Width
}

// Coord returns the (column, row) grid coordinate of site s.
func (a Architecture) Coord(s int) (x, y int) {
	return s % a.Width, s / a.Width
}

// Site returns the site id at column x, row y.
func (a Architecture) Site(x, y int) int {
	return y*a.Width + x
}

// InBounds reports whether (x, y) lies on the grid.
func (a Architecture) InBounds(x, y int) bool {
	return x >= 0 && x < a.Width && y >= 0 && y < a.Height
}

// IsAlgSite reports whether s is an algorithmic site.
func (a Architecture) IsAlgSite(s int) bool {
	return slices.Contains(a.AlgQubits, s)
}

// IsMagicState reports whether s is a magic-state site.
func (a Architecture) IsMagicState(s int) bool {
	return slices.Contains(a.MagicStates, s)
}

// Clone returns a deep copy.
func (a Architecture) Clone() Architecture {
	return Architecture{
		Height:      a.Height,
		Width:       a.Width,
		AlgQubits:   slices.Clone(a.AlgQubits),
		MagicStates: slices.Clone(a.MagicStates),
	}
}
