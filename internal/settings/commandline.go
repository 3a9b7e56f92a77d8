package settings

// Switches reports which command-line switches are present.
type Switches interface {
	HasSwitch(name string) bool
}

// SwitchSet is a Switches backed by a set of switch names.
type SwitchSet map[string]struct{}

// NewSwitchSet returns a SwitchSet containing names.
func NewSwitchSet(names ...string) SwitchSet {
	set := make(SwitchSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// HasSwitch implements Switches.
func (s SwitchSet) HasSwitch(name string) bool {
	_, ok := s[name]
	return ok
}

// UpdateFromCommandLine turns on hide-on-delete and start-minimized when the
// matching switch is present. Switches only ever enable a feature.
func (s *Settings) UpdateFromCommandLine(cl Switches) {
	if cl == nil {
		return
	}

	if cl.HasSwitch(KeyHideOnDelete) {
		s.HideOnDelete = true
	}

	if cl.HasSwitch(KeyStartMinimized) {
		s.StartMinimized = true
	}
}
