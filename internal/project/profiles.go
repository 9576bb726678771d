package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/piwi3910/SlabNest/internal/model"
)

// ErrUnknownProfile is returned when a profile name matches nothing.
var ErrUnknownProfile = errors.New("unknown profile")

// Profile is a named solver configuration.
type Profile struct {
	Name      string       `json:"name" yaml:"name"`
	Config    model.Config `json:"config" yaml:"config"`
	IsBuiltIn bool         `json:"-" yaml:"-"`
}

// BuiltInProfiles returns the profiles shipped with the tool: fast trades
// density for speed, thorough spends more samples and runs the genetic
// ordering.
func BuiltInProfiles() []Profile {
	balanced := model.DefaultConfig()

	fast := model.DefaultConfig()
	fast.NSamplesPerItem = 500
	fast.CDE.QuadTree.MaxDepth = 3
	fast.CDE.HazProx.Enabled = false

	thorough := model.DefaultConfig()
	thorough.NSamplesPerItem = 20000
	thorough.CDE.QuadTree.MaxDepth = 5
	thorough.Algorithm = model.AlgorithmGenetic
	thorough.Sampler = model.SamplerProximity
	thorough.CDE.HazProx.Enabled = true

	return []Profile{
		{Name: "fast", Config: fast, IsBuiltIn: true},
		{Name: "balanced", Config: balanced, IsBuiltIn: true},
		{Name: "thorough", Config: thorough, IsBuiltIn: true},
	}
}

// DefaultProfilesPath returns the default file for custom profiles.
func DefaultProfilesPath() string {
	return filepath.Join(DefaultConfigDir(), "profiles.yaml")
}

// SaveProfiles writes custom profiles to path. Built-in profiles are skipped.
func SaveProfiles(path string, profiles []Profile) error {
	custom := slices.DeleteFunc(slices.Clone(profiles), func(p Profile) bool { return p.IsBuiltIn })
	for _, p := range custom {
		if p.Name == "" {
			return errors.New("profile has no name")
		}
		if err := p.Config.Validate(); err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	return writeFile(path, custom)
}

// LoadProfiles reads custom profiles from path. A missing file yields an
// empty list.
func LoadProfiles(path string) ([]Profile, error) {
	var profiles []Profile
	if _, err := readFile(path, &profiles); err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.Name == "" {
			return nil, errors.New("profile has no name")
		}
		if err := p.Config.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// FindProfile looks name up among the custom profiles first, then the
// built-in ones.
func FindProfile(name string, custom []Profile) (Profile, error) {
	for _, list := range [][]Profile{custom, BuiltInProfiles()} {
		for _, p := range list {
			if p.Name == name {
				return p, nil
			}
		}
	}
	return Profile{}, fmt.Errorf("%q: %w", name, ErrUnknownProfile)
}
