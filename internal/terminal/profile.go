// Package terminal defines named terminal capability presets. A profile
// drives pagination geometry and whether screens emit ANSI color.
package terminal

import "fmt"

// Profile describes the client terminal a session renders for.
type Profile struct {
	Name   string
	Width  int
	Height int
	Ansi   bool
}

// DefaultProfileName is used when neither config nor the user picked one.
const DefaultProfileName = "ansi-80x24"

var profiles = map[string]Profile{
	"ansi-80x24":  {Name: "ansi-80x24", Width: 80, Height: 24, Ansi: true},
	"ansi-132x43": {Name: "ansi-132x43", Width: 132, Height: 43, Ansi: true},
	"plain-80x24": {Name: "plain-80x24", Width: 80, Height: 24, Ansi: false},
	"plain-40x25": {Name: "plain-40x25", Width: 40, Height: 25, Ansi: false},
	"petscii-40x25": {
		Name: "petscii-40x25", Width: 40, Height: 25, Ansi: false,
	},
}

// Lookup returns the named profile.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown terminal profile %q", name)
	}
	return p, nil
}

// LookupOrDefault returns the named profile, falling back to the default
// when the name is empty or unknown. User records may reference profiles
// that no longer exist; sessions must still come up.
func LookupOrDefault(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles[DefaultProfileName]
	return p
}

// Names lists the available profile names in stable order for the
// profile screen.
func Names() []string {
	return []string{"ansi-80x24", "ansi-132x43", "plain-80x24", "plain-40x25", "petscii-40x25"}
}

// PageSize returns how many list rows fit for the given window height,
// clamped to a sane minimum. height 0 (no NAWS) yields the default of 10.
func PageSize(height int) int {
	if height <= 0 {
		return 10
	}
	n := height - 6 // header, separator, prompt and breathing room
	if n < 5 {
		return 5
	}
	return n
}
