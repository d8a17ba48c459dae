// Package version carries the build identity stamped in via -ldflags.
package version

import "fmt"

const Name = "logview"

var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// String renders "logview dev (abc123) 2026-01-02" with the optional
// parts present only when stamped.
func String() string {
	s := Name + " " + Version
	if Commit != "" {
		s += fmt.Sprintf(" (%s)", Commit)
	}
	if Date != "" {
		s += " " + Date
	}
	return s
}
