// Package build holds version metadata stamped in at link time via
// -ldflags, so a running binary can report what was actually deployed.
package build

import "strings"

var (
	Version = "dev"
	AppName = "lightflow"
	Slug    = ""
)

func init() {
	if Slug == "" {
		Slug = strings.ToLower(AppName)
	}
}
