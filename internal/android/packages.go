// Package android wraps the on-device pm, dumpsys and appops tools.
package android

import (
	"strings"

	"github.com/blackwell-systems/droidops/internal/shell"
)

// DefaultPermissionMarker is the manifest permission looked for in package dumps.
const DefaultPermissionMarker = "REQUEST_INSTALL_PACKAGES"

// Client issues package manager and app-ops commands through a Runner.
type Client struct {
	run shell.Runner
}

// NewClient returns a Client that runs commands with r.
func NewClient(r shell.Runner) *Client {
	return &Client{run: r}
}

// ListPackages returns the installed package names reported by
// `pm list packages`, restricted to third-party packages when thirdParty is
// set. A failed command yields an empty list.
func (c *Client) ListPackages(thirdParty bool) []string {
	args := []string{"list", "packages"}
	if thirdParty {
		args = append(args, "-3")
	}

	res := c.run.Run("pm", args...)
	if !res.OK() {
		return nil
	}
	return ParsePackageList(res.Output())
}

// InstalledPackages lists third-party packages and falls back to the full
// package list when none are reported. fallback tells which one was used.
func (c *Client) InstalledPackages() (pkgs []string, fallback bool) {
	pkgs = c.ListPackages(true)
	if len(pkgs) > 0 {
		return pkgs, false
	}
	return c.ListPackages(false), true
}

// ParsePackageList parses `pm list packages` output. Each line is reduced to
// its second colon-separated field ("package:com.a" -> "com.a"); lines with
// no colon are kept whole. Blank entries are dropped.
//
// Example input:
//
//	package:com.android.chrome
//	package:org.fdroid.fdroid
func ParsePackageList(output string) []string {
	var pkgs []string
	for _, line := range strings.Split(output, "\n") {
		name := strings.TrimSpace(line)
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[i+1:]
			if j := strings.IndexByte(name, ':'); j >= 0 {
				name = name[:j]
			}
			name = strings.TrimSpace(name)
		}
		if name == "" {
			continue
		}
		pkgs = append(pkgs, name)
	}
	return pkgs
}

// DeclaresPermission reports whether pkg's manifest mentions marker. The
// single-package `dumpsys package` output is searched first; `pm dump` is
// only consulted when the first dump has no match. A failed dump counts as
// no match.
func (c *Client) DeclaresPermission(pkg, marker string) bool {
	if res := c.run.Run("dumpsys", "package", pkg); res.OK() && strings.Contains(res.Output(), marker) {
		return true
	}
	if res := c.run.Run("pm", "dump", pkg); res.OK() && strings.Contains(res.Output(), marker) {
		return true
	}
	return false
}
