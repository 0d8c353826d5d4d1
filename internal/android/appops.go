package android

import (
	"strings"
)

// Operation modes accepted by `appops set`.
const (
	ModeAllow = "allow"
	ModeDeny  = "deny"
)

// GetAppOp returns the raw `appops get <pkg> <op>` output.
func (c *Client) GetAppOp(pkg, op string) (string, error) {
	args := []string{"get", pkg, op}
	res := c.run.Run("appops", args...)
	if err := res.Error("appops", args...); err != nil {
		return "", err
	}
	return res.Output(), nil
}

// SetAppOp runs `appops set <pkg> <op> <mode>`. Only the exit status matters.
func (c *Client) SetAppOp(pkg, op, mode string) error {
	args := []string{"set", pkg, op, mode}
	return c.run.Run("appops", args...).Error("appops", args...)
}

// Allows reports whether appops output grants the operation. The match is a
// case-insensitive substring search for "allow".
func Allows(output string) bool {
	return strings.Contains(strings.ToLower(output), ModeAllow)
}
