package platform

import "strings"

// CommandLine assembles Steam launch options. Environment variables and
// wrapper commands go before %command%, parameters after it.
type CommandLine struct {
	env    []string
	pre    []string
	params []string
}

// AddEnv adds NAME=value; the name is upper-cased.
func (c *CommandLine) AddEnv(name, value string) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return
	}
	c.env = append(c.env, name+"="+value)
}

// AddPreParameter adds a wrapper such as gamemoderun.
func (c *CommandLine) AddPreParameter(p string) {
	if p = strings.TrimSpace(p); p != "" {
		c.pre = append(c.pre, p)
	}
}

// AddParameter adds an argument passed to the game.
func (c *CommandLine) AddParameter(p string) {
	if p = strings.TrimSpace(p); p != "" {
		c.params = append(c.params, p)
	}
}

// AddPathParameter adds a single-quoted path argument.
func (c *CommandLine) AddPathParameter(p string) {
	if p = strings.TrimSpace(p); p != "" {
		c.params = append(c.params, "'"+p+"'")
	}
}

// LaunchOptions renders the options string. Without env or wrappers only the
// parameters are returned.
func (c CommandLine) LaunchOptions() string {
	params := strings.Join(c.params, " ")
	if len(c.env) == 0 && len(c.pre) == 0 {
		return params
	}
	parts := append(append(append([]string{}, c.env...), c.pre...), "%command%")
	if params != "" {
		parts = append(parts, params)
	}
	return strings.Join(parts, " ")
}
