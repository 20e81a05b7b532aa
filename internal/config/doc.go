// Package config loads and validates the TOML application configuration,
// applies defaults, and expands filesystem paths. The project root lives
// here as an explicit value so history relativization never depends on
// ambient process state.
package config
