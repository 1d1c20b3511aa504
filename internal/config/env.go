package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/fibeval/internal/errors"
)

// envBinding ties an environment variable to the flags it stands in for.
// The variable is read only when none of the flags was given explicitly.
type envBinding struct {
	key   string   // without EnvPrefix
	flags []string // flag names, aliases included
	apply func(c *AppConfig, val string) error
}

var envBindings = []envBinding{
	{"N", []string{"n"}, func(c *AppConfig, v string) (err error) { c.N, err = ParseIndex(v); return }},
	{"ALGO", []string{"algo"}, func(c *AppConfig, v string) error { c.Algo = v; return nil }},
	{"DIGITS", []string{"digits"}, intSetter("DIGITS", func(c *AppConfig) *int { return &c.Digits })},
	{"TIMEOUT", []string{"timeout"}, func(c *AppConfig, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envError("TIMEOUT", v)
		}
		c.Timeout = d
		return nil
	}},
	{"THRESHOLD", []string{"threshold"}, intSetter("THRESHOLD", func(c *AppConfig) *int { return &c.Threshold })},
	{"STRASSEN_THRESHOLD", []string{"strassen-threshold"}, intSetter("STRASSEN_THRESHOLD", func(c *AppConfig) *int { return &c.StrassenThreshold })},
	{"MEMO_LIMIT", []string{"memo-limit"}, uintSetter("MEMO_LIMIT", func(c *AppConfig) *uint64 { return &c.MemoLimit })},
	{"MAX_N", []string{"max-n"}, uintSetter("MAX_N", func(c *AppConfig) *uint64 { return &c.MaxN })},
	{"REPEAT", []string{"repeat"}, intSetter("REPEAT", func(c *AppConfig) *int { return &c.Repeat })},
	{"IS_FIB", []string{"is-fib"}, func(c *AppConfig, v string) error { c.IsFib = v; return nil }},
	{"OUTPUT", []string{"output", "o"}, func(c *AppConfig, v string) error { c.OutputFile = v; return nil }},
	{"COMPLETION", []string{"completion"}, func(c *AppConfig, v string) error { c.Completion = v; return nil }},
	{"LOG_LEVEL", []string{"log-level"}, func(c *AppConfig, v string) error { c.LogLevel = v; return nil }},
	{"LIST", []string{"list"}, boolSetter("LIST", func(c *AppConfig) *bool { return &c.List })},
	{"CALIBRATE", []string{"calibrate"}, boolSetter("CALIBRATE", func(c *AppConfig) *bool { return &c.Calibrate })},
	{"JSON", []string{"json"}, boolSetter("JSON", func(c *AppConfig) *bool { return &c.JSONOutput })},
	{"VERBOSE", []string{"v"}, boolSetter("VERBOSE", func(c *AppConfig) *bool { return &c.Verbose })},
	{"DETAILS", []string{"d", "details"}, boolSetter("DETAILS", func(c *AppConfig) *bool { return &c.Details })},
	{"CALCULATE", []string{"c", "calculate"}, boolSetter("CALCULATE", func(c *AppConfig) *bool { return &c.Concise })},
	{"QUIET", []string{"q", "quiet"}, boolSetter("QUIET", func(c *AppConfig) *bool { return &c.Quiet })},
	{"HEX", []string{"hex"}, boolSetter("HEX", func(c *AppConfig) *bool { return &c.HexOutput })},
	{"NO_COLOR", []string{"no-color"}, boolSetter("NO_COLOR", func(c *AppConfig) *bool { return &c.NoColor })},
	{"INTERACTIVE", []string{"interactive"}, boolSetter("INTERACTIVE", func(c *AppConfig) *bool { return &c.Interactive })},
	{"METRICS", []string{"metrics"}, boolSetter("METRICS", func(c *AppConfig) *bool { return &c.Metrics })},
}

// applyEnvOverrides applies FIBEVAL_* variables to the settings whose flags
// were not given. An unparsable value is a ConfigError rather than being
// silently ignored.
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) error {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	for _, b := range envBindings {
		if anySet(set, b.flags) {
			continue
		}
		val, ok := os.LookupEnv(EnvPrefix + b.key)
		if !ok || val == "" {
			continue
		}
		if err := b.apply(config, val); err != nil {
			return err
		}
	}
	return nil
}

func anySet(set map[string]bool, names []string) bool {
	for _, n := range names {
		if set[n] {
			return true
		}
	}
	return false
}

func envError(key, val string) error {
	return apperrors.NewConfigError("invalid value %q for %s%s", val, EnvPrefix, key)
}

func intSetter(key string, field func(*AppConfig) *int) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return envError(key, v)
		}
		*field(c) = parsed
		return nil
	}
}

func uintSetter(key string, field func(*AppConfig) *uint64) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return envError(key, v)
		}
		*field(c) = parsed
		return nil
	}
}

// boolSetter accepts true/1/yes and false/0/no, case-insensitively.
func boolSetter(key string, field func(*AppConfig) *bool) func(*AppConfig, string) error {
	return func(c *AppConfig, v string) error {
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			*field(c) = true
		case "false", "0", "no":
			*field(c) = false
		default:
			return envError(key, v)
		}
		return nil
	}
}
