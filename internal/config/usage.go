package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/agbru/fibeval/internal/ui"
)

// setCustomUsage installs a colored usage function on fs. Each flag line
// also names its environment variable.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		// The theme is not initialized yet when parsing fails.
		t := ui.GetCurrentTheme()
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t = ui.NoColorTheme
		}
		out := fs.Output()

		fmt.Fprintf(out, "\n%sfibeval%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Exact Fibonacci numbers by closed form, matrix power and memoized recurrence.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n\n%sFlags:%s\n", t.Warning, t.Reset, fs.Name(), t.Warning, t.Reset)

		envNames := envNamesByFlag()
		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			sig := "-" + f.Name
			if name != "" {
				sig += " " + name
			}
			fmt.Fprintf(out, "  %s%-25s%s %s", t.Primary, sig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
			}
			if env, ok := envNames[f.Name]; ok {
				fmt.Fprintf(out, " %s[%s]%s", t.Secondary, env, t.Reset)
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintf(out, "\n%sExit codes:%s 0 ok, 1 error, 2 timeout, 3 mismatch, 4 invalid input, 5 resource limit, 130 canceled\n\n",
			t.Warning, t.Reset)
	}
}

// envNamesByFlag maps each flag name, aliases included, to its variable.
func envNamesByFlag() map[string]string {
	m := make(map[string]string, len(envBindings)*2)
	for _, b := range envBindings {
		for _, f := range b.flags {
			m[f] = EnvPrefix + b.key
		}
	}
	return m
}
