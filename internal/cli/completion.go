package cli

import (
	"fmt"
	"io"
	"strings"
)

// completionFlag describes one command-line flag for the completion
// scripts. Flags with a short alias list both spellings.
type completionFlag struct {
	long  string
	short string
	desc  string
	// values are suggested for the flag's argument. "$algorithms" expands
	// to the registered algorithm names plus "all".
	values []string
	// takesArg marks flags with a free-form argument.
	takesArg bool
	file     bool
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

var completionFlags = []completionFlag{
	{long: "help", short: "h", desc: "Show help message"},
	{long: "version", short: "V", desc: "Show version information"},
	{short: "n", desc: "Fibonacci index", takesArg: true},
	{long: "algo", desc: "Algorithm to use", values: []string{"$algorithms"}},
	{long: "digits", desc: "Closed-form precision in digits", values: []string{"0", "50", "100", "1000"}},
	{long: "timeout", desc: "Maximum execution time", values: []string{"1m", "5m", "10m", "30m", "1h"}},
	{long: "threshold", desc: "Parallelism threshold in bits", values: []string{"1024", "2048", "4096", "8192"}},
	{long: "strassen-threshold", desc: "Strassen threshold in bits", values: []string{"1024", "2048", "3072", "4096"}},
	{long: "memo-limit", desc: "Memo table ceiling", values: []string{"0", "10000", "50000"}},
	{long: "max-n", desc: "Largest accepted index", takesArg: true},
	{long: "list", desc: "Print the sequence F(0)..F(n)"},
	{long: "is-fib", desc: "Test a Fibonacci candidate", takesArg: true},
	{long: "repeat", desc: "Benchmark runs per algorithm", values: []string{"3", "5", "10"}},
	{long: "calibrate", desc: "Print the precision calibration table"},
	{long: "json", desc: "Output in JSON format"},
	{short: "v", desc: "Display full result value"},
	{long: "details", short: "d", desc: "Show performance details"},
	{long: "calculate", short: "c", desc: "Display the calculated value"},
	{long: "output", short: "o", desc: "Output file path", file: true},
	{long: "quiet", short: "q", desc: "Quiet mode for scripts"},
	{long: "hex", desc: "Display result in hexadecimal"},
	{long: "no-color", desc: "Disable colored output"},
	{long: "interactive", desc: "Start interactive REPL mode"},
	{long: "completion", desc: "Generate completion script", values: completionShells},
	{long: "metrics", desc: "Print Prometheus metrics on exit"},
	{long: "log-level", desc: "Log level", values: []string{"debug", "info", "warn", "error", "disabled"}},
}

// spellings returns the command-line forms of f, short form first.
func (f completionFlag) spellings() []string {
	var s []string
	if f.short != "" {
		s = append(s, "-"+f.short)
	}
	if f.long != "" {
		s = append(s, "--"+f.long)
	}
	return s
}

func (f completionFlag) expandValues(algorithms []string) []string {
	var out []string
	for _, v := range f.values {
		if v == "$algorithms" {
			out = append(out, algorithms...)
			out = append(out, "all")
			continue
		}
		out = append(out, v)
	}
	return out
}

// GenerateCompletion writes a completion script for shell ("bash", "zsh",
// "fish", "powershell" or "ps") that completes the fibeval flags and the
// given algorithm names.
func GenerateCompletion(out io.Writer, shell string, algorithms []string) error {
	var b strings.Builder
	switch shell {
	case "bash":
		bashCompletion(&b, algorithms)
	case "zsh":
		zshCompletion(&b, algorithms)
	case "fish":
		fishCompletion(&b, algorithms)
	case "powershell", "ps":
		powerShellCompletion(&b, algorithms)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: %s)", shell, strings.Join(completionShells, ", "))
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func bashCompletion(b *strings.Builder, algorithms []string) {
	var opts []string
	for _, f := range completionFlags {
		opts = append(opts, f.spellings()...)
	}

	b.WriteString("# Bash completion script for fibeval\n")
	b.WriteString("# Add this to your ~/.bashrc or ~/.bash_completion\n\n")
	b.WriteString("_fibeval_completions() {\n")
	b.WriteString("    local cur prev\n")
	b.WriteString("    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n\n")
	b.WriteString("    case \"${prev}\" in\n")
	for _, f := range completionFlags {
		switch {
		case f.file:
			fmt.Fprintf(b, "        %s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n",
				strings.Join(f.spellings(), "|"))
		case len(f.values) > 0:
			fmt.Fprintf(b, "        %s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				strings.Join(f.spellings(), "|"), strings.Join(f.expandValues(algorithms), " "))
		}
	}
	b.WriteString("    esac\n\n")
	fmt.Fprintf(b, "    if [[ \"${cur}\" == -* ]]; then\n        COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n    fi\n", strings.Join(opts, " "))
	b.WriteString("}\n\ncomplete -F _fibeval_completions fibeval\n")
}

func zshCompletion(b *strings.Builder, algorithms []string) {
	b.WriteString("#compdef fibeval\n\n")
	b.WriteString("# Zsh completion script for fibeval\n")
	b.WriteString("# Add this to your ~/.zshrc or place it in $fpath\n\n")
	b.WriteString("_fibeval() {\n    _arguments -s")
	for _, f := range completionFlags {
		names := f.spellings()
		var spec string
		if len(names) == 2 {
			spec = fmt.Sprintf("'(%s)'{%s}'[%s]", strings.Join(names, " "), strings.Join(names, ","), f.desc)
		} else {
			spec = fmt.Sprintf("'%s[%s]", names[0], f.desc)
		}
		switch {
		case f.file:
			spec += ":file:_files"
		case len(f.values) > 0:
			spec += fmt.Sprintf(":value:(%s)", strings.Join(f.expandValues(algorithms), " "))
		case f.takesArg:
			spec += ":value:"
		}
		fmt.Fprintf(b, " \\\n        %s'", spec)
	}
	b.WriteString("\n}\n\n_fibeval \"$@\"\n")
}

func fishCompletion(b *strings.Builder, algorithms []string) {
	b.WriteString("# Fish completion script for fibeval\n")
	b.WriteString("# Add this to ~/.config/fish/completions/fibeval.fish\n\n")
	b.WriteString("complete -c fibeval -f\n")
	for _, f := range completionFlags {
		line := "complete -c fibeval"
		if f.short != "" {
			line += " -s " + f.short
		}
		if f.long != "" {
			line += " -l " + f.long
		}
		line += fmt.Sprintf(" -d '%s'", f.desc)
		switch {
		case f.file:
			line += " -rF"
		case len(f.values) > 0:
			line += fmt.Sprintf(" -xa '%s'", strings.Join(f.expandValues(algorithms), " "))
		case f.takesArg:
			line += " -x"
		}
		b.WriteString(line + "\n")
	}
}

func powerShellQuote(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}

func powerShellCompletion(b *strings.Builder, algorithms []string) {
	b.WriteString("# PowerShell completion script for fibeval\n# Add this to your $PROFILE\n\n")
	b.WriteString("Register-ArgumentCompleter -CommandName 'fibeval' -Native -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $options = @(\n")
	for _, f := range completionFlags {
		for _, name := range f.spellings() {
			fmt.Fprintf(b, "        @{Name = '%s'; Description = '%s' }\n", name, f.desc)
		}
	}
	b.WriteString("    )\n\n")
	b.WriteString("    $elements = $commandAst.CommandElements\n")
	b.WriteString("    $prevElement = if ($elements.Count -gt 2) { $elements[-2].ToString() } else { '' }\n\n")
	b.WriteString("    $values = switch ($prevElement) {\n")
	for _, f := range completionFlags {
		if len(f.values) == 0 {
			continue
		}
		for _, name := range f.spellings() {
			fmt.Fprintf(b, "        '%s' { @(%s) }\n", name, powerShellQuote(f.expandValues(algorithms)))
		}
	}
	b.WriteString("    }\n")
	b.WriteString("    if ($values) {\n")
	b.WriteString("        $values | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("        }\n        return\n    }\n\n")
	b.WriteString("    $options | Where-Object { $_.Name -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)\n")
	b.WriteString("    }\n}\n")
}
