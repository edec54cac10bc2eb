// Package flagx helps several configuration layers share one command line:
// each layer picks out only the flags it understands.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the subset of args made of allowedFlags and their values.
//
// Both "-flag value" and "-flag=value" forms are recognized. A value is only
// consumed when the next argument does not itself start with '-'.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// StringFlag extracts a single string flag known under any of names
// (without the leading dash). The last occurrence wins; an absent flag
// yields "".
func StringFlag(args []string, names ...string) string {
	var value string

	dashed := make([]string, 0, len(names)*2)
	fs := flag.NewFlagSet("flagx", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
		dashed = append(dashed, "-"+n, "--"+n)
	}
	_ = fs.Parse(FilterArgs(args, dashed))

	return value
}

// ConfigFilePath returns the JSON config path given with -c or -config.
func ConfigFilePath(args []string) string {
	return StringFlag(args, "c", "config")
}

// EnvFilePath returns the dotenv path given with -env.
func EnvFilePath(args []string) string {
	return StringFlag(args, "env")
}
