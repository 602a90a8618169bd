package config

import (
	"flag"
	"os"
	"strings"
	"time"
)

var ownFlags = []string{"-d", "-dsn", "-l", "-w", "-s", "-t"}

// parseFlags populates Config fields from command-line flags. Only the flags
// listed in ownFlags are looked at; everything else in os.Args is ignored so
// other consumers of the command line are not disturbed. Panics on invalid
// values.
func parseFlags(cfg *Config) {
	args := filterArgs(os.Args[1:], ownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDriver, "d", cfg.DatabaseDriver, "database driver (sqlite or pgx)")
	fs.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "database data source name")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.IntVar(&cfg.MatchWorkers, "w", cfg.MatchWorkers, "number of concurrent match workers")
	fs.Float64Var(&cfg.MinScore, "s", cfg.MinScore, "minimum score for reported matches")
	matchTimeout := fs.Int("t", int(cfg.MatchTimeout.Seconds()), "match timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.MatchTimeout = time.Duration(*matchTimeout) * time.Second
}

// jsonConfigFlags returns the config file path given with -c or -config, or
// an empty string.
func jsonConfigFlags() string {
	var config string

	args := filterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "path to config file")
	fs.StringVar(&config, "c", "", "path to config file (short)")
	_ = fs.Parse(args)

	return config
}

// filterArgs keeps only the allowed flags and their values. Both "-f value"
// and "-f=value" forms are recognised; a following argument that starts with
// "-" is never taken as a value.
func filterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
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
