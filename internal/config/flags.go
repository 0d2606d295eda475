package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/modelfetch/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-e string   base URL of the backend download API (default from Config)
//	-i int      poll interval in seconds (default from Config)
//	-t int      poll timeout in minutes (default from Config)
//	-d string   comma-separated trusted domain list (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-e", "-i", "-t", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Endpoint, "e", cfg.Endpoint, "base URL of the backend download API")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Seconds()), "poll interval (in seconds)")
	pollTimeout := fs.Int("t", int(cfg.PollTimeout.Minutes()), "poll timeout (in minutes)")
	domains := fs.String("d", "", "comma-separated trusted domain list")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
	cfg.PollTimeout = time.Duration(*pollTimeout) * time.Minute

	if *domains != "" {
		parts := strings.Split(*domains, ",")
		list := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				list = append(list, p)
			}
		}
		cfg.TrustedDomains = list
	}
}
