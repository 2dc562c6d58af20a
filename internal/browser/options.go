// internal/browser/options.go
package browser

import (
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/scout-cli/internal/config"
)

// flag is a single Chrome command line switch.
type flag struct {
	name  string
	value interface{}
}

// allocatorFlags lists every switch applied on top of chromedp's defaults.
// Later entries win when a name repeats.
func allocatorFlags(cfg config.BrowserConfig) []flag {
	flags := []flag{
		// Required on hardened hosts and inside containers.
		{"no-sandbox", true},
		{"disable-dev-shm-usage", true},
		// Hide the automation fingerprint from the pages we visit.
		{"disable-blink-features", "AutomationControlled"},
		{"enable-automation", false},
	}

	if !cfg.Headless {
		flags = append(flags, flag{"headless", false})
	}
	if cfg.DisableGPU {
		flags = append(flags, flag{"disable-gpu", true})
	}

	for _, arg := range cfg.Args {
		// chromedp adds the leading dashes itself.
		arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
		if arg == "" {
			continue
		}
		if key, value, ok := strings.Cut(arg, "="); ok {
			flags = append(flags, flag{key, value})
			continue
		}
		flags = append(flags, flag{arg, true})
	}
	return flags
}

// DefaultAllocatorOptions builds the exec allocator options for a browser
// configuration.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, f := range allocatorFlags(cfg) {
		opts = append(opts, chromedp.Flag(f.name, f.value))
	}
	return opts
}
