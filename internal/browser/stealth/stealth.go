package stealth

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Persona defines the browser characteristics to emulate.
type Persona struct {
	UserAgent string
	Platform  string
	Languages []string
	// Timezone is an IANA name. Empty keeps the host timezone.
	Timezone string
	Locale   string
}

// DefaultPersona provides a realistic default browser profile.
var DefaultPersona = Persona{
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	Platform:  "Win32",
	Languages: []string{"en-US", "en"},
	Locale:    "en-US",
}

// EvasionsScript returns the script injected before any page script runs. It
// hides the automation flag and aligns navigator with the persona.
func EvasionsScript(p Persona) string {
	langs, err := jsoniter.MarshalToString(p.Languages)
	if err != nil || len(p.Languages) == 0 {
		langs = `["en-US"]`
	}
	platform, _ := jsoniter.MarshalToString(p.Platform)
	return fmt.Sprintf(`(() => {
  const define = (obj, prop, value) => Object.defineProperty(obj, prop, { get: () => value, configurable: true });
  define(Navigator.prototype, 'webdriver', undefined);
  define(Navigator.prototype, 'languages', Object.freeze(%s));
  if (%s) { define(Navigator.prototype, 'platform', %s); }
})();`, langs, platform, platform)
}

// AcceptLanguage renders languages as an Accept-Language header value with
// decreasing quality factors.
func AcceptLanguage(languages []string) string {
	if len(languages) == 0 {
		return ""
	}
	parts := make([]string, len(languages))
	for i, lang := range languages {
		if i == 0 {
			parts[i] = lang
			continue
		}
		q := 1.0 - 0.1*float64(i)
		if q < 0.1 {
			q = 0.1
		}
		parts[i] = fmt.Sprintf("%s;q=%.1f", lang, q)
	}
	return strings.Join(parts, ",")
}

// Apply constructs a sequence of Chrome DevTools Protocol actions to make the
// headless browser appear more like a standard, user-operated browser.
func Apply(p Persona, logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying browser stealth persona",
		zap.String("userAgent", p.UserAgent),
		zap.String("platform", p.Platform),
	)

	script := EvasionsScript(p)
	tasks := chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}),
	}

	if p.UserAgent != "" {
		override := emulation.SetUserAgentOverride(p.UserAgent)
		if p.Platform != "" {
			override = override.WithPlatform(p.Platform)
		}
		if al := AcceptLanguage(p.Languages); al != "" {
			override = override.WithAcceptLanguage(al)
		}
		tasks = append(tasks, override)
	}
	if p.Timezone != "" {
		tasks = append(tasks, emulation.SetTimezoneOverride(p.Timezone))
	}
	if p.Locale != "" {
		tasks = append(tasks, emulation.SetLocaleOverride().WithLocale(p.Locale))
	}
	if al := AcceptLanguage(p.Languages); al != "" {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": al}))
	}
	return tasks
}
