// Package config resolves the engine's effective configuration from
// fixed defaults and host-supplied overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/decktrace/decktrace/internal/util/logger"
)

// ErrMissingEndpoint is returned when no collection endpoint is
// configured. It is fatal: the engine does not register any sources.
var ErrMissingEndpoint = errors.New("config: no collection endpoint configured")

// IdentityMode describes how far the identity collaborator is configured.
type IdentityMode int

const (
	// IdentityDisabled means no issue endpoint: sessions are always anonymous.
	IdentityDisabled IdentityMode = iota
	// IdentityUnverified means tokens can be issued but not validated.
	IdentityUnverified
	// IdentityFull means tokens are both issued and validated.
	IdentityFull
)

// Config is the immutable effective configuration, produced once by
// Resolve at engine start-up.
type Config struct {
	CollectionEndpoint string

	Identity      IdentityEndpoints
	ConsentBanner Banner
	DwellTimes    DwellTimes
	Links         Links
	Media         Media

	SlideTransitions bool
	Quiz             bool
	Timestamps       bool

	Logger logger.Config
}

// IdentityEndpoints locates the identity collaborator. Either field may
// be empty; Resolve reports the resulting degradation.
type IdentityEndpoints struct {
	ValidateEndpoint string
	IssueEndpoint    string
}

// Banner configures the consent banner.
type Banner struct {
	Enabled      bool
	InfoText     string
	AcceptText   string
	CloseText    string
	MoreLinkText string
	MoreLinkHref string
}

// DwellTimes selects dwell-time capture granularity.
type DwellTimes struct {
	Total    bool
	PerSlide bool
}

// Links selects which link classes are captured.
type Links struct {
	Internal bool
	External bool
}

// Media selects which media element kinds are captured.
type Media struct {
	Audio bool
	Video bool
}

// Mode reports the identity degradation level of the configuration.
func (c *Config) Mode() IdentityMode {
	switch {
	case c.Identity.IssueEndpoint == "":
		return IdentityDisabled
	case c.Identity.ValidateEndpoint == "":
		return IdentityUnverified
	default:
		return IdentityFull
	}
}

// defaults mirrors the capture behavior a bare configuration gets:
// everything on except quiz integration, banner shown with stock texts.
func defaults() *Config {
	return &Config{
		ConsentBanner: Banner{
			Enabled:      true,
			InfoText:     "This presentation uses pseudonymous tracking for Learning Analytics.",
			AcceptText:   "I'd like that!",
			CloseText:    "×",
			MoreLinkText: "Learn more",
		},
		DwellTimes:       DwellTimes{Total: true, PerSlide: true},
		Links:            Links{Internal: true, External: true},
		Media:            Media{Audio: true, Video: true},
		SlideTransitions: true,
		Quiz:             false,
		Timestamps:       true,
		Logger:           *logger.DefaultConfig(),
	}
}

// Resolve merges defaults with host-supplied overrides, field by field:
// a nil override field inherits the default, a set field replaces only
// itself. Whole sub-sections are never dropped by partial overrides.
// Fails with ErrMissingEndpoint when no collection endpoint is present.
func Resolve(o *Overrides) (*Config, error) {
	cfg := defaults()
	if o != nil {
		o.apply(cfg)
	}

	if cfg.CollectionEndpoint == "" {
		return nil, ErrMissingEndpoint
	}

	switch cfg.Mode() {
	case IdentityDisabled:
		logger.Warnf("config: no identity issue endpoint configured; sessions will be completely anonymous")
	case IdentityUnverified:
		logger.Warnf("config: no identity validate endpoint configured; stored tokens will not be verified and data may be lost")
	}

	return cfg, nil
}

// Load reads overrides from a YAML file, expanding ${ENV} references.
func Load(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var o Overrides
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &o); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &o, nil
}
