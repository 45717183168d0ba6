package config

import "github.com/decktrace/decktrace/internal/util/logger"

// Overrides is the host-supplied configuration. Every field is
// optional; nil means "inherit the default". Group toggles (Enabled)
// switch a whole capture dimension off without restating its fields.
type Overrides struct {
	CollectionEndpoint string `yaml:"collection_endpoint"`

	Identity      *IdentityOverrides `yaml:"identity"`
	ConsentBanner *BannerOverrides   `yaml:"consent_banner"`
	DwellTimes    *GroupOverrides    `yaml:"dwell_times"`
	Links         *GroupOverrides    `yaml:"links"`
	Media         *GroupOverrides    `yaml:"media"`

	SlideTransitions *bool `yaml:"slide_transitions"`
	Quiz             *bool `yaml:"quiz"`
	Timestamps       *bool `yaml:"timestamps"`

	Logger *logger.Config `yaml:"logger"`
}

// IdentityOverrides locates the identity collaborator endpoints.
type IdentityOverrides struct {
	ValidateEndpoint string `yaml:"validate_endpoint"`
	IssueEndpoint    string `yaml:"issue_endpoint"`
}

// BannerOverrides adjusts the consent banner per field.
type BannerOverrides struct {
	Enabled      *bool   `yaml:"enabled"`
	InfoText     *string `yaml:"info_text"`
	AcceptText   *string `yaml:"accept_text"`
	CloseText    *string `yaml:"close_text"`
	MoreLinkText *string `yaml:"more_link_text"`
	MoreLinkHref *string `yaml:"more_link_href"`
}

// GroupOverrides tunes a two-flag capture dimension. The two member
// flags map onto (Total, PerSlide), (Internal, External) or
// (Audio, Video) depending on which group they override.
type GroupOverrides struct {
	Enabled *bool `yaml:"enabled"`

	// Exactly one pair is meaningful per group.
	Total    *bool `yaml:"total"`
	PerSlide *bool `yaml:"per_slide"`
	Internal *bool `yaml:"internal"`
	External *bool `yaml:"external"`
	Audio    *bool `yaml:"audio"`
	Video    *bool `yaml:"video"`
}

func (o *Overrides) apply(cfg *Config) {
	if o.CollectionEndpoint != "" {
		cfg.CollectionEndpoint = o.CollectionEndpoint
	}

	if o.Identity != nil {
		if o.Identity.ValidateEndpoint != "" {
			cfg.Identity.ValidateEndpoint = o.Identity.ValidateEndpoint
		}
		if o.Identity.IssueEndpoint != "" {
			cfg.Identity.IssueEndpoint = o.Identity.IssueEndpoint
		}
	}

	if b := o.ConsentBanner; b != nil {
		if b.Enabled != nil {
			cfg.ConsentBanner.Enabled = *b.Enabled
		}
		if b.InfoText != nil {
			cfg.ConsentBanner.InfoText = *b.InfoText
		}
		if b.AcceptText != nil {
			cfg.ConsentBanner.AcceptText = *b.AcceptText
		}
		if b.CloseText != nil {
			cfg.ConsentBanner.CloseText = *b.CloseText
		}
		if b.MoreLinkText != nil {
			cfg.ConsentBanner.MoreLinkText = *b.MoreLinkText
		}
		if b.MoreLinkHref != nil {
			cfg.ConsentBanner.MoreLinkHref = *b.MoreLinkHref
		}
	}

	cfg.DwellTimes.Total, cfg.DwellTimes.PerSlide = applyGroup(
		o.DwellTimes, cfg.DwellTimes.Total, cfg.DwellTimes.PerSlide,
		func(g *GroupOverrides) (*bool, *bool) { return g.Total, g.PerSlide })
	cfg.Links.Internal, cfg.Links.External = applyGroup(
		o.Links, cfg.Links.Internal, cfg.Links.External,
		func(g *GroupOverrides) (*bool, *bool) { return g.Internal, g.External })
	cfg.Media.Audio, cfg.Media.Video = applyGroup(
		o.Media, cfg.Media.Audio, cfg.Media.Video,
		func(g *GroupOverrides) (*bool, *bool) { return g.Audio, g.Video })

	if o.SlideTransitions != nil {
		cfg.SlideTransitions = *o.SlideTransitions
	}
	if o.Quiz != nil {
		cfg.Quiz = *o.Quiz
	}
	if o.Timestamps != nil {
		cfg.Timestamps = *o.Timestamps
	}
	if o.Logger != nil {
		cfg.Logger = *o.Logger
	}
}

// applyGroup merges one two-flag group. Enabled=false forces both flags
// off; otherwise each flag is overridden independently.
func applyGroup(g *GroupOverrides, first, second bool, pick func(*GroupOverrides) (*bool, *bool)) (bool, bool) {
	if g == nil {
		return first, second
	}
	if g.Enabled != nil && !*g.Enabled {
		return false, false
	}
	f, s := pick(g)
	if f != nil {
		first = *f
	}
	if s != nil {
		second = *s
	}
	return first, second
}
