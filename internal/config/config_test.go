package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

func boolPtr(b bool) *bool { return &b }

func TestResolveRequiresCollectionEndpoint(t *testing.T) {
	if _, err := Resolve(nil); !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("nil overrides: got %v, want ErrMissingEndpoint", err)
	}
	if _, err := Resolve(&Overrides{}); !errors.Is(err, ErrMissingEndpoint) {
		t.Fatalf("empty overrides: got %v, want ErrMissingEndpoint", err)
	}
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve(&Overrides{CollectionEndpoint: "http://collector/api/tracking"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if !cfg.DwellTimes.Total || !cfg.DwellTimes.PerSlide {
		t.Errorf("dwell times should default on: %+v", cfg.DwellTimes)
	}
	if !cfg.Links.Internal || !cfg.Links.External {
		t.Errorf("links should default on: %+v", cfg.Links)
	}
	if !cfg.Media.Audio || !cfg.Media.Video {
		t.Errorf("media should default on: %+v", cfg.Media)
	}
	if !cfg.SlideTransitions || !cfg.Timestamps {
		t.Errorf("transitions and timestamps should default on")
	}
	if cfg.Quiz {
		t.Errorf("quiz integration should default off")
	}
	if !cfg.ConsentBanner.Enabled {
		t.Errorf("consent banner should default on")
	}
	if cfg.ConsentBanner.AcceptText != "I'd like that!" {
		t.Errorf("unexpected accept text %q", cfg.ConsentBanner.AcceptText)
	}
}

func TestResolveFieldLevelMerge(t *testing.T) {
	// A partial banner override must not drop the other banner defaults.
	cfg, err := Resolve(&Overrides{
		CollectionEndpoint: "http://collector/api/tracking",
		ConsentBanner:      &BannerOverrides{InfoText: strPtr("Custom text")},
		DwellTimes:         &GroupOverrides{PerSlide: boolPtr(false)},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if cfg.ConsentBanner.InfoText != "Custom text" {
		t.Errorf("info text not overridden: %q", cfg.ConsentBanner.InfoText)
	}
	if cfg.ConsentBanner.AcceptText != "I'd like that!" {
		t.Errorf("partial banner override dropped accept text default")
	}
	if !cfg.DwellTimes.Total {
		t.Errorf("per-slide override must not disable total dwell time")
	}
	if cfg.DwellTimes.PerSlide {
		t.Errorf("per-slide dwell time should be off")
	}
}

func TestGroupEnabledSwitchesBothOff(t *testing.T) {
	cfg, err := Resolve(&Overrides{
		CollectionEndpoint: "http://collector/api/tracking",
		Links:              &GroupOverrides{Enabled: boolPtr(false)},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Links.Internal || cfg.Links.External {
		t.Fatalf("disabled group left flags on: %+v", cfg.Links)
	}
}

func TestGroupMergePrecedence(t *testing.T) {
	optBool := rapid.Custom(func(t *rapid.T) *bool {
		if !rapid.Bool().Draw(t, "set") {
			return nil
		}
		return boolPtr(rapid.Bool().Draw(t, "value"))
	})

	rapid.Check(t, func(t *rapid.T) {
		g := &GroupOverrides{
			Enabled: optBool.Draw(t, "enabled"),
			Total:   optBool.Draw(t, "total"),
		}

		first, _ := applyGroup(g, true, true, func(g *GroupOverrides) (*bool, *bool) {
			return g.Total, g.PerSlide
		})

		switch {
		case g.Enabled != nil && !*g.Enabled:
			if first {
				t.Fatalf("disabled group must force flag off")
			}
		case g.Total != nil:
			if first != *g.Total {
				t.Fatalf("set flag must win: got %v, want %v", first, *g.Total)
			}
		default:
			if !first {
				t.Fatalf("unset flag must inherit the default")
			}
		}
	})
}

func TestIdentityMode(t *testing.T) {
	cases := []struct {
		name     string
		identity *IdentityOverrides
		want     IdentityMode
	}{
		{"none", nil, IdentityDisabled},
		{"issue only", &IdentityOverrides{IssueEndpoint: "http://id/issue"}, IdentityUnverified},
		{"both", &IdentityOverrides{IssueEndpoint: "http://id/issue", ValidateEndpoint: "http://id/validate"}, IdentityFull},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Resolve(&Overrides{
				CollectionEndpoint: "http://collector/api/tracking",
				Identity:           tc.identity,
			})
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if got := cfg.Mode(); got != tc.want {
				t.Fatalf("mode: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("COLLECTOR_URL", "http://collector/api/tracking")

	path := filepath.Join(t.TempDir(), "tracking.yaml")
	body := "collection_endpoint: ${COLLECTOR_URL}\nquiz: true\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	o, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if o.CollectionEndpoint != "http://collector/api/tracking" {
		t.Errorf("env not expanded: %q", o.CollectionEndpoint)
	}
	if o.Quiz == nil || !*o.Quiz {
		t.Errorf("quiz flag not parsed")
	}
}

func strPtr(s string) *string { return &s }
