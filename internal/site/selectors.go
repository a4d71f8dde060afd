package site

import "github.com/hazyhaar/scrapeking/harvest"

// Selectors holds the CSS selectors describing the site's markup. Every
// empty field is filled from DefaultSelectors by ApplyDefaults.
type Selectors struct {
	Container     string `yaml:"container"`
	Header        string `yaml:"header"`
	HeaderLabel   string `yaml:"header_label"`
	HeaderOperate string `yaml:"header_operate"`
	Trick         string `yaml:"trick"`
	WarningBadge  string `yaml:"warning_badge"`
	// BodyField matches both body values; the first owned match is the
	// label and the second the operate text.
	BodyField string `yaml:"body_field"`
	// Expanded matches any content that shows a container has opened.
	Expanded string `yaml:"expanded"`

	AlertBox  string `yaml:"alert_box"`
	AlertText string `yaml:"alert_text"`

	Cards            string `yaml:"cards"`
	CardToggle       string `yaml:"card_toggle"`
	CardName         string `yaml:"card_name"`
	CardRedBold      string `yaml:"card_red_bold"`
	CardWarningBadge string `yaml:"card_warning_badge"`

	DetailLink string `yaml:"detail_link"`
}

// DefaultSelectors returns the selectors of the live site.
func DefaultSelectors() Selectors {
	return Selectors{
		Container:     "div.node-div",
		Header:        "div.node-title",
		HeaderLabel:   "b.node-label",
		HeaderOperate: "b.node-operate",
		Trick:         `div[role="alert"] b`,
		WarningBadge:  "span.badge.badge-warning",
		BodyField:     "b.node-label, b.node-operate",
		Expanded:      `div[role="alert"] b, b.node-label, b.node-operate, div.node-div, span.badge.badge-warning`,

		AlertBox:  `div[role="alert"].alert-success`,
		AlertText: "div[data-v-51cd036b]",

		Cards:            `.col-lg-9 div[role="tablist"] > div.card.mb-1`,
		CardToggle:       `header[role="tab"] div[role="button"]`,
		CardName:         `b[style*="margin-left: 5px"]`,
		CardRedBold:      `b[style*="color: red"]`,
		CardWarningBadge: "span.badge.badge-warning",

		DetailLink: "div.pet-dev",
	}
}

// ApplyDefaults fills every empty selector.
func (s *Selectors) ApplyDefaults() {
	d := DefaultSelectors()
	for _, p := range []struct {
		dst *string
		def string
	}{
		{&s.Container, d.Container},
		{&s.Header, d.Header},
		{&s.HeaderLabel, d.HeaderLabel},
		{&s.HeaderOperate, d.HeaderOperate},
		{&s.Trick, d.Trick},
		{&s.WarningBadge, d.WarningBadge},
		{&s.BodyField, d.BodyField},
		{&s.Expanded, d.Expanded},
		{&s.AlertBox, d.AlertBox},
		{&s.AlertText, d.AlertText},
		{&s.Cards, d.Cards},
		{&s.CardToggle, d.CardToggle},
		{&s.CardName, d.CardName},
		{&s.CardRedBold, d.CardRedBold},
		{&s.CardWarningBadge, d.CardWarningBadge},
		{&s.DetailLink, d.DetailLink},
	} {
		if *p.dst == "" {
			*p.dst = p.def
		}
	}
}

// Lookup tells a page accessor how to resolve a harvest.Target.
type Lookup struct {
	CSS string
	// Nth selects among the matches that pass the filters, from 0.
	Nth int
	// Owned keeps only matches whose nearest enclosing container is the
	// scope itself, so values of nested containers never leak upward.
	Owned bool
	// OutsideHeader drops matches inside a header.
	OutsideHeader bool
}

// For returns the lookup for target t.
func (s Selectors) For(t harvest.Target) Lookup {
	switch t {
	case harvest.TargetHeader:
		return Lookup{CSS: s.Header, Owned: true}
	case harvest.TargetHeaderLabel:
		return Lookup{CSS: s.HeaderLabel}
	case harvest.TargetHeaderOperate:
		return Lookup{CSS: s.HeaderOperate}
	case harvest.TargetTrick:
		return Lookup{CSS: s.Trick, Owned: true, OutsideHeader: true}
	case harvest.TargetWarningBadge:
		return Lookup{CSS: s.WarningBadge, Owned: true, OutsideHeader: true}
	case harvest.TargetBodyLabel:
		return Lookup{CSS: s.BodyField, Owned: true, OutsideHeader: true}
	case harvest.TargetBodyOperate:
		return Lookup{CSS: s.BodyField, Nth: 1, Owned: true, OutsideHeader: true}
	}
	return Lookup{}
}
