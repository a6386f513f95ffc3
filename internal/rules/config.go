package rules

// Config is the uncompiled form of a rule set. It is both the [rules] section
// of the main configuration file and the schema of a standalone rule pack.
//
// Pattern slots are pointers so an overlay can tell an absent key (nil, keep
// the underlying pattern) from an explicit "" (disable the slot).
type Config struct {
	// File optionally names a rule pack overlaid on top of this config.
	File string `toml:"file" yaml:"-"`

	Sequence           []Entry          `toml:"sequence" yaml:"sequence"`
	Others             *string          `toml:"others" yaml:"others"`
	Delete             *string          `toml:"delete" yaml:"delete"`
	ManufacturerDelete *string          `toml:"manufacturer_delete" yaml:"manufacturer_delete"`
	ProtocolOthers     *string          `toml:"protocol_others" yaml:"protocol_others"`
	UppercaseOthers    *string          `toml:"uppercase_others" yaml:"uppercase_others"`
	OthersExact        []string         `toml:"others_exact" yaml:"others_exact"`
	Fallback           []FallbackConfig `toml:"fallback" yaml:"fallback"`
}

// Slot returns a pattern slot value for building a Config in code.
func Slot(pattern string) *string { return &pattern }

func slotSource(slot *string) string {
	if slot == nil {
		return ""
	}
	return *slot
}

func overlaySlot(dst **string, src *string) {
	if src != nil {
		*dst = Slot(*src)
	}
}

// FallbackConfig describes a vendor-specific table consulted only for
// records that are still unlabeled after the main pass.
type FallbackConfig struct {
	Vendor   string  `toml:"vendor" yaml:"vendor"`
	Field    string  `toml:"field" yaml:"field"`
	Sequence []Entry `toml:"sequence" yaml:"sequence"`
}

// Overlay returns a copy of c with pack applied. Sequence entries are merged
// by label, every slot set in pack replaces its pattern (an empty pattern
// disables the slot), a non-nil exact list
// replaces the default one, and fallback tables replace the table of the
// same vendor.
func (c Config) Overlay(pack Config) Config {
	out := c.clone()

	for _, e := range pack.Sequence {
		replaced := false
		for i := range out.Sequence {
			if out.Sequence[i].Label == e.Label {
				out.Sequence[i].Pattern = e.Pattern
				replaced = true
				break
			}
		}
		if !replaced {
			out.Sequence = append(out.Sequence, e)
		}
	}
	overlaySlot(&out.Others, pack.Others)
	overlaySlot(&out.Delete, pack.Delete)
	overlaySlot(&out.ManufacturerDelete, pack.ManufacturerDelete)
	overlaySlot(&out.ProtocolOthers, pack.ProtocolOthers)
	overlaySlot(&out.UppercaseOthers, pack.UppercaseOthers)
	if pack.OthersExact != nil {
		out.OthersExact = append([]string(nil), pack.OthersExact...)
	}
	for _, fb := range pack.Fallback {
		replaced := false
		for i := range out.Fallback {
			if out.Fallback[i].Vendor == fb.Vendor {
				out.Fallback[i] = fb.clone()
				replaced = true
				break
			}
		}
		if !replaced {
			out.Fallback = append(out.Fallback, fb.clone())
		}
	}
	return out
}

func (c Config) clone() Config {
	out := c
	for _, slot := range []**string{&out.Others, &out.Delete, &out.ManufacturerDelete, &out.ProtocolOthers, &out.UppercaseOthers} {
		if *slot != nil {
			*slot = Slot(**slot)
		}
	}
	out.Sequence = append([]Entry(nil), c.Sequence...)
	out.OthersExact = append([]string(nil), c.OthersExact...)
	out.Fallback = make([]FallbackConfig, 0, len(c.Fallback))
	for _, fb := range c.Fallback {
		out.Fallback = append(out.Fallback, fb.clone())
	}
	return out
}

func (f FallbackConfig) clone() FallbackConfig {
	out := f
	out.Sequence = append([]Entry(nil), f.Sequence...)
	return out
}
