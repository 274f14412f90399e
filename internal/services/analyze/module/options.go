package module

import "leakhound/internal/platform/config"

// Options controls pipeline behavior. Values may also be read from env
type Options struct {
	Workers int
}

// FromConfig reads options using the LEAKHOUND_ prefix
func FromConfig(cfg config.Conf) Options {
	lh := cfg.Prefix("LEAKHOUND_")
	return Options{
		Workers: lh.MayInt("ANALYZE_WORKERS", 5),
	}
}
