package commands

import (
	"github.com/wolfeidau/localca/internal/ca"
	"github.com/wolfeidau/localca/internal/config"
	"github.com/wolfeidau/localca/internal/secrets"
)

// serviceName keys all keyring entries written by this tool.
const serviceName = "localca"

type Globals struct {
	Debug   bool
	Version string
	Config  string
}

// overrides carries the per-command flag overrides applied on top of the
// config file. MinRunDays is a pointer because zero is a valid setting
// (reuse anything not yet expired) and must be distinguishable from the
// flag being absent.
type overrides struct {
	Dir           string
	AuthorityName string
	ValidityDays  int
	MinRunDays    *int
}

func applyOverrides(cfg config.Config, o overrides) config.Config {
	if o.Dir != "" {
		cfg.Dir = o.Dir
	}
	if o.AuthorityName != "" {
		cfg.AuthorityName = o.AuthorityName
	}
	if o.ValidityDays != 0 {
		cfg.ValidityDays = o.ValidityDays
	}
	if o.MinRunDays != nil {
		cfg.MinRunDays = *o.MinRunDays
	}

	return cfg
}

// newManager builds a Manager from the config file with command overrides
// applied, backed by the OS keyring.
func newManager(globals *Globals, o overrides) (*ca.Manager, error) {
	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, err
	}

	cfg = applyOverrides(cfg, o)

	store, err := secrets.Open(serviceName)
	if err != nil {
		return nil, err
	}

	return ca.New(ca.Options{
		Dir:                   cfg.Dir,
		AuthorityName:         cfg.AuthorityName,
		AuthorityValidityDays: cfg.AuthorityValidityDays,
		ValidityDays:          cfg.ValidityDays,
		MinRunDays:            cfg.MinRunDays,
	}, store), nil
}
