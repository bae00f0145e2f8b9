package commands

import (
	"fmt"

	"github.com/wolfeidau/localca/internal/config"
)

// DirCmd prints the resolved certificate directory, for use in scripts
// (for example to pass cert paths to another tool).
type DirCmd struct {
	Dir string `help:"Certificate directory"`
}

func (c *DirCmd) Run(globals *Globals) error {
	if c.Dir != "" {
		fmt.Println(c.Dir)
		return nil
	}

	cfg, err := config.Load(globals.Config)
	if err != nil {
		return err
	}

	fmt.Println(cfg.Dir)

	return nil
}
