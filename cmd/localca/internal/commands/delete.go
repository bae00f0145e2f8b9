package commands

import (
	"errors"
	"fmt"

	"github.com/wolfeidau/localca/internal/certstore"
)

// DeleteCmd deletes the certificate and stored key for a host.
type DeleteCmd struct {
	Host string `arg:"" help:"Host the certificate was issued for"`
	Dir  string `help:"Certificate directory"`
}

func (c *DeleteCmd) Run(globals *Globals) error {
	mgr, err := newManager(globals, overrides{Dir: c.Dir})
	if err != nil {
		return err
	}

	if err := mgr.DeleteByHost(c.Host); err != nil {
		if errors.Is(err, certstore.ErrRecordNotFound) {
			fmt.Printf("No certificate found for %s.\n", c.Host)
			return nil
		}
		return fmt.Errorf("failed to delete certificate: %w", err)
	}

	fmt.Printf("Deleted certificate for %s.\n", c.Host)

	return nil
}

// DeleteAllCmd deletes every certificate in the directory, including the
// authority, along with their stored keys.
type DeleteAllCmd struct {
	Dir string `help:"Certificate directory"`
}

func (c *DeleteAllCmd) Run(globals *Globals) error {
	mgr, err := newManager(globals, overrides{Dir: c.Dir})
	if err != nil {
		return err
	}

	if err := mgr.DeleteAll(); err != nil {
		return fmt.Errorf("failed to delete certificates: %w", err)
	}

	fmt.Println("Deleted all certificates.")

	return nil
}
