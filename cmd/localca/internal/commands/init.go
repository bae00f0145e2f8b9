package commands

import (
	"fmt"
	"time"
)

// InitCmd creates (or refreshes) the root certificate authority.
type InitCmd struct {
	Dir   string `help:"Certificate directory"`
	Name  string `help:"Authority common name"`
	Force bool   `help:"Regenerate even if a valid authority exists"`
}

func (c *InitCmd) Run(globals *Globals) error {
	mgr, err := newManager(globals, overrides{Dir: c.Dir, AuthorityName: c.Name})
	if err != nil {
		return err
	}

	authority, err := mgr.Init(c.Force)
	if err != nil {
		return fmt.Errorf("failed to initialize authority: %w", err)
	}

	fmt.Printf("Authority: %s\n", authority.Subject())
	fmt.Printf("Valid until: %s\n", authority.NotAfter().Format(time.RFC3339))
	fmt.Printf("Certificate: %s\n", authority.CertPath())
	fmt.Println()
	fmt.Println("Trust this certificate in your OS or browser to avoid TLS warnings.")

	return nil
}
