package commands

import (
	"fmt"
	"time"
)

// IssueCmd issues a certificate for one or more hosts. The first host becomes
// the subject common name; all hosts become subject alternative names.
type IssueCmd struct {
	Hosts      []string `arg:"" help:"Hostnames or IP addresses, primary host first"`
	Dir        string   `help:"Certificate directory"`
	Days       int      `help:"Validity window in days"`
	MinRunDays *int     `help:"Minimum remaining validity in days required to reuse a cached certificate"`
	Force      bool     `help:"Regenerate even if a valid certificate exists"`
}

func (c *IssueCmd) Run(globals *Globals) error {
	mgr, err := newManager(globals, overrides{Dir: c.Dir, ValidityDays: c.Days, MinRunDays: c.MinRunDays})
	if err != nil {
		return err
	}

	rec, err := mgr.Issue(c.Hosts, c.Force)
	if err != nil {
		return fmt.Errorf("failed to issue certificate: %w", err)
	}

	fmt.Printf("Certificate: %s\n", rec.Name())
	fmt.Printf("Issuer: %s\n", rec.Issuer())
	fmt.Printf("Valid until: %s\n", rec.NotAfter().Format(time.RFC3339))
	if rec.CertPath() != "" {
		fmt.Printf("File: %s\n", rec.CertPath())
	}

	return nil
}
