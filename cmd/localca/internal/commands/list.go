package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// ListCmd lists the certificates in the certificate directory.
type ListCmd struct {
	Dir string `help:"Certificate directory"`
}

func (c *ListCmd) Run(globals *Globals) error {
	mgr, err := newManager(globals, overrides{Dir: c.Dir})
	if err != nil {
		return err
	}

	records, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list certificates: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSANS\tNOT AFTER\tSIGNED BY CA\tFILE")

	count := 0
	for rec, err := range records {
		if err != nil {
			return fmt.Errorf("failed to list certificates: %w", err)
		}

		sans := append([]string{}, rec.DNSNames()...)
		for _, ip := range rec.IPAddresses() {
			sans = append(sans, ip.String())
		}

		signed := "no"
		if rec.Verify() || rec.SelfSigned() {
			signed = "yes"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.Name(),
			strings.Join(sans, ","),
			rec.NotAfter().Format(time.RFC3339),
			signed,
			rec.CertPath())
		count++
	}

	w.Flush()

	if count == 0 {
		fmt.Println("No certificates found.")
	}

	return nil
}
