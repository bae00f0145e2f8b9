package commands

import (
	"fmt"
	"path/filepath"

	"github.com/wolfeidau/localca/internal/secrets"
)

// PurgeKeysCmd deletes stored private keys whose account names match a glob
// pattern, cleaning up entries left behind by renamed or removed directories.
type PurgeKeysCmd struct {
	Pattern string `arg:"" help:"Glob pattern matched against key file names, e.g. '*.key.pem'"`
	DryRun  bool   `help:"Only print what would be deleted"`
}

func (c *PurgeKeysCmd) Run(globals *Globals) error {
	store, err := secrets.Open(serviceName)
	if err != nil {
		return err
	}

	accounts, err := store.Accounts()
	if err != nil {
		return fmt.Errorf("failed to list stored keys: %w", err)
	}

	purged := 0
	for _, account := range accounts {
		match, err := filepath.Match(c.Pattern, filepath.Base(account))
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", c.Pattern, err)
		}
		if !match {
			continue
		}

		if c.DryRun {
			fmt.Printf("Would delete %s\n", account)
			continue
		}

		if err := store.Delete(account); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", account, err)
		}

		fmt.Printf("Deleted %s\n", account)
		purged++
	}

	if c.DryRun {
		return nil
	}

	fmt.Printf("Purged %d key(s).\n", purged)

	return nil
}
