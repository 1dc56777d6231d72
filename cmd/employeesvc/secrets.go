package main

import (
	"errors"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/employeesvc/config"
	"github.com/jonwraymond/employeesvc/observe"
)

var errMandatorySecretMissing = errors.New("mandatory secret missing")

func newSecretsCommand(configPath *string) *cobra.Command {
	secrets := &cobra.Command{
		Use:   "secrets",
		Short: "Inspect secret configuration",
	}

	secrets.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report where each secret resolves from, without printing values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := observe.NewLoggerWithWriter(cfg.Observe.Logging.Level, cmd.ErrOrStderr())
			r, err := newResolvers(cfg, logger)
			if err != nil {
				return err
			}

			mandatory := config.MandatorySecrets()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SECRET\tSOURCE\tREQUIRED")

			var missing []string
			for _, name := range r.plain.Names() {
				required := slices.Contains(mandatory, name)
				source := "-"
				res, err := r.plain.Lookup(cmd.Context(), name)
				switch {
				case err == nil:
					source = string(res.Source)
				case required:
					source = "error: " + err.Error()
					missing = append(missing, name)
				default:
					source = "not configured"
				}
				fmt.Fprintf(w, "%s\t%s\t%t\n", name, source, required)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if len(missing) > 0 {
				return fmt.Errorf("%w: %v", errMandatorySecretMissing, missing)
			}
			return nil
		},
	})
	return secrets
}
