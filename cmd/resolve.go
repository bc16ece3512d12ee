package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/linkedin-cli/internal/model"
	"github.com/sells-group/linkedin-cli/internal/resolver"
)

var (
	resolveInput     string
	resolveOverrides string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [company names...]",
	Short: "Resolve company names to LinkedIn URLs without scraping",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("resolve"); err != nil {
			return err
		}

		names := append([]string{}, args...)
		if resolveInput != "" {
			fromFile, err := resolver.NamesFromFile(resolveInput)
			if err != nil {
				return eris.Wrap(err, "read input file")
			}
			names = append(names, fromFile...)
		}
		if len(names) == 0 {
			return eris.New("no company names given; pass names as arguments or --input")
		}

		res, err := buildResolver(resolveOverrides)
		if err != nil {
			return err
		}
		targets, err := res.ResolveAll(ctx, names)
		if err != nil {
			return eris.Wrap(err, "resolve targets")
		}

		formatTargets(os.Stdout, targets)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveInput, "input", "", "file with one company name per line")
	resolveCmd.Flags().StringVar(&resolveOverrides, "overrides", "", "YAML file of name -> URL overrides")
	rootCmd.AddCommand(resolveCmd)
}

func formatTargets(out io.Writer, targets []model.Target) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPANY\tURL\tSOURCE")
	_, _ = fmt.Fprintln(w, "-------\t---\t------")
	for _, t := range targets {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.URL, t.Source)
	}
	_ = w.Flush()
}
