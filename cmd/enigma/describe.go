package main

import (
	"github.com/spf13/cobra"

	"enigma/internal/catalog"
)

func newDescribeCmd(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "describe <machine>",
		Short: "Convert a machine description to another format",
		Long: `Read a machine description in any supported format and write it in
another: conf (the classic text format), yaml, toml or json. With --output
the format defaults to the one named by the file extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			desc, err := catalog.Load(args[0])
			if err != nil {
				return err
			}

			f := catalog.FormatYAML
			if output != "" {
				f = catalog.FormatFromPath(output)
			}
			if cmd.Flags().Changed("format") {
				if f, err = catalog.ParseFormat(format); err != nil {
					return err
				}
			}

			out, err := createOutput(output, a.stdout)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := out.Close(); err == nil && cerr != nil {
					err = cerr
				}
			}()
			return desc.Encode(out, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: conf, yaml, toml, json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
