package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"enigma/internal/catalog"
	"enigma/internal/enigma"
	"enigma/internal/session"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [machine [input [output]]]",
		Short: "Convert a message file",
		Long: `Convert the messages in input (default stdin) with the machine described
in machine and write the result to output (default stdout).

With no arguments the machine named in the settings file is used.`,
		Args: cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			machine := a.cfg.Machine
			var input, output string
			if len(args) > 0 {
				machine = args[0]
			}
			if len(args) > 1 {
				input = args[1]
			}
			if len(args) > 2 {
				output = args[2]
			}
			if machine == "" {
				return fmt.Errorf("%w: no machine description given", enigma.ErrConfig)
			}
			return a.convertFile(cmd.Context(), machine, input, output)
		},
	}
}

// convertFile loads the machine, then converts input into output. Empty
// paths mean stdin and stdout.
func (a *app) convertFile(ctx context.Context, machinePath, inputPath, outputPath string) (err error) {
	desc, err := catalog.Load(machinePath)
	if err != nil {
		return err
	}
	m, err := desc.Build()
	if err != nil {
		return err
	}

	in, err := openInput(inputPath, a.stdin)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := createOutput(outputPath, a.stdout)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	return a.process(ctx, m, machinePath, desc.Fingerprint(), in, out)
}

// process runs one message stream through m, recording it in the journal
// when one is enabled.
func (a *app) process(ctx context.Context, m *enigma.Machine, machinePath, fingerprint string, in io.Reader, out io.Writer) error {
	p := &session.Processor{
		Machine:   m,
		Out:       out,
		GroupSize: a.cfg.Output.GroupSize,
		Logger:    a.logger.WithComponent("session").Logger,
	}

	j, err := a.openJournal()
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
		s, err := j.StartSession(ctx, machinePath, fingerprint)
		if err != nil {
			return err
		}
		p.Recorder = s
		a.logger.Info("journal session started", "session", s.ID().String(), "machine", machinePath)
	}

	err = p.Process(ctx, in)
	if errors.Is(err, context.Canceled) {
		a.logger.Warn("conversion interrupted")
	}
	return err
}
