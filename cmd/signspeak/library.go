package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/logging"
)

const timeFormat = "2006-01-02 15:04"

func newGesturesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gestures",
		Aliases: []string{"words"},
		Short:   "List or delete trained words",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List trained words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := e.setup(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			gestures, err := st.Library().Gestures()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tSAMPLES\tUPDATED\tDESCRIPTION")
			for _, g := range gestures {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", g.Label, len(g.Samples), g.UpdatedAt.Local().Format(timeFormat), g.Description)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete LABEL",
		Short: "Delete a trained word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, st, err := e.setup(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			trainer := gesture.NewTrainer(st.Library(), cfg.Training.MinSamples, logging.Component(logger, "trainer"))
			if err := trainer.DeleteGesture(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", args[0])
			return nil
		},
	})
	return cmd
}

func newSentencesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sentences",
		Short: "List or delete trained sentences",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List trained sentences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := e.setup(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			sentences, err := st.Library().Sentences()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tSTRATEGY\tUPDATED\tWORDS")
			for _, s := range sentences {
				parts := strings.Join(s.WordLabels(), " ")
				if s.Strategy == gesture.StrategyMotion {
					parts = fmt.Sprintf("%d templates", len(s.Templates))
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Label, s.Strategy, s.UpdatedAt.Local().Format(timeFormat), parts)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete LABEL",
		Short: "Delete a trained sentence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, st, err := e.setup(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			trainer := gesture.NewTrainer(st.Library(), cfg.Training.MinSamples, logging.Component(logger, "trainer"))
			if err := trainer.DeleteSentence(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q.\n", args[0])
			return nil
		},
	})
	return cmd
}

func newExportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write the library to a compressed bundle (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := e.setup(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			if args[0] == "-" {
				return st.Export(cmd.OutOrStdout())
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := st.Export(f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported library to %s at %s.\n", args[0], time.Now().Format(timeFormat))
			return nil
		},
	}
}

func newImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Merge a bundle into the library (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := e.setup(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			stats, err := st.Import(r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d words, %d sentences, %d bindings.\n",
				stats.Gestures, stats.Sentences, stats.Bindings)
			return nil
		},
	}
}

func newConfigCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.load()
			if err != nil {
				return err
			}
			return cfg.Write(cmd.OutOrStdout())
		},
	}
}
