package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-honeypot/backend/internal/analysis/extract"
	"github.com/zhouzirui/z-honeypot/backend/internal/analysis/scam"
)

var errNoInput = errors.New("no text given: pass it as arguments or on stdin")

func newClassifyCmd() *cobra.Command {
	var (
		threshold float64
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Score text for scam likelihood",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			a := scam.New(threshold).Analyze(text)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "score: %.2f\n", a.Score)
			fmt.Fprintf(out, "scam: %t\n", a.Scam)
			if len(a.Families) > 0 {
				families := make([]string, len(a.Families))
				for i, f := range a.Families {
					families[i] = string(f)
				}
				fmt.Fprintf(out, "families: %s\n", strings.Join(families, ", "))
			}
			if len(a.Keywords) > 0 {
				fmt.Fprintf(out, "keywords: %s\n", strings.Join(a.Keywords, ", "))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", scam.DefaultThreshold, "score at or above which text counts as a scam")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full assessment as JSON")
	return cmd
}

func newExtractCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "extract [text...]",
		Short: "Extract bank accounts, UPI ids, phone numbers and links",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := inputText(cmd, args)
			if err != nil {
				return err
			}
			findings := extract.Extract(text)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(findings)
			}
			if len(findings) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no intelligence found")
				return err
			}
			for _, f := range findings {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", f.Kind, f.Value); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print findings as JSON")
	return cmd
}
