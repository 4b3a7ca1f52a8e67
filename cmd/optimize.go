package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clarityhq/clarity/internal/llm"
	"github.com/clarityhq/clarity/internal/proxyclient"
	"github.com/clarityhq/clarity/internal/workflow"
)

var (
	optimizeMode      string
	optimizeServerURL string
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize [raw idea]",
	Short: "Turn a rough idea into a polished prompt",
	Long: `Runs one Clarity workflow from the command line. In fast mode the raw
idea is rewritten into one polished instruction in a single call. In
clarify mode the upstream first proposes 2-3 multiple-choice questions;
answer them interactively and the final instruction incorporates the
choices.

By default the upstream API is called directly using the configured
credential. With --server the request goes through a running Clarity
proxy instead, taking the same path a browser client would.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := parseMode(optimizeMode)
		if err != nil {
			return err
		}

		provider, err := GetProvider()
		if err != nil {
			return fmt.Errorf("failed to initialize provider: %w", err)
		}

		var client llm.Client
		if optimizeServerURL != "" {
			// Key is optional here; the proxy may hold its own.
			apiKey, _ := provider.Config.GetAPIKey()
			client, err = proxyclient.New(optimizeServerURL, apiKey)
			if err != nil {
				return fmt.Errorf("failed to create proxy client: %w", err)
			}
		} else {
			if provider.LLM == nil {
				return errors.New("no upstream client available; run 'clarity config set-key' or set " +
					"CLARITY_LLM_API_KEY, or use --server to go through a running proxy")
			}
			client = provider.LLM
		}

		sess, err := workflow.NewSession(client)
		if err != nil {
			return fmt.Errorf("failed to create workflow session: %w", err)
		}

		return optimizeRun(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout(), args[0], mode)
	},
}

func parseMode(s string) (workflow.Mode, error) {
	switch strings.ToLower(s) {
	case "fast":
		return workflow.ModeFast, nil
	case "clarify":
		return workflow.ModeClarify, nil
	default:
		return workflow.ModeFast, fmt.Errorf("unknown mode %q (expected 'fast' or 'clarify')", s)
	}
}

// optimizeRun drives one workflow session to completion, reading
// clarification answers from in. It accepts its dependencies for
// testability.
func optimizeRun(ctx context.Context, sess *workflow.Session, in io.Reader, out io.Writer, input string, mode workflow.Mode) error {
	if err := sess.SetInput(input); err != nil {
		return err
	}
	if err := sess.SetMode(mode); err != nil {
		return err
	}

	if err := sess.Generate(ctx); err != nil {
		if sess.Status() == workflow.StatusError {
			return fmt.Errorf("generation failed: %s", sess.ErrMessage())
		}
		return err
	}

	if sess.Status() == workflow.StatusAwaitingInput {
		if err := collectAnswers(sess, in, out); err != nil {
			return err
		}
		if err := sess.SubmitAnswers(ctx); err != nil {
			if sess.Status() == workflow.StatusError {
				return fmt.Errorf("final synthesis failed: %s", sess.ErrMessage())
			}
			return err
		}
	}

	fmt.Fprintln(out, sess.Result())
	return nil
}

// collectAnswers prompts for each clarification question in turn and
// records the chosen option on the session.
func collectAnswers(sess *workflow.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for _, q := range sess.Questions() {
		fmt.Fprintf(out, "\n%s\n", q.Text)
		for i, opt := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt.Label)
		}

		for {
			fmt.Fprintf(out, "Choose 1-%d: ", len(q.Options))
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read answer: %w", err)
				}
				return errors.New("input closed before all questions were answered")
			}
			choice, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err != nil || choice < 1 || choice > len(q.Options) {
				fmt.Fprintln(out, "Invalid choice, try again.")
				continue
			}
			if err := sess.SetAnswer(q.ID, q.Options[choice-1].Value); err != nil {
				return fmt.Errorf("failed to record answer: %w", err)
			}
			break
		}
	}
	return nil
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeMode, "mode", "fast", "Workflow mode: fast or clarify")
	optimizeCmd.Flags().StringVar(&optimizeServerURL, "server", "", "Base URL of a running Clarity proxy (optional)")
	rootCmd.AddCommand(optimizeCmd)
}
