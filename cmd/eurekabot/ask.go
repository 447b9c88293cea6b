package main

import (
	"fmt"

	"github.com/alexandre-normand/eurekabot/config"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Look up the answers to a question in the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) (err error) {
	results, err := newKnowledgeBase(v, newMeter()).GetAnswers(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, v.GetString(config.NoAnswerMessageKey))
		return nil
	}

	for _, r := range results {
		fmt.Fprintf(out, "[%.2f] %s\n", r.Score, r.Answer)
	}

	return nil
}
