package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lavka-group/shop-assistant/internal/model"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := initEngine()
		if err != nil {
			return err
		}

		question := strings.Join(args, " ")
		if strings.TrimSpace(question) == "" {
			return eris.New("question is empty")
		}

		answer := eng.Answer(cmd.Context(), model.Question{Text: question})
		fmt.Println(string(answer))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
