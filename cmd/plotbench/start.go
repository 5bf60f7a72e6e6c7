package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"plotbench/internal/history"
	"plotbench/pkg/types"
)

func newStartCmd(a *app) *cobra.Command {
	var (
		messages  []string
		maxTokens int
		wait      bool
	)
	cmd := &cobra.Command{
		Use:   "start <model>",
		Short: "Start llama-server for one model, optionally chat, then stop it",
		Example: "  plotbench start venice -m \"Describe a desert city\"\n" +
			"  plotbench start qwq_planet --wait",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sup := a.supervisor()
			defer func() {
				if err := sup.Stop(); err != nil {
					a.log.Warn().Err(err).Msg("stop")
				}
			}()
			h, err := sup.Start(ctx, args[0], a.cfg.Port)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s ready at %s (pid %d)\n", h.Model.ID, h.BaseURL, h.PID())

			if len(messages) > 0 {
				sched := a.scheduler()
				hist := history.New()
				for _, m := range messages {
					hist.AddUser(m)
					res, err := sup.Chat(ctx, types.ChatRequest{
						Messages:  hist.ChatMessages(sched.CurrentPrompt()),
						MaxTokens: maxTokens,
					})
					if err != nil {
						return err
					}
					hist.AddAssistant(res.Content)
					if sched.Increment() {
						a.log.Info().Int("prompt_index", sched.Info().Index).Msg("system prompt rotated")
					}
					fmt.Fprintf(out, "\n%s\n\n(%d words)\n", res.Content, res.WordCount)
				}
			}
			if wait {
				fmt.Fprintln(out, "press Ctrl+C to stop")
				<-ctx.Done()
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringArrayVarP(&messages, "message", "m", nil, "User message to send (repeatable, one conversation)")
	f.IntVar(&maxTokens, "max-tokens", 0, "Max tokens per reply (0 = configured default)")
	f.BoolVar(&wait, "wait", false, "Keep the server running until interrupted")
	return cmd
}
