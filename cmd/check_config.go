package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"relaybot/pkg/config"
	"relaybot/pkg/dispatcher"

	"github.com/spf13/cobra"
)

var knownChannels = []string{"telegram", "console"}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the relay configuration",
	Long:  "Loads the configuration and reports conversation ids, autoreplies and channel settings that can never take effect.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = args

		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		problems := validateConfig(cfg)
		writeConfigReport(cmd.OutOrStdout(), cfg, problems)
		if len(problems) > 0 {
			cmd.SilenceUsage = true
			return fmt.Errorf("%d configuration problem(s)", len(problems))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkConfigCmd)
}

// validateConfig lists settings that are malformed or can never fire.
func validateConfig(cfg *config.Config) []string {
	var problems []string
	checkID := func(where string, id string) {
		name, key, found := strings.Cut(id, ":")
		switch {
		case !found || key == "":
			problems = append(problems, fmt.Sprintf("%s: %q is not a <channel>:<id> conversation id", where, id))
		case !slices.Contains(knownChannels, name):
			problems = append(problems, fmt.Sprintf("%s: %q uses unknown channel %q", where, id, name))
		}
	}

	if cfg.Channels.Telegram.Enabled && strings.TrimSpace(cfg.Channels.Telegram.Token) == "" {
		problems = append(problems, "channels.telegram: enabled without a token")
	}

	for _, id := range cfg.SyncRooms {
		checkID("sync_rooms", id)
	}
	if cfg.SyncingEnabled && len(cfg.SyncRooms) < 2 {
		problems = append(problems, "sync_rooms: syncing is enabled but fewer than two rooms are listed")
	}

	problems = append(problems, validateAutoreplies("defaults", cfg.Defaults.Autoreplies)...)
	if len(cfg.Defaults.CommandsAdmin) > 0 && !anyAdmins(cfg) {
		problems = append(problems, fmt.Sprintf("defaults: commands_admin is set but no admins are configured anywhere, so nobody can run %s", strings.Join(cfg.Defaults.CommandsAdmin, ", ")))
	}

	ids := make([]string, 0, len(cfg.Conversations))
	for id := range cfg.Conversations {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		where := "conversations." + id
		checkID(where, id)
		for _, dst := range cfg.Conversations[id].ForwardTo {
			checkID(where+".forward_to", dst)
		}
		if adminOnly := cfg.AdminCommands(id); len(adminOnly) > 0 && len(cfg.Admins(id)) == 0 {
			problems = append(problems, fmt.Sprintf("%s: commands_admin is set but admins is empty, so nobody can run %s", where, strings.Join(adminOnly, ", ")))
		}
		problems = append(problems, validateAutoreplies(where, cfg.Conversations[id].Autoreplies)...)
	}
	for _, dst := range cfg.Defaults.ForwardTo {
		checkID("defaults.forward_to", dst)
	}

	return problems
}

// anyAdmins reports whether admins are listed in defaults or any conversation.
func anyAdmins(cfg *config.Config) bool {
	if len(cfg.Defaults.Admins) > 0 {
		return true
	}
	for _, opts := range cfg.Conversations {
		if len(opts.Admins) > 0 {
			return true
		}
	}

	return false
}

func validateAutoreplies(where string, replies []config.Autoreply) []string {
	var problems []string

	for i, reply := range replies {
		if strings.TrimSpace(reply.Reply) == "" {
			problems = append(problems, fmt.Sprintf("%s.autoreplies[%d]: reply is empty", where, i))
		}
		if len(reply.Keywords) == 0 {
			problems = append(problems, fmt.Sprintf("%s.autoreplies[%d]: no keywords", where, i))
		}
		for _, keyword := range reply.Keywords {
			switch {
			case keyword == "*":
			case len(strings.Fields(keyword)) != 1:
				problems = append(problems, fmt.Sprintf("%s.autoreplies[%d]: keyword %q is not a single word and never matches", where, i, keyword))
			case !dispatcher.KeywordCanMatch(keyword):
				problems = append(problems, fmt.Sprintf("%s.autoreplies[%d]: keyword %q contains punctuation that messages are split on and never matches", where, i, keyword))
			}
		}
	}

	return problems
}

func writeConfigReport(w io.Writer, cfg *config.Config, problems []string) {
	fmt.Fprintf(w, "command prefix: %s\n", cfg.CommandPrefix())
	fmt.Fprintf(w, "conversations:  %d\n", len(cfg.Conversations))
	fmt.Fprintf(w, "syncing:        %t (%d rooms)\n", cfg.BroadcastEnabled(), len(cfg.SyncRooms))
	fmt.Fprintf(w, "telegram:       %t\n", cfg.Channels.Telegram.Enabled)

	if len(problems) == 0 {
		fmt.Fprintln(w, "config OK")
		return
	}

	for _, problem := range problems {
		fmt.Fprintf(w, "problem: %s\n", problem)
	}
}
