package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/centlink/centlink/internal/config"
	"github.com/centlink/centlink/internal/store"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users holding a nonzero donor role level",
	RunE:  runUsers,
}

func runUsers(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	donors, err := db.ListDonors()
	if err != nil {
		return err
	}
	if len(donors) == 0 {
		fmt.Println("No users with a donor role level.")
		return nil
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Printf("%-22s %-24s %s\n", "DISCORD ID", "CKEY", "LEVEL")
	for _, u := range donors {
		ckey := "-"
		if u.Ckey != nil {
			ckey = *u.Ckey
		}
		level := 0
		if u.RoleLevel != nil {
			level = *u.RoleLevel
		}
		fmt.Printf("%-22s %-24s %d\n", u.DiscordID, ckey, level)
	}
	color.New(color.Faint).Printf("%d user(s)\n", len(donors))
	return nil
}
