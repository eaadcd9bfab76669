package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/iesahq/portal/storage/database"

	backendsvc "github.com/iesahq/portal/services/backend"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	prefs   *database.PrefRepository
	backend *backendsvc.Client
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - run database migrations (up, down, status, ...)")
	fmt.Println("  clearprefs -user USER_ID - delete all stored preferences for a user")
	fmt.Println("  activesession - show the backend's active academic session")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	clearPrefsCmd := flag.NewFlagSet("clearprefs", flag.ExitOnError)
	clearPrefsUser := clearPrefsCmd.String("user", "", "The user's ID. All their stored preferences will be deleted.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "clearprefs":
		if err := clearPrefsCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *clearPrefsUser == "" {
			clearPrefsCmd.Usage()
			return errHelp
		}
		return cli.clearPrefs(*clearPrefsUser)
	case "activesession":
		fmt.Print("Enter API token (optional):")
		token, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		return cli.activeSession(string(token))
	default:
		cli.printUsage()
		return errHelp
	}
}
