package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) clearPrefs(userID string) error {
	n, err := cli.prefs.DeleteAll(context.Background(), userID)
	if err != nil {
		return err
	}
	fmt.Printf("deleted %d preference(s) for user %s\n", n, userID)
	return nil
}
