package main

import (
	"context"
	"fmt"

	backendsvc "github.com/iesahq/portal/services/backend"
)

func (cli *commandLine) activeSession(token string) error {
	ctx := context.Background()
	if token != "" {
		ctx = backendsvc.NewContext(ctx, token)
	}

	sess, err := cli.backend.ActiveSession(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("active session: %s (%s) semester %d\n", sess.Name, sess.ID, sess.CurrentSemester)
	return nil
}
