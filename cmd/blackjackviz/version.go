package main

import "fmt"

type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	_, err := fmt.Fprintf(app.Out, "blackjackviz %s\n", version)
	return err
}
