// wlancryptctl is the operator CLI for the wlancryptd daemon.
package main

import "github.com/go80211/wlancrypt/cmd/wlancryptctl/commands"

func main() {
	commands.Execute()
}
