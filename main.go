// tutorbot is an offline AI tutor served to a browser widget, a terminal
// client and Telegram.
package main

import "github.com/linanwx/tutorbot/cmd"

func main() {
	cmd.Execute()
}
