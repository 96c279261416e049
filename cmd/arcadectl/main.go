// Command arcadectl talks to a running arcade leaderboard server and imports
// legacy player exports into its database.
package main

import "github.com/sakif/arcade-leaderboard/internal/cli"

func main() {
	cli.Execute()
}
