// Command shukatsu is the terminal client of the job-hunting tracker. It shares
// the server's database and keeps the signed-in session under the user's config
// directory.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
