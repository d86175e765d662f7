// Command blogctl runs administrative tasks against the blog database
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
