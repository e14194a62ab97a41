// Command rmcatalog browses the Rick and Morty character catalog from the
// terminal and can serve pages and avatars over HTTP.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
