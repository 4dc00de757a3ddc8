// Command tokengen mints an access token for an existing user.  Logins
// are handled outside this service; operators use this to hand out
// tokens and to script against the API.
//
//	tokengen --user 42            # role read from the users table
//	tokengen --user 42 --role ADMIN --offline
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
