// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/launchpad/cmd/launchpad"

func main() {
	cmd.Execute()
}
