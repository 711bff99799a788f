// Command policydesk runs the HR policy wizard.
package main

import "github.com/policydesk/policydesk/internal/cli"

func main() {
	cli.Execute()
}
