// Command aigis is the plugin host supervisor: it acquires, configures,
// launches, and watches the plugins listed in its configuration file,
// brokers cross-process calls between them, and runs until interrupted.
package main

import (
	"os"

	"github.com/Zaltu/AIGIS/command/agent"
)

func main() {
	c := &agent.Command{}
	os.Exit(c.Run(os.Args[1:]))
}
