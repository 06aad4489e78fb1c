// Command aigis-injector is the small bootstrap binary AIGIS spawns for
// every internal-local and internal-remote plugin. It dials the
// capability broker, opens the plugin's LAUNCH file as a Go plugin, and
// invokes its exported Launch function with a Context backed by that
// broker connection -- the out-of-process mirror of what a core plugin
// gets handed in-process.
package main

import (
	nativeplugin "plugin"

	"flag"
	"fmt"
	"os"

	"github.com/Zaltu/AIGIS/internal/broker"
	"github.com/Zaltu/AIGIS/pkg/aigisclient"
)

func main() {
	os.Exit(run())
}

func run() int {
	entrypoint := flag.String("ENTRYPOINT", "", "working directory the plugin was installed into")
	launch := flag.String("LAUNCH", "", "path to the plugin's compiled Go plugin file")
	brokerAddr := flag.String("broker-addr", "", "capability broker address")
	brokerSecret := flag.String("broker-secret", "", "capability broker shared secret")
	flag.Parse()

	if *launch == "" || *brokerAddr == "" {
		fmt.Fprintln(os.Stderr, "aigis-injector: --LAUNCH and --broker-addr are required")
		return 1
	}

	if *entrypoint != "" {
		if err := os.Chdir(*entrypoint); err != nil {
			fmt.Fprintln(os.Stderr, "aigis-injector: could not chdir to entrypoint:", err)
			return 1
		}
	}

	client, err := broker.Dial(*brokerAddr, *brokerSecret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "aigis-injector: cannot reach broker:", err)
		return 1
	}
	defer client.Close()

	ctx := aigisclient.New(client)

	p, err := nativeplugin.Open(*launch)
	if err != nil {
		fmt.Fprintln(os.Stderr, "aigis-injector: cannot open launch file:", err)
		return 1
	}

	sym, err := p.Lookup("Launch")
	if err != nil {
		fmt.Fprintln(os.Stderr, "aigis-injector: no Launch symbol found in", *launch)
		return 1
	}
	launchFn, ok := sym.(func(*aigisclient.Context))
	if !ok {
		fmt.Fprintln(os.Stderr, "aigis-injector: Launch has the wrong signature, expected func(*aigisclient.Context)")
		return 1
	}

	launchFn(ctx)
	return 0
}
