package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"collab/client"
	"collab/config"
	"collab/discover"
	"collab/editor"
	"collab/hub"
	"collab/wire"
)

func main() {
	hostAddr := flag.String("host", "", "start a session hub on this address (e.g. :9000) and join it")
	joinAddr := flag.String("join", "", "join the session at host:port")
	doDiscover := flag.Bool("discover", false, "list sessions advertised on the local network")
	name := flag.String("name", "", "display name shown to other peers")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	if *name != "" {
		cfg.Name = *name
	}

	if *doDiscover {
		listSessions()
		return
	}

	mode := "JOIN"
	addr := *joinAddr
	if addr == "" {
		addr = cfg.Server
	}

	var stopAdvertise func()
	if *hostAddr != "" {
		mode = "HOST"
		h := hub.New()
		go func() {
			if err := h.Serve(*hostAddr); err != nil {
				fmt.Fprintf(os.Stderr, "error: hub: %v\n", err)
				os.Exit(1)
			}
		}()
		addr = dialableAddr(*hostAddr)
		if port := portOf(*hostAddr); port > 0 {
			if stop, err := discover.Advertise(cfg.Name, port); err == nil {
				stopAdvertise = stop
			}
		}
		// Give the listener a moment before dialing ourselves.
		time.Sleep(100 * time.Millisecond)
	}

	msgs := make(chan *wire.Message, 256)
	session, err := client.Dial(addr, func(m *wire.Message) { msgs <- m })
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	e := editor.New(cfg, session, msgs, mode)
	runErr := e.Run(addr)
	if stopAdvertise != nil {
		stopAdvertise()
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

func listSessions() {
	sessions, err := discover.Browse(context.Background(), 3*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return
	}
	for _, s := range sessions {
		fmt.Printf("%s\t%s\n", s.Instance, s.Addr)
	}
}

// dialableAddr turns a listen address like ":9000" into one a local
// client can dial.
func dialableAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

func portOf(listen string) int {
	_, port, err := net.SplitHostPort(listen)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return n
}
