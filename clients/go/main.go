// Command batepapo-cli is a minimal terminal client for the batepapo
// chat room API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/BrVecchi/projeto13-batepapo-uol-api/clients/go/batepapo"
)

func main() {
	server := flag.String("server", "http://localhost:5000", "server base URL")
	user := flag.String("user", "", "display name")
	flag.Parse()

	if *user == "" || flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	c := batepapo.NewClient(*server, *user)

	var err error
	switch flag.Arg(0) {
	case "join":
		_, err = c.Join()
		if err == nil {
			fmt.Printf("joined as %s\n", *user)
		}
	case "who":
		var list []batepapo.Participant
		list, err = c.Participants()
		for _, p := range list {
			fmt.Println(p.Name)
		}
	case "send":
		if flag.NArg() < 2 {
			usage()
			os.Exit(2)
		}
		_, err = c.Send(flag.Arg(1))
	case "dm":
		if flag.NArg() < 3 {
			usage()
			os.Exit(2)
		}
		_, err = c.SendPrivate(flag.Arg(1), flag.Arg(2))
	case "read":
		var msgs []batepapo.Message
		msgs, err = c.Messages(50)
		for _, m := range msgs {
			printMessage(m)
		}
	case "find":
		if flag.NArg() < 2 {
			usage()
			os.Exit(2)
		}
		var msgs []batepapo.Message
		msgs, err = c.Find(flag.Arg(1), 20)
		for _, m := range msgs {
			printMessage(m)
		}
	case "ping":
		err = c.Heartbeat()
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printMessage(m batepapo.Message) {
	ts := m.Time
	if t, err := time.Parse(time.RFC3339, m.Time); err == nil {
		ts = t.Local().Format("15:04:05")
	}
	switch m.Type {
	case "private_message":
		fmt.Printf("%s %s -> %s (private): %s\n", ts, m.From, m.To, m.Text)
	case "system":
		fmt.Printf("%s * %s\n", ts, m.Text)
	default:
		fmt.Printf("%s %s: %s\n", ts, m.From, m.Text)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: batepapo-cli -user NAME [-server URL] COMMAND

commands:
  join             enter the room
  who              list participants
  send TEXT        broadcast a message
  dm TO TEXT       send a private message
  read             print recent visible messages
  find QUERY       search visible messages
  ping             send a heartbeat`)
}
