// Command wsclient drives an avatar session from the terminal.
//
// Usage:
//
//	wsclient chat "hello there"
//	wsclient audio speech.wav
//	wsclient pose '{"yaw":0.2}'
//
// Every subcommand connects to the session endpoint, sends its input and
// prints the server messages it gets back.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
