// Command aulon-go is the interactive console for the iQue Player NAND/FS
// host agent: it opens the USB connection, runs the connect sequence, and
// drives a REPL (or a script file via -f) over the verbs Dispatch
// understands.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	ique "github.com/ique-tools/aulon-go"
	"github.com/ique-tools/aulon-go/internal/iquelog"
	"github.com/ique-tools/aulon-go/internal/usbtransport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "aulon-go:", err)
		os.Exit(1)
	}
}

func run() error {
	scriptPath := flag.String("f", "", "read commands from this file instead of stdin")
	logPath := flag.String("l", "", "append log output to this file instead of stderr (individual USB transfers are not traced)")
	writeEnabled := flag.Bool("w", false, "enable destructive verbs (W, 2, Y, 4, R)")
	compress := flag.Bool("z", false, "gzip full NAND dumps to nand.bin.gz")
	timeout := flag.Duration("timeout", 1*time.Second, "per-transfer USB timeout (0 = infinite)")
	flag.Parse()

	logOut, err := openLogOutput(*logPath)
	if err != nil {
		return err
	}
	if closer, ok := logOut.(io.Closer); ok {
		defer closer.Close()
	}
	log := iquelog.New(logOut)

	transport, err := usbtransport.Open()
	if err != nil {
		return fmt.Errorf("opening USB transport: %w", err)
	}
	defer transport.Close()

	session, err := ique.Connect(transport, ique.Config{
		Timeout:           *timeout,
		WriteEnabled:      *writeEnabled,
		Log:               log,
		CompressNandDumps: *compress,
	})
	if err != nil {
		return fmt.Errorf("connecting to the console: %w", err)
	}
	defer session.Close()

	input, interactive, err := openInput(*scriptPath)
	if err != nil {
		return err
	}
	if closer, ok := input.(io.Closer); ok {
		defer closer.Close()
	}

	return repl(session, input, interactive)
}

func openLogOutput(path string) (io.Writer, error) {
	if path == "" {
		return os.Stderr, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	return f, nil
}

func openInput(scriptPath string) (io.Reader, bool, error) {
	if scriptPath != "" {
		f, err := os.Open(scriptPath)
		if err != nil {
			return nil, false, fmt.Errorf("opening script %s: %w", scriptPath, err)
		}
		return f, false, nil
	}
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	return os.Stdin, interactive, nil
}

func repl(session *ique.Session, input io.Reader, interactive bool) error {
	scanner := bufio.NewScanner(input)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		out, err := session.Dispatch(scanner.Text())
		if err != nil {
			if errors.Is(err, ique.ErrQuit) {
				return nil
			}
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}
