package ique

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ique-tools/aulon-go/fs"
)

// consoleProgress prints a terse "done/total" counter to stderr every 128
// blocks (and on the final block), so a full NAND dump or write leaves a
// trace of liveness without flooding the terminal one line per block.
func consoleProgress(prefix string) Progress {
	return func(done, total int) {
		if done%128 != 0 && done != total {
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %d/%d blocks\n", prefix, done, total)
	}
}

// ErrQuit is returned by Dispatch for the 'q' verb; the caller's REPL loop
// should exit cleanly on seeing it rather than treating it as a failure.
var ErrQuit = fmt.Errorf("ique: quit requested")

// Dispatch interprets one REPL input line per spec.md §6: the first
// character selects a verb, and the remainder of the line (after one
// space) supplies a positional argument. It returns text for the caller to
// print and/or an error.
func (s *Session) Dispatch(line string) (string, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", nil
	}
	verb := line[0]
	var arg string
	if len(line) > 1 {
		rest := line[1:]
		rest = strings.TrimPrefix(rest, " ")
		arg = rest
	}

	switch verb {
	case 'B':
		image, err := fs.Bootstrap(s.transport, s.log, s.cfg.timeout())
		if err != nil {
			return "", err
		}
		s.fs = image
		return "filesystem reloaded", nil

	case 'q', 'Q':
		return "", ErrQuit

	case 'I':
		bbid, err := s.GetBBID()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("BBID: 0x%08X", bbid), nil

	case 'H':
		v, err := parseArgUint32(arg)
		if err != nil {
			return "", err
		}
		if err := s.SetLED(v); err != nil {
			return "", err
		}
		return "LED set", nil

	case 'S':
		if arg == "" {
			return "", fmt.Errorf("%w: usage: S <hash_file>", ErrValidation)
		}
		sigPath := arg + ".sig"
		if err := s.SignHashFile(arg, sigPath); err != nil {
			return "", err
		}
		return fmt.Sprintf("signature written to %s", sigPath), nil

	case 'J':
		if err := s.SetTimeNow(); err != nil {
			return "", err
		}
		return "console clock set to current UTC time", nil

	case 'L':
		files := s.ListFiles()
		var b strings.Builder
		for _, f := range files {
			fmt.Fprintf(&b, "%-12s %10d bytes (%d blocks)\n", f.Name, f.Size, f.Blocks)
		}
		return strings.TrimRight(b.String(), "\n"), nil

	case 'F':
		if err := s.DumpCurrentFS(); err != nil {
			return "", err
		}
		return "current filesystem dumped to current_fs.bin", nil

	case '1':
		if err := s.DumpNand(consoleProgress("dump")); err != nil {
			return "", err
		}
		nandName := "nand.bin"
		if s.cfg.CompressNandDumps {
			nandName = "nand.bin.gz"
		}
		return fmt.Sprintf("NAND dumped to %s and spare.bin", nandName), nil

	case 'X':
		blk, err := parseArgUint32(arg)
		if err != nil {
			return "", err
		}
		if err := s.ReadSingleBlock(blk); err != nil {
			return "", err
		}
		return fmt.Sprintf("block 0x%04x dumped to %s and %s", blk, blockFilename(blk), spareFilename(blk)), nil

	case '3':
		if arg == "" {
			return "", fmt.Errorf("%w: usage: 3 <file>", ErrValidation)
		}
		if err := s.ReadFile(arg); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s read to host file %s", arg, arg), nil

	case 'C':
		st := s.Stats()
		return fmt.Sprintf("free=%d used=%d bad=%d seqno=%d", st.Free, st.Used, st.Bad, st.Seqno), nil

	case 'K':
		if arg == "" {
			return "", fmt.Errorf("%w: usage: K <file>", ErrValidation)
		}
		chain, err := s.ListFileBlocks(arg)
		if err != nil {
			return "", err
		}
		parts := make([]string, len(chain))
		for i, b := range chain {
			parts[i] = fmt.Sprintf("0x%04x", b)
		}
		return strings.Join(parts, " -> "), nil

	case 'h':
		return HelpText, nil

	case '?':
		return InfoText, nil

	case 'W':
		if err := s.WriteNandFull(consoleProgress("write")); err != nil {
			return "", err
		}
		return "NAND fully restored from nand.bin/spare.bin", nil

	case '2':
		if err := s.WriteNandPartial(consoleProgress("write")); err != nil {
			return "", err
		}
		return "NAND restored from nand.bin/spare.bin, SKSA left untouched", nil

	case 'Y':
		blk, err := parseArgUint32(arg)
		if err != nil {
			return "", err
		}
		if err := s.WriteSingleBlock(blk); err != nil {
			return "", err
		}
		return fmt.Sprintf("block 0x%04x written from %s/%s", blk, blockFilename(blk), spareFilename(blk)), nil

	case '4':
		if arg == "" {
			return "", fmt.Errorf("%w: usage: 4 <file>", ErrValidation)
		}
		if err := s.WriteFile(arg, arg); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s written to the console", arg), nil

	case 'R':
		if arg == "" {
			return "", fmt.Errorf("%w: usage: R <file>", ErrValidation)
		}
		if err := s.DeleteFile(arg); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s deleted", arg), nil

	default:
		return "", fmt.Errorf("%w: unrecognized verb %q", ErrValidation, string(verb))
	}
}

func parseArgUint32(arg string) (uint32, error) {
	if arg == "" {
		return 0, fmt.Errorf("%w: missing numeric argument", ErrValidation)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(arg), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a valid number", ErrValidation, arg)
	}
	return uint32(v), nil
}

// HelpText is printed for the 'h' verb.
const HelpText = `B              reconnect and reload the filesystem
I              print the console's BBID
H <value>      set the front LED
S <hash_file>  sign a 20-byte SHA1 hash, writing <hash_file>.sig
J              set the console clock to the current UTC time
L              list files
F              dump the current filesystem superblock to current_fs.bin
1              dump the full NAND to nand.bin/spare.bin
X <blk>        dump a single block to block_NNNN/spare_NNNN
3 <file>       read a console file to a host file of the same name
C              print free/used/bad block counts and the sequence number
K <file>       list a file's block chain
h              this help text
?              connection info
q              quit
Write mode only:
W              restore the full NAND from nand.bin/spare.bin, including SKSA
2              restore the NAND from nand.bin/spare.bin, skipping SKSA
Y <blk>        write block_NNNN/spare_NNNN back to a single block
4 <file>       write a host file to the console under the same name
R <file>       delete a console file`

// InfoText is printed for the '?' verb.
const InfoText = "iQue Player NAND/FS host agent"
