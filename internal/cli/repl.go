package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"unicode"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Import(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Set(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Del(ctx context.Context, args []string) error
	Length(ctx context.Context, args []string) error
	Trim(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	Compare(ctx context.Context, args []string) error
	Match(ctx context.Context, args []string) error
	Archive(ctx context.Context, args []string) error
	Restore(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  import <file.json>         import a track from a JSON document
  (l)ist                     list track ids
  show <id>                  show the tags of a track
  set <id> <tag> [value]     replace a tag; no value deletes it
  add <id> <tag> <value>     append a value to a tag
  del <id> <tag>             delete a tag
  length <id> <ms>           set the track length in milliseconds
  trim <id>                  strip surrounding whitespace from every value
  rm <id>                    remove a track
  compare <id> <id>          similarity score of two tracks
  match <id>                 rank every other track against one
  archive <id>               upload a snapshot to the archive
  restore <id>               merge the archived snapshot back
  exit | quit                leave the program`

// runREPL reads commands line by line from scanner and dispatches them to a.
// The first token is the command, the rest are its arguments. Command errors
// are reported and the loop continues. The loop exits on scanner EOF or
// when the user types "exit" or "quit". The prompt is printed only when
// prompt is set, so piped input produces clean output.
func runREPL(ctx context.Context, a execIface, prompt bool, scanner *bufio.Scanner) {
	for {
		if prompt {
			printlnFn("trackmeta> ")
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "import":
			err = a.Import(ctx, args)
		case "l", "list":
			err = a.List(ctx, args)
		case "show":
			err = a.Show(ctx, args)
		case "set":
			err = a.Set(ctx, fieldsN(line, 4)[1:])
		case "add":
			err = a.Add(ctx, fieldsN(line, 4)[1:])
		case "del":
			err = a.Del(ctx, args)
		case "length":
			err = a.Length(ctx, args)
		case "trim":
			err = a.Trim(ctx, args)
		case "rm":
			err = a.Remove(ctx, args)
		case "compare":
			err = a.Compare(ctx, args)
		case "match":
			err = a.Match(ctx, args)
		case "archive":
			err = a.Archive(ctx, args)
		case "restore":
			err = a.Restore(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

// fieldsN splits s like strings.Fields into at most n fields. The last field
// is the rest of the line with its inner whitespace kept, so tag values
// survive as typed.
func fieldsN(s string, n int) []string {
	var out []string
	s = strings.TrimSpace(s)
	for s != "" && len(out) < n-1 {
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			break
		}
		out = append(out, s[:i])
		s = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
