package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/trackmeta/internal/metadata"
	"github.com/dmitrijs2005/trackmeta/internal/services"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}

func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("import <file.json>")
	}

	data, err := readFile(args[0])
	if err != nil {
		return err
	}

	var doc services.ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	id, err := a.tracks.Import(ctx, doc)
	if err != nil {
		return err
	}
	printlnFn("Imported", id)
	return nil
}

func (a *App) List(ctx context.Context, _ []string) error {
	ids, err := a.tracks.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		printlnFn(id)
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("show <id>")
	}

	m, err := a.tracks.Get(ctx, args[0])
	if err != nil {
		return err
	}

	for _, item := range m.View().Items() {
		printlnFn(fmt.Sprintf("%s: %s", item.Key, item.Value))
	}
	if deleted := m.DeletedTags(); len(deleted) > 0 {
		printlnFn("deleted:", strings.Join(deleted, ", "))
	}
	if ms, ok := m.Length(); ok {
		printlnFn(fmt.Sprintf("length: %d ms", ms))
	}
	return nil
}

// Set replaces a tag with the remaining arguments joined by spaces. Without
// a value the tag is deleted if it is present.
func (a *App) Set(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("set <id> <tag> [value]")
	}
	value := strings.Join(args[2:], " ")
	return a.tracks.Edit(ctx, args[0], func(m *metadata.Metadata) error {
		m.Assign(args[1], value)
		return nil
	})
}

func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usage("add <id> <tag> <value>")
	}
	value := strings.Join(args[2:], " ")
	return a.tracks.Edit(ctx, args[0], func(m *metadata.Metadata) error {
		m.Add(args[1], value)
		return nil
	})
}

func (a *App) Del(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("del <id> <tag>")
	}
	return a.tracks.Edit(ctx, args[0], func(m *metadata.Metadata) error {
		m.Delete(args[1])
		return nil
	})
}

func (a *App) Length(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("length <id> <ms>")
	}
	ms, err := strconv.Atoi(args[1])
	if err != nil || ms < 0 {
		return fmt.Errorf("invalid length %q", args[1])
	}
	return a.tracks.Edit(ctx, args[0], func(m *metadata.Metadata) error {
		m.SetLength(ms)
		return nil
	})
}

func (a *App) Trim(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("trim <id>")
	}
	return a.tracks.Edit(ctx, args[0], func(m *metadata.Metadata) error {
		m.ApplyFunc(strings.TrimSpace)
		return nil
	})
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("rm <id>")
	}
	return a.tracks.Remove(ctx, args[0])
}

func (a *App) Compare(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("compare <id> <id>")
	}
	score, err := a.tracks.Compare(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%.4f", score))
	return nil
}

func (a *App) Match(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("match <id>")
	}
	results, err := a.tracks.Match(ctx, args[0])
	if err != nil {
		return err
	}
	if len(results) == 0 {
		printlnFn("No matches")
		return nil
	}
	for _, r := range results {
		printlnFn(fmt.Sprintf("%.4f %s", r.Score, r.ID))
	}
	return nil
}

func (a *App) Archive(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("archive <id>")
	}
	if err := a.tracks.Archive(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Archived", args[0])
	return nil
}

func (a *App) Restore(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("restore <id>")
	}
	if err := a.tracks.Restore(ctx, args[0]); err != nil {
		return err
	}
	printlnFn("Restored", args[0])
	return nil
}
