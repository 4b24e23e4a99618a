// Command asetate synchronizes a Discogs record collection into the local
// catalog and manages backups of user annotations.
//
// Usage:
//
//	asetate <command> <discogs-username> [flags]
//
// Commands:
//
//	sync     start a fresh synchronization run
//	resume   continue the latest paused or failed run from its checkpoint
//	status   show the latest run
//	pause    pause the in-flight run of this process
//	cancel   abandon the latest run and discard its checkpoint
//	backup   export user annotations to a local file
//	upload   export annotations and upload the archive to S3 storage
//	restore  apply an archive file (third argument) onto the catalog
//
// Flags (also settable via -c/-config JSON file): see internal/config.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/asetate/asetate/internal/app"
	"github.com/asetate/asetate/internal/config"
	"github.com/asetate/asetate/internal/models"
	"github.com/asetate/asetate/internal/syncer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cmd, args := positional(os.Args[1:])
	if cmd == "" {
		return errors.New("usage: asetate <sync|resume|status|pause|cancel|backup|upload|restore> <discogs-username>")
	}
	if len(args) < 1 {
		return fmt.Errorf("command %q requires a discogs username", cmd)
	}
	username := args[0]

	cfg := config.LoadConfig()

	ctx := context.Background()
	a, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Init(ctx); err != nil {
		return err
	}

	switch cmd {
	case "sync", "resume":
		run, err := a.Sync(ctx, username, cmd == "resume", promptToken)
		if err != nil {
			return err
		}
		printRun(run)
		return nil

	case "status":
		run, err := a.Status(ctx, username)
		if err != nil {
			return err
		}
		printRun(run)
		return nil

	case "pause":
		if err := a.Pause(ctx, username); err != nil {
			if errors.Is(err, syncer.ErrNotRunning) {
				return errors.New("no sync running in this process; interrupt a foreground sync with Ctrl-C instead")
			}
			return err
		}
		fmt.Println("sync paused")
		return nil

	case "cancel":
		if err := a.Cancel(ctx, username); err != nil {
			return err
		}
		fmt.Println("sync cancelled, checkpoint discarded")
		return nil

	case "backup", "upload":
		path, key, err := a.Backup(ctx, username, cmd == "upload")
		if err != nil {
			return err
		}
		fmt.Printf("archive written to %s\n", path)
		if key != "" {
			fmt.Printf("uploaded as %s\n", key)
		}
		return nil

	case "restore":
		if len(args) < 2 {
			return errors.New("usage: asetate restore <discogs-username> <archive-file>")
		}
		applied, skipped, err := a.Restore(ctx, username, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("restored %d entries (%d skipped)\n", applied, skipped)
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printRun(run *models.SyncRun) {
	fmt.Printf("run %s: %s (%.0f%%)\n", run.ID, run.Status, run.ProgressPercent())
	fmt.Printf("  pages %d/%d, items %d/%d\n",
		run.PagesCompleted, run.TotalPages, run.ProcessedItems, run.TotalItems)
	fmt.Printf("  added %d, updated %d, unchanged %d, removed %d\n",
		run.Added, run.Updated, run.Unchanged, run.Removed)
	if run.LastError != "" {
		fmt.Printf("  last error: %s\n", run.LastError)
	}
}

// positional splits args into the subcommand and its positional arguments,
// skipping flags and their values.
func positional(args []string) (string, []string) {
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		out = append(out, arg)
	}
	if len(out) == 0 {
		return "", nil
	}
	return out[0], out[1:]
}

// promptToken reads a Discogs personal access token without echoing it.
func promptToken(username string) (string, error) {
	fmt.Printf("Discogs token for %s: ", username)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}
