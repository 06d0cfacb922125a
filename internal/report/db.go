package report

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const dbUsage = `Usage: clipvault db <command>

Commands:
  stats                     Show archive statistics
  recent [N]                Show the N most recent videos (default 10)
  search <query> [field]    Search videos; field is all, title, creator or description
  creator <name>            Show videos by a creator
  video <id> [--raw]        Show one video, --raw adds the stored metadata
  sessions [N]              Show the N most recent download sessions (default 10)

With no command an interactive menu is shown.`

// RunDB executes one db subcommand, or the menu when args is empty
func (p *Printer) RunDB(ctx context.Context, args []string, in io.Reader) error {
	if len(args) == 0 {
		return p.Menu(ctx, in)
	}

	cmd, rest := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "stats":
		return p.Statistics(ctx)
	case "recent":
		limit, err := optionalCount(rest, DefaultRecentLimit)
		if err != nil {
			return err
		}
		return p.Recent(ctx, limit)
	case "search":
		if len(rest) == 0 {
			return fmt.Errorf("search needs a query\n\n%s", dbUsage)
		}
		field := ""
		if len(rest) > 1 {
			field = rest[1]
		}
		return p.Search(ctx, rest[0], field)
	case "creator":
		if len(rest) == 0 {
			return fmt.Errorf("creator needs a username\n\n%s", dbUsage)
		}
		return p.Creator(ctx, rest[0])
	case "video":
		var id string
		var raw bool
		for _, a := range rest {
			if a == "--raw" {
				raw = true
				continue
			}
			id = a
		}
		if id == "" {
			return fmt.Errorf("video needs an id\n\n%s", dbUsage)
		}
		return p.Video(ctx, id, raw)
	case "sessions":
		limit, err := optionalCount(rest, DefaultSessionsLimit)
		if err != nil {
			return err
		}
		return p.Sessions(ctx, limit)
	case "help", "-h", "--help":
		p.printf("%s\n", dbUsage)
		return nil
	default:
		return fmt.Errorf("unknown db command %q\n\n%s", args[0], dbUsage)
	}
}

func optionalCount(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid count %q: want a positive number", args[0])
	}
	return n, nil
}
