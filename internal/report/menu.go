package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter reads answers line by line from an interactive input
type Prompter struct {
	sc  *bufio.Scanner
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{sc: bufio.NewScanner(in), out: out}
}

// Ask prints the prompt and returns the trimmed answer; ok is false once input is exhausted
func (p *Prompter) Ask(prompt string) (answer string, ok bool) {
	fmt.Fprint(p.out, prompt)
	if !p.sc.Scan() {
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.sc.Text()), true
}

// AskInt parses the answer as a positive number, falling back to def
func (p *Prompter) AskInt(prompt string, def int) (int, bool) {
	answer, ok := p.Ask(prompt)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n <= 0 {
		return def, true
	}
	return n, true
}

const menuText = `
🗄️  Video Database Viewer
1. Show statistics
2. Show recent videos
3. Search videos
4. Show videos by creator
5. Show video details
6. Show download sessions
7. Exit
`

// Menu runs the interactive viewer until the user exits, input ends or ctx is cancelled
func (p *Printer) Menu(ctx context.Context, in io.Reader) error {
	pr := NewPrompter(in, p.out)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.printf("%s", menuText)
		choice, ok := pr.Ask("\nSelect option (1-7): ")
		if !ok {
			return nil
		}

		var err error
		switch choice {
		case "1":
			err = p.Statistics(ctx)
		case "2":
			limit, ok := pr.AskInt(fmt.Sprintf("Number of videos to show (default %d): ", DefaultRecentLimit), DefaultRecentLimit)
			if !ok {
				return nil
			}
			err = p.Recent(ctx, limit)
		case "3":
			query, ok := pr.Ask("Search query: ")
			if !ok {
				return nil
			}
			if query == "" {
				continue
			}
			field, ok := pr.Ask("Search in (all/title/creator/description, default all): ")
			if !ok {
				return nil
			}
			err = p.Search(ctx, query, field)
		case "4":
			creator, ok := pr.Ask("Creator username: ")
			if !ok {
				return nil
			}
			if creator == "" {
				continue
			}
			err = p.Creator(ctx, creator)
		case "5":
			id, ok := pr.Ask("Video ID: ")
			if !ok {
				return nil
			}
			if id == "" {
				continue
			}
			err = p.Video(ctx, id, false)
		case "6":
			limit, ok := pr.AskInt(fmt.Sprintf("Number of sessions to show (default %d): ", DefaultSessionsLimit), DefaultSessionsLimit)
			if !ok {
				return nil
			}
			err = p.Sessions(ctx, limit)
		case "7", "q", "quit", "exit":
			p.printf("👋 Goodbye!\n")
			return nil
		default:
			p.printf("%s\n", p.c.red("❌ Invalid option"))
			continue
		}

		if err != nil {
			p.printf("%s\n", p.c.red("❌ "+err.Error()))
		}
	}
}
