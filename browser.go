package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"postboard/postlist"
	"postboard/storage"
	"postboard/storage/models"
	"strings"
	"time"
)

const browseHelp = `commands:
  more                               load the next page
  refresh                            reload the newest posts
  search <term>                      search titles, content and tags
  show <id>                          print one post
  post <title> | <content> [| tags]  create a post, tags comma separated
  edit <id> <title> | <content> [| tags]
  delete <id>
  quit`

// Browse runs a line-oriented post browser reading commands from in.
func Browse(ctx context.Context, s storage.Storage, in io.Reader, out io.Writer) error {
	list := postlist.New(ctx, s)
	renderState(out, list.State())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		command, arg := splitCommand(scanner.Text())
		switch command {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, browseHelp)
		case "more":
			list.LoadMore(ctx)
			renderState(out, list.State())
		case "refresh":
			list.Refresh(ctx)
			renderState(out, list.State())
		case "search":
			list.Search(ctx, arg)
			renderState(out, list.State())
		case "show":
			post, err := s.GetPost(ctx, arg)
			if err != nil {
				fmt.Fprintln(out, storage.Message(err))
				continue
			}
			renderPost(out, post)
		case "post":
			input, err := parsePostInput(arg)
			if err != nil {
				fmt.Fprintln(out, storage.Message(err))
				continue
			}
			id, err := s.AddPost(ctx, input)
			if err != nil {
				fmt.Fprintln(out, storage.Message(err))
				continue
			}
			fmt.Fprintf(out, "created %s\n", id)
			list.Refresh(ctx)
			renderState(out, list.State())
		case "edit":
			id, rest := splitCommand(arg)
			input, err := parsePostInput(rest)
			if err == nil {
				err = s.UpdatePost(ctx, id, input)
			}
			if err != nil {
				fmt.Fprintln(out, storage.Message(err))
				continue
			}
			fmt.Fprintf(out, "updated %s\n", id)
			list.Refresh(ctx)
			renderState(out, list.State())
		case "delete":
			if err := s.RemovePost(ctx, arg); err != nil {
				fmt.Fprintln(out, storage.Message(err))
				continue
			}
			fmt.Fprintf(out, "deleted %s\n", arg)
			list.Refresh(ctx)
			renderState(out, list.State())
		default:
			fmt.Fprintf(out, "unknown command %q, try help\n", command)
		}
	}
}

func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	command, arg, _ := strings.Cut(line, " ")
	return command, strings.TrimSpace(arg)
}

// parsePostInput reads "title | content | tag1,tag2" and validates it.
func parsePostInput(arg string) (models.PostInput, error) {
	parts := strings.SplitN(arg, "|", 3)
	if len(parts) < 2 {
		return models.PostInput{}, storage.NewValidationError("content", "Expected <title> | <content>.")
	}
	in := models.PostInput{Title: parts[0], Content: parts[1]}
	if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
		in.Tags = strings.Split(parts[2], ",")
	}
	in = storage.TrimPostInput(in)
	if err := storage.ValidatePostInput(in); err != nil {
		return models.PostInput{}, err
	}
	return in, nil
}

func renderState(out io.Writer, state postlist.State) {
	if state.Mode == postlist.ModeSearch {
		fmt.Fprintf(out, "search %q: %d result(s)\n", state.Term, len(state.Posts))
	}
	if len(state.Posts) == 0 && state.Status != postlist.StatusFailed {
		fmt.Fprintln(out, "no posts")
	}
	for _, p := range state.Posts {
		line := fmt.Sprintf("%s  %s  %s", p.CreatedAt.Local().Format(time.DateTime), p.Id, p.Title)
		if len(p.Tags) > 0 {
			line += "  #" + strings.Join(p.Tags, " #")
		}
		fmt.Fprintln(out, line)
	}
	if state.Status == postlist.StatusFailed {
		fmt.Fprintf(out, "error: %s\n", state.Err)
	}
	if state.HasMore {
		fmt.Fprintln(out, "(more available)")
	}
}

func renderPost(out io.Writer, p models.Post) {
	fmt.Fprintf(out, "%s\nby %s, created %s, updated %s\n",
		p.Title, p.Author, p.CreatedAt.Local().Format(time.DateTime), p.UpdatedAt.Local().Format(time.DateTime))
	if len(p.Tags) > 0 {
		fmt.Fprintf(out, "tags: %s\n", strings.Join(p.Tags, ", "))
	}
	fmt.Fprintf(out, "\n%s\n", p.Content)
}
