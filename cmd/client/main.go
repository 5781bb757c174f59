/*
Package main is the yapnet demo CLI.

It exercises the client library end to end against a running API (by default
the local devserver): mint a token, run the registration handshake, scroll a
feed, inspect a profile, or sit in the chat room echoing messages until
interrupted. It is a development tool, not a user-facing product.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"yapnet/internal/app/api"
	"yapnet/internal/app/chat"
	"yapnet/internal/app/feed"
	"yapnet/internal/app/profile"
	"yapnet/internal/app/session"
	"yapnet/internal/configs"
	"yapnet/internal/pkg/logx"
)

func main() {
	cmd := flag.String("cmd", "feed", "Command: feed|profile|chat|post")
	resource := flag.String("resource", feed.ResourcePosts, "Feed resource: posts|news|blog")
	username := flag.String("user", "", "Username (for profile)")
	uid := flag.String("uid", "demo-user", "Principal uid for the dev token mint")
	email := flag.String("email", "demo@example.com", "Principal email for the dev token mint")
	title := flag.String("title", "", "Title (for post)")
	body := flag.String("body", "", "Body text (for post)")
	pages := flag.Int("pages", 2, "How many feed pages to pull")
	flag.Parse()

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.Environment == "development")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens := session.NewCachingTokenSource(mintRefresher(cfg, *uid, *email))
	sess := session.NewSession(*uid, *email, tokens)
	rest := api.NewClient(cfg.APIBaseURL, sess, cfg.RequestTimeout)

	switch *cmd {
	case "feed":
		if err := runFeed(ctx, rest, cfg, *resource, *pages); err != nil {
			logx.Fatal(err, "Feed command failed")
		}
	case "profile":
		if err := runProfile(ctx, rest, *username); err != nil {
			logx.Fatal(err, "Profile command failed")
		}
	case "chat":
		if err := runChat(ctx, rest, sess, cfg); err != nil {
			logx.Fatal(err, "Chat command failed")
		}
	case "post":
		if err := runPost(ctx, rest, *title, *body); err != nil {
			logx.Fatal(err, "Post command failed")
		}
	default:
		fmt.Fprintln(os.Stderr, "Unknown command:", *cmd)
		os.Exit(1)
	}
}

// mintRefresher asks the devserver's token mint for a fresh bearer token.
// Against a production API this is where the identity provider SDK would sit.
func mintRefresher(cfg *configs.AppConfig, uid, email string) session.RefreshFunc {
	mint := api.NewTokenMint(cfg.APIBaseURL, cfg.RequestTimeout)

	return func(ctx context.Context) (string, error) {
		return mint.Mint(ctx, uid, email)
	}
}

func runFeed(ctx context.Context, rest *api.Client, cfg *configs.AppConfig, resource string, pages int) error {
	fetcher := feed.NewFetcher(rest)
	ctrl := feed.NewController(fetcher, resource, cfg.PageSize)

	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}
	for i := 1; i < pages && ctrl.HasMore(); i++ {
		if err := ctrl.LoadMore(ctx); err != nil {
			return err
		}
	}

	for _, it := range ctrl.Items() {
		fmt.Printf("[%s] %s by %s (likes=%d saves=%d comments=%d)\n",
			it.CreatedAt.Format("2006-01-02 15:04"), it.Title, it.Username,
			it.LikeCount, it.SaveCount, it.CommentCount)
	}
	fmt.Printf("%d items, hasMore=%v\n", ctrl.Len(), ctrl.HasMore())
	return nil
}

func runProfile(ctx context.Context, rest *api.Client, username string) error {
	client := profile.NewClient(rest)

	if username == "" {
		return fmt.Errorf("--user is required for the profile command")
	}

	p, err := client.Get(ctx, username)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", p.Username, p.Title)
	fmt.Printf("about: %s\nmood: %s  status: %s  location: %s\n", p.About, p.Mood, p.Status, p.Location)
	for i, topic := range p.Topics() {
		if topic.Name != "" {
			fmt.Printf("topic%d: %s: %s\n", i+1, topic.Name, topic.Description)
		}
	}
	fmt.Printf("canEdit: %v\n", p.CanEdit)
	return nil
}

func runChat(ctx context.Context, rest *api.Client, tokens chat.TokenSource, cfg *configs.AppConfig) error {
	sess := chat.NewSession(cfg.ChatWSURL, tokens, rest)

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	defer sess.Close()

	fmt.Println("Connected. Messages stream below; interrupt to leave.")

	printed := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sess.Notify():
			msgs := sess.Messages()
			for _, m := range msgs[printed:] {
				fmt.Printf("%s <%s> %s\n", m.Timestamp, m.Username, m.Content)
			}
			printed = len(msgs)

			if state := sess.State(); state != chat.StateConnected {
				if err := sess.Err(); err != nil {
					return err
				}
				return nil
			}
		}
	}
}

func runPost(ctx context.Context, rest *api.Client, title, body string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("--title is required for the post command")
	}

	fetcher := feed.NewFetcher(rest)
	id, err := fetcher.CreatePost(ctx, feed.Draft{Title: title, Content: body})
	if err != nil {
		return err
	}

	fmt.Println("Created post", id)
	return nil
}
