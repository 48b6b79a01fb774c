package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/chiptrack/chiptrack/client"
)

func main() {
	server := flag.String("server", "localhost:8080", "server address (host:port)")
	code := flag.String("code", "main", "table code to join")
	flag.Parse()

	handler := pterm.NewSlogHandler(&pterm.DefaultLogger)
	logger := slog.New(handler)

	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Chip", pterm.FgLightGreen.ToStyle()),
		putils.LettersFromStringWithStyle("Track", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}

	username, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your username").Show()
	username = strings.TrimSpace(username)
	if username == "" {
		pterm.Error.Println("a username is required")
		os.Exit(1)
	}

	store := client.NewStore()
	notifier := client.NewNotifier(0)

	c := client.New(client.Config{
		ServerAddr: *server,
		Username:   username,
		TableCode:  *code,
		Log:        logger,
		Notifier:   notifier,
	}, store)

	renderer := client.NewRenderer(store, notifier, username, logger)
	defer renderer.Stop()

	c.SetRenderHook(renderer.Render)
	notifier.OnChange(renderer.Render)

	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		pterm.Error.Printfln("connect: %v", err)
		os.Exit(1)
	}
	defer c.Close()

	go func() {
		if err := c.Listen(ctx); err != nil {
			pterm.Println()
			pterm.Error.Println("connection closed")
			os.Exit(1)
		}
	}()

	dispatcher := client.NewDispatcher(store, notifier, c)
	repl(dispatcher, store, notifier, renderer)
}

func repl(d *client.Dispatcher, store *client.Store, notifier *client.Notifier, renderer *client.Renderer) {
	printHelp()
	for {
		line, _ := pterm.DefaultInteractiveTextInput.WithDefaultText(">").Show()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		arg := func(i int) string {
			if i < len(fields) {
				return fields[i]
			}
			return ""
		}

		switch strings.ToLower(fields[0]) {
		case "select":
			store.SetSelectedPlayer(arg(1))
			renderer.Render()
		case "bet":
			d.Bet(arg(1))
		case "fold":
			d.Fold()
		case "unfold":
			d.Unfold()
		case "next":
			d.NextRound()
		case "start":
			d.StartGame(arg(1), arg(2))
		case "pay":
			d.Distribute(arg(1), arg(2))
		case "end":
			ok, _ := pterm.DefaultInteractiveConfirm.
				WithDefaultText("End the game and clear the pot?").Show()
			d.EndGame(ok)
		case "chips":
			d.AdjustChips(arg(1), arg(2))
		case "remove":
			ok, _ := pterm.DefaultInteractiveConfirm.
				WithDefaultText("Remove " + arg(1) + " from the table?").Show()
			d.Remove(arg(1), ok)
		case "up":
			d.MovePlayerUp(arg(1))
		case "down":
			d.MovePlayerDown(arg(1))
		case "theme":
			store.SetTheme(arg(1))
			renderer.Render()
		case "help":
			printHelp()
		case "quit", "exit":
			return
		default:
			notifier.Notify("Unknown command; type 'help'")
		}
	}
}

func printHelp() {
	pterm.Println(pterm.Gray(strings.Join([]string{
		"commands:",
		"  select <name>        choose the player you act for",
		"  bet <amount>         place a bet for the selected player",
		"  fold                 fold the selected player",
		"  unfold               bring the selected player back in",
		"  next                 advance to the next betting round",
		"  pay <name> <amount>  award part of the pot to a winner",
		"  start [small big]    start a game (default blinds 5/10)",
		"  end                  end the current game",
		"  chips <name> <n>     adjust a stack by n (may be negative)",
		"  remove <name>        remove a player from the table",
		"  up/down <name>       move a player in the seating order",
		"  theme <name>         switch the display theme",
		"  quit                 leave the table",
	}, "\n")))
}
