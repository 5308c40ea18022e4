package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/avoront/rubrica/internal/client"
	"github.com/avoront/rubrica/internal/logger"
	"github.com/avoront/rubrica/internal/models"
)

var (
	version   string
	buildDate string
)

// promptField reads one line and trims it.
func promptField(scanner *bufio.Scanner, label string) string {
	fmt.Printf("%s: ", label)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

// promptContact reads the three contact fields. Empty fields are allowed:
// in a search they act as wildcards.
func promptContact(scanner *bufio.Scanner) models.Contact {
	return models.Contact{
		Name:    promptField(scanner, "Name"),
		Surname: promptField(scanner, "Surname"),
		Phone:   promptField(scanner, "Phone number"),
	}
}

// login prompts for credentials, reading the password with echo disabled.
func login(ctx context.Context, c *client.Client, scanner *bufio.Scanner) {
	username := promptField(scanner, "Username")
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		fmt.Println("Could not read password:", err)
		return
	}
	if err := c.Login(ctx, username, string(password)); err != nil {
		fmt.Println("Login failed:", err)
		return
	}
	fmt.Println("Logged in as", username)
}

// report prints a human answer for the errors the server maps to outcomes.
func report(err error) {
	switch {
	case err == nil:
		fmt.Println("Done")
	case errors.Is(err, client.ErrCredentialsExpired):
		fmt.Println("Your credentials are no longer valid, please login again")
	case errors.Is(err, client.ErrAlreadyExists):
		fmt.Println("That contact is already in the list")
	case errors.Is(err, client.ErrAlreadyModified):
		fmt.Println("The contact was changed or removed in the meantime")
	case errors.Is(err, client.ErrNotLoggedIn):
		fmt.Println("Please login first")
	default:
		fmt.Println("Operation failed:", err)
	}
}

// repl runs the interactive shell loop, accepting commands to browse and
// manage the address book.
func repl(ctx context.Context, c *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)

	// Browsing state: the active filter and the index of the last match
	// shown, so "next" can page through the results.
	var filter models.Contact
	var index uint

	for {
		fmt.Print("rubrica> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, login, read [n], next, add, del, edit, exit")
		case "login":
			login(ctx, c, scanner)
		case "read":
			filter = promptContact(scanner)
			index = 1
			if len(args) > 1 {
				n, err := strconv.ParseUint(args[1], 10, 32)
				if err != nil {
					fmt.Println("Usage: read [n]")
					continue
				}
				index = uint(n)
			}
			showMatch(ctx, c, filter, index)
		case "next":
			if index == 0 {
				fmt.Println("Run 'read' first")
				continue
			}
			index++
			showMatch(ctx, c, filter, index)
		case "add":
			fmt.Println("New contact to add:")
			report(c.Add(ctx, promptContact(scanner)))
		case "del":
			fmt.Println("Contact to remove:")
			report(c.Delete(ctx, promptContact(scanner)))
		case "edit":
			fmt.Println("Contact to modify:")
			old := promptContact(scanner)
			fmt.Println("New details:")
			report(c.Modify(ctx, old, promptContact(scanner)))
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func showMatch(ctx context.Context, c *client.Client, filter models.Contact, n uint) {
	found, err := c.Read(ctx, filter, n)
	switch {
	case err == nil:
		fmt.Printf("%d) %s %s, %s\n", n, found.Name, found.Surname, found.Phone)
	case errors.Is(err, client.ErrContactMissing):
		fmt.Println("No more matching contacts")
	default:
		fmt.Println("Search failed:", err)
	}
}

// main connects to the server and hands control to the shell.
func main() {
	var (
		addr    string
		showVer bool
	)

	flag.StringVar(&addr, "a", "localhost:50000", "server address (ip:port)")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Rubrica Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	zl := logger.New()
	if err := zl.Init("Error"); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Log.Sync() }()

	ctx := context.Background()
	c, err := client.Dial(ctx, addr, zl.Log)
	if err != nil {
		log.Fatal(err)
	}

	repl(ctx, c)

	if err := c.Close(); err != nil {
		fmt.Println("Disconnect failed:", err)
	}
}
