// Package main is the interactive demand client: a REPL over the
// remote demand API with a persisted login session.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/chaabi-dev/demandhub/internal/authz"
	"github.com/chaabi-dev/demandhub/internal/config"
	"github.com/chaabi-dev/demandhub/internal/gateway"
	"github.com/chaabi-dev/demandhub/internal/models"
	"github.com/chaabi-dev/demandhub/internal/session"
	"github.com/chaabi-dev/demandhub/internal/workflow"
)

var (
	version   string
	buildDate string
)

// app bundles the client-side components the REPL commands need.
type app struct {
	client  *gateway.Client
	session *session.Store
	scanner *bufio.Scanner
}

func main() {
	showVer := flag.Bool("version", false, "show build version and date")
	options := config.Parse()

	if *showVer {
		fmt.Printf("DemandHub Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	// The store needs the gateway for login calls and the gateway
	// needs the store for bearer tokens; a TokenFunc breaks the cycle.
	var store *session.Store
	client := gateway.NewClient(options.BaseURL, gateway.TokenFunc(func() (string, bool) {
		if store == nil {
			return "", false
		}
		return store.Token()
	}), zap.NewNop())
	store = session.NewStore(client, session.NewTokenFile(options.StateDir), zap.NewNop())

	a := &app{
		client:  client,
		session: store,
		scanner: bufio.NewScanner(os.Stdin),
	}

	if identity, ok, err := a.session.Restore(); err != nil {
		fmt.Println("Stored session is invalid, please log in again.")
	} else if ok {
		fmt.Printf("Welcome back, %s (%s)\n", identity.Name, identity.Role)
	}

	a.repl()
}

// repl runs the interactive shell loop, accepting commands to manage demands.
func (a *app) repl() {
	for {
		fmt.Print("demandhub> ")
		if !a.scanner.Scan() {
			break
		}
		line := strings.TrimSpace(a.scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		ctx := context.Background()
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, login <email>, logout, whoami, list [status], get <id>, create, update <id>, approve <id>, reject <id> <comment>, delete <id>, exit")
		case "login":
			if len(args) < 2 {
				fmt.Println("Usage: login <email>")
				continue
			}
			a.login(ctx, args[1])
		case "logout":
			a.session.Logout(ctx)
			fmt.Println("Logged out")
		case "whoami":
			if identity, ok := a.session.CurrentIdentity(); ok {
				fmt.Printf("%s <%s> role=%s\n", identity.Name, identity.Email, identity.Role)
			} else {
				fmt.Println("Not logged in")
			}
		case "list":
			status := ""
			if len(args) > 1 {
				status = args[1]
			}
			a.list(ctx, status)
		case "get":
			if len(args) < 2 {
				fmt.Println("Usage: get <id>")
				continue
			}
			a.get(ctx, args[1])
		case "create":
			a.create(ctx)
		case "update":
			if len(args) < 2 {
				fmt.Println("Usage: update <id>")
				continue
			}
			a.update(ctx, args[1])
		case "approve":
			if len(args) < 2 {
				fmt.Println("Usage: approve <id>")
				continue
			}
			a.decide(ctx, args[1], models.StatusApproved, "")
		case "reject":
			if len(args) < 3 {
				fmt.Println("Usage: reject <id> <comment>")
				continue
			}
			a.decide(ctx, args[1], models.StatusRejected, strings.Join(args[2:], " "))
		case "delete":
			if len(args) < 2 {
				fmt.Println("Usage: delete <id>")
				continue
			}
			a.delete(ctx, args[1])
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func (a *app) login(ctx context.Context, email string) {
	fmt.Print("Password: ")
	if !a.scanner.Scan() {
		return
	}
	password := a.scanner.Text()

	identity, err := a.session.Login(ctx, email, password)
	if err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			fmt.Println(authErr.Message)
		} else {
			fmt.Println("Login failed:", err)
		}
		return
	}
	fmt.Printf("Logged in as %s (%s)\n", identity.Name, identity.Role)
}

func (a *app) list(ctx context.Context, rawStatus string) {
	var filters models.DemandFilters
	if rawStatus != "" {
		status, ok := models.ParseStatus(rawStatus)
		if !ok {
			fmt.Println("Unknown status. Use pending, approved, or rejected.")
			return
		}
		filters.Status = status
	}

	demands, err := a.client.List(ctx, filters)
	if err != nil {
		printGatewayError(err)
		return
	}
	if len(demands) == 0 {
		fmt.Println("No demands found")
		return
	}
	for _, d := range demands {
		fmt.Printf("#%d [%s] %s: %d article(s), total %.2f, by %s\n",
			d.ID, d.Status, d.Title, len(d.Articles), d.Total(), d.CreatedBy)
	}
}

func (a *app) get(ctx context.Context, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		fmt.Println("Invalid id")
		return
	}
	d, err := a.client.GetByID(ctx, id)
	if err != nil {
		printGatewayError(err)
		return
	}
	fmt.Printf("#%d %s [%s]\n%s\n", d.ID, d.Title, d.Status, d.Description)
	for _, art := range d.Articles {
		fmt.Printf("  - %s x%d @ %.2f = %.2f\n", art.Name, art.Quantity, art.Price, art.LineTotal())
	}
	fmt.Printf("Total: %.2f\n", d.Total())
	if d.FileName != "" {
		fmt.Printf("Attachment: %s (%s)\n", d.FileName, d.FileURL)
	}
	if d.Status == models.StatusRejected {
		fmt.Printf("Rejection comment: %s\n", d.RejectionComment)
	}
}

// create submits a new demand built from the interactive form.
func (a *app) create(ctx context.Context) {
	identity, ok := a.session.CurrentIdentity()
	if !ok {
		fmt.Println("Please log in first")
		return
	}
	if !authz.CanAccess(&identity, models.RoleAgent) {
		fmt.Println("Only agents can create demands")
		return
	}

	req, ok := a.demandForm()
	if !ok {
		return
	}

	d, err := a.client.Create(ctx, req)
	if err != nil {
		printGatewayError(err)
		return
	}
	fmt.Printf("Created demand #%d\n", d.ID)
}

// update re-submits a pending demand with new content. The server
// enforces that only the creator can edit and only while pending; the
// client checks what it can before sending.
func (a *app) update(ctx context.Context, rawID string) {
	identity, ok := a.session.CurrentIdentity()
	if !ok {
		fmt.Println("Please log in first")
		return
	}
	if !authz.CanAccess(&identity, models.RoleAgent) {
		fmt.Println("Only agents can edit demands")
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		fmt.Println("Invalid id")
		return
	}

	current, err := a.client.GetByID(ctx, id)
	if err != nil {
		printGatewayError(err)
		return
	}
	if current.Status != models.StatusPending {
		fmt.Println("Only pending demands can be edited")
		return
	}

	fmt.Printf("Editing #%d %s\n", current.ID, current.Title)
	req, ok := a.demandForm()
	if !ok {
		return
	}

	d, err := a.client.Update(ctx, id, req)
	if err != nil {
		printGatewayError(err)
		return
	}
	fmt.Printf("Updated demand #%d\n", d.ID)
}

// demandForm walks through the interactive demand fields: title,
// description, articles until an empty name, and an optional
// attachment path.
func (a *app) demandForm() (models.CreateDemandRequest, bool) {
	req := models.CreateDemandRequest{
		Title:       a.prompt("Title: "),
		Description: a.prompt("Description: "),
	}
	for {
		name := a.prompt("Article name (empty to finish): ")
		if name == "" {
			break
		}
		quantity, err := strconv.Atoi(a.prompt("Quantity: "))
		if err != nil || quantity < 1 {
			fmt.Println("Quantity must be a whole number of at least 1")
			continue
		}
		price, err := strconv.ParseFloat(a.prompt("Unit price: "), 64)
		if err != nil || price < 0.01 {
			fmt.Println("Price must be a number of at least 0.01")
			continue
		}
		req.Articles = append(req.Articles, models.Article{
			Name:        name,
			Description: a.prompt("Article description: "),
			Quantity:    quantity,
			Price:       price,
		})
	}
	if len(req.Articles) == 0 {
		fmt.Println("A demand needs at least one article")
		return req, false
	}
	req.FilePath = a.prompt("Attachment path (empty for none): ")
	return req, true
}

// decide approves or rejects a demand. It always refetches first and
// re-checks that the demand is still pending, so the transition runs
// against the server's authoritative copy rather than a cached one.
func (a *app) decide(ctx context.Context, rawID string, status models.Status, comment string) {
	identity, ok := a.session.CurrentIdentity()
	if !ok {
		fmt.Println("Please log in first")
		return
	}
	if !authz.CanAccess(&identity, models.RoleResponsable) {
		fmt.Println("Only responsables can approve or reject demands")
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		fmt.Println("Invalid id")
		return
	}

	current, err := a.client.GetByID(ctx, id)
	if err != nil {
		printGatewayError(err)
		return
	}

	// Validate the transition locally before issuing the mutation.
	if status == models.StatusApproved {
		_, err = workflow.Approve(current)
	} else {
		_, err = workflow.Reject(current, comment)
	}
	if err != nil {
		fmt.Println(err)
		return
	}

	d, err := a.client.UpdateStatus(ctx, id, status, comment)
	if err != nil {
		printGatewayError(err)
		return
	}
	fmt.Printf("Demand #%d is now %s\n", d.ID, d.Status)
}

func (a *app) delete(ctx context.Context, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		fmt.Println("Invalid id")
		return
	}
	if err := a.client.Delete(ctx, id); err != nil {
		printGatewayError(err)
		return
	}
	fmt.Println("Demand deleted")
}

func (a *app) prompt(label string) string {
	fmt.Print(label)
	if !a.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(a.scanner.Text())
}

func printGatewayError(err error) {
	var httpErr *gateway.HTTPError
	if errors.As(err, &httpErr) {
		fmt.Printf("Server refused the request (%d): %s\n", httpErr.Status, httpErr.Message)
		return
	}
	var transportErr *gateway.TransportError
	if errors.As(err, &transportErr) {
		fmt.Println("Unable to reach the server. Is the backend running?")
		return
	}
	fmt.Println("Request failed:", err)
}
