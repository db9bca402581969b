package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rentsnap/internal/domain"
	"rentsnap/internal/repository"
)

type command func(ctx context.Context, args []string) error

func (a *app) commands() map[string]command {
	return map[string]command{
		"register": a.register,
		"login":    a.login,
		"logout":   a.logout,
		"whoami":   a.whoami,

		"items":        a.listItems,
		"item":         a.showItem,
		"categories":   a.listCategories,
		"add-item":     a.addItem,
		"edit-item":    a.editItem,
		"upload-image": a.uploadImage,
		"delete-item":  a.deleteItem,

		"quote":           a.quote,
		"request":         a.request,
		"rentals":         a.listRentals,
		"lendings":        a.listLendings,
		"show":            a.showRequest,
		"approve":         a.requestAction(a.rentals.Approve),
		"reject":          a.requestAction(a.rentals.Reject),
		"require-payment": a.requestAction(a.rentals.RequirePayment),
		"cancel":          a.requestAction(a.rentals.Cancel),
		"pay":             a.requestAction(a.rentals.SimulatePayment),
		"handover":        a.codeAction(a.rentals.ConfirmHandover),
		"return":          a.codeAction(a.rentals.ConfirmReturn),
		"rate":            a.rate,

		"notifications": a.listNotifications,
		"read":          a.markRead,
		"conversations": a.listConversations,
		"chat":          a.chat,
		"messages":      a.listMessages,
		"send":          a.send,
	}
}

func (a *app) run(ctx context.Context, name string, args []string) error {
	cmd, ok := a.commands()[name]
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(ctx, args)
}

// me returns the signed-in user's id.
func (a *app) me() (int32, error) {
	sess := a.data.Session()
	if sess == nil || !sess.Active() {
		return 0, fmt.Errorf("not signed in, run: rentsnap login")
	}
	return sess.UserID(), nil
}

func newFlags(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func parseID(s, what string) (int32, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return int32(n), nil
}

// leadingID splits "<id> [flags...]".
func leadingID(args []string, what string) (int32, []string, error) {
	if len(args) == 0 {
		return 0, nil, fmt.Errorf("missing %s", what)
	}
	id, err := parseID(args[0], what)
	return id, args[1:], err
}

func parseRange(start, end string) (domain.DateRange, error) {
	s, err := domain.ParseDate(start)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("start date: %w", err)
	}
	e, err := domain.ParseDate(end)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("end date: %w", err)
	}
	return domain.DateRange{Start: s, End: e}, nil
}

type moneyFlag struct {
	set   bool
	value domain.Money
}

func (m *moneyFlag) String() string {
	if !m.set {
		return ""
	}
	return m.value.String()
}

func (m *moneyFlag) Set(s string) error {
	v, err := domain.ParseMoney(s)
	if err != nil {
		return err
	}
	m.value, m.set = v, true
	return nil
}

// Account

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlags("register")
	var reg domain.Registration
	fs.StringVar(&reg.Username, "username", "", "username")
	fs.StringVar(&reg.Email, "email", "", "email address")
	fs.StringVar(&reg.Password, "password", "", "password, at least 8 characters")
	fs.StringVar(&reg.FirstName, "first-name", "", "first name")
	fs.StringVar(&reg.LastName, "last-name", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess, err := a.auth.Register(ctx, reg)
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s! You are signed in.\n", sess.User().DisplayName())
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password (or RENTSNAP_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("RENTSNAP_PASSWORD")
	}
	sess, err := a.auth.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s.\n", sess.User().Username)
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func (a *app) whoami(_ context.Context, _ []string) error {
	if _, err := a.me(); err != nil {
		return err
	}
	u := a.data.Session().User()
	if u == nil {
		fmt.Printf("user #%d\n", a.data.Session().UserID())
		return nil
	}
	fmt.Printf("%s (#%d) <%s>\n", u.DisplayName(), u.ID, u.Email)
	return nil
}

// Items

func (a *app) listItems(ctx context.Context, args []string) error {
	fs := newFlags("items")
	search := fs.String("search", "", "text to search in names and descriptions")
	category := fs.Int("category", 0, "category id")
	available := fs.Bool("available", false, "only items that can be booked now")
	mine := fs.Bool("mine", false, "only my own listings")
	var minPrice, maxPrice moneyFlag
	fs.Var(&minPrice, "min", "minimum price per day")
	fs.Var(&maxPrice, "max", "maximum price per day")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := repository.ItemFilter{Search: *search, CategoryID: int32(*category)}
	if *available {
		filter.Available = available
	}
	if minPrice.set {
		filter.MinPrice = &minPrice.value
	}
	if maxPrice.set {
		filter.MaxPrice = &maxPrice.value
	}
	if *mine {
		id, err := a.me()
		if err != nil {
			return err
		}
		filter.OwnerID = id
	}
	items, err := a.items.ListItems(ctx, filter)
	if err != nil {
		return err
	}
	printItems(os.Stdout, items)
	return nil
}

func (a *app) showItem(ctx context.Context, args []string) error {
	id, _, err := leadingID(args, "item id")
	if err != nil {
		return err
	}
	item, err := a.items.GetItem(ctx, id)
	if err != nil {
		return err
	}
	booked, err := a.items.BookedRanges(ctx, id)
	if err != nil {
		return err
	}
	printItem(os.Stdout, item, booked)
	return nil
}

func (a *app) listCategories(ctx context.Context, _ []string) error {
	cats, err := a.categories.List(ctx)
	if err != nil {
		return err
	}
	printCategories(os.Stdout, cats)
	return nil
}

type itemFlags struct {
	fs                 *flag.FlagSet
	name, category     *string
	description        *string
	location, delivery *string
	price, deposit     moneyFlag
}

func newItemFlags(name string) *itemFlags {
	f := &itemFlags{fs: newFlags(name)}
	f.name = f.fs.String("name", "", "item name")
	f.category = f.fs.String("category", "", "category name")
	f.description = f.fs.String("description", "", "description")
	f.location = f.fs.String("location", "", "pick-up location")
	f.delivery = f.fs.String("delivery", "", `"Pick Up", "Delivery" or "Both"`)
	f.fs.Var(&f.price, "price", "price per day, e.g. 25.00")
	f.fs.Var(&f.deposit, "deposit", "security deposit")
	return f
}

// apply copies the flags that were given onto item.
func (f *itemFlags) apply(item *domain.Item) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "name":
			item.Name = *f.name
		case "description":
			item.Description = *f.description
		case "location":
			item.Location = *f.location
		case "delivery":
			item.DeliveryMethod = domain.DeliveryMethod(*f.delivery)
		case "price":
			item.PricePerDay = f.price.value
		case "deposit":
			item.SecurityDeposit = f.deposit.value
		}
	})
}

func (a *app) addItem(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	f := newItemFlags("add-item")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	if !f.price.set {
		return fmt.Errorf("-price is required")
	}
	item := &domain.Item{}
	f.apply(item)
	created, err := a.items.CreateItem(ctx, me, item, *f.category)
	if err != nil {
		return err
	}
	fmt.Printf("Listed %q as item #%d.\n", created.Name, created.ID)
	return nil
}

func (a *app) editItem(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	id, rest, err := leadingID(args, "item id")
	if err != nil {
		return err
	}
	f := newItemFlags("edit-item")
	if err := f.fs.Parse(rest); err != nil {
		return err
	}
	item, err := a.items.GetItem(ctx, id)
	if err != nil {
		return err
	}
	f.apply(item)
	updated, err := a.items.UpdateItem(ctx, me, item, *f.category)
	if err != nil {
		return err
	}
	fmt.Printf("Updated item #%d.\n", updated.ID)
	return nil
}

func (a *app) uploadImage(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	id, rest, err := leadingID(args, "item id")
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: upload-image <id> <file>")
	}
	file, err := os.Open(rest[0])
	if err != nil {
		return err
	}
	defer file.Close()
	item, err := a.items.UploadImage(ctx, me, id, filepath.Base(rest[0]), file)
	if err != nil {
		return err
	}
	fmt.Printf("Image stored at %s\n", item.ImageURL)
	return nil
}

func (a *app) deleteItem(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	id, _, err := leadingID(args, "item id")
	if err != nil {
		return err
	}
	if err := a.items.DeleteItem(ctx, me, id); err != nil {
		return err
	}
	fmt.Printf("Deleted item #%d.\n", id)
	return nil
}

// Rentals

func (a *app) quote(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: quote <item-id> <start> <end>")
	}
	id, err := parseID(args[0], "item id")
	if err != nil {
		return err
	}
	dates, err := parseRange(args[1], args[2])
	if err != nil {
		return err
	}
	q, err := a.rentals.Quote(ctx, id, dates)
	if err != nil {
		return err
	}
	printQuote(os.Stdout, q)
	return nil
}

func (a *app) request(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	if len(args) != 3 {
		return fmt.Errorf("usage: request <item-id> <start> <end>")
	}
	id, err := parseID(args[0], "item id")
	if err != nil {
		return err
	}
	dates, err := parseRange(args[1], args[2])
	if err != nil {
		return err
	}
	req, err := a.rentals.CreateRequest(ctx, me, id, dates)
	if err != nil {
		return err
	}
	fmt.Printf("Request #%d sent to %s for %s.\n", req.ID, req.OwnerName, req.TotalPrice)
	return nil
}

func (a *app) listRequests(ctx context.Context, name string, args []string, list func(context.Context, int32, domain.RequestStatus) ([]*domain.RentalRequest, error)) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	fs := newFlags(name)
	status := fs.String("status", "", "only requests in this status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	reqs, err := list(ctx, me, domain.RequestStatus(*status))
	if err != nil {
		return err
	}
	printRequests(os.Stdout, reqs)
	return nil
}

func (a *app) listRentals(ctx context.Context, args []string) error {
	return a.listRequests(ctx, "rentals", args, a.rentals.ListRentals)
}

func (a *app) listLendings(ctx context.Context, args []string) error {
	return a.listRequests(ctx, "lendings", args, a.rentals.ListLendings)
}

func (a *app) showRequest(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	id, _, err := leadingID(args, "request id")
	if err != nil {
		return err
	}
	req, err := a.rentals.GetRequest(ctx, me, id)
	if err != nil {
		return err
	}
	printRequest(os.Stdout, req, me)
	return nil
}

type transitionFunc func(ctx context.Context, userID, requestID int32) (*domain.RentalRequest, error)

// requestAction runs a transition that needs nothing but the request id.
func (a *app) requestAction(fn transitionFunc) command {
	return func(ctx context.Context, args []string) error {
		me, err := a.me()
		if err != nil {
			return err
		}
		id, _, err := leadingID(args, "request id")
		if err != nil {
			return err
		}
		req, err := fn(ctx, me, id)
		if err != nil {
			return err
		}
		printRequest(os.Stdout, req, me)
		return nil
	}
}

func (a *app) codeAction(fn func(ctx context.Context, userID, requestID int32, code string) (*domain.RentalRequest, error)) command {
	return func(ctx context.Context, args []string) error {
		me, err := a.me()
		if err != nil {
			return err
		}
		id, rest, err := leadingID(args, "request id")
		if err != nil {
			return err
		}
		if len(rest) == 0 {
			return fmt.Errorf("missing confirmation code")
		}
		req, err := fn(ctx, me, id, strings.Join(rest, ""))
		if err != nil {
			return err
		}
		printRequest(os.Stdout, req, me)
		return nil
	}
}

func (a *app) rate(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	id, rest, err := leadingID(args, "request id")
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return fmt.Errorf("usage: rate <request-id> <1-5>")
	}
	stars, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("invalid rating %q", rest[0])
	}
	req, err := a.rentals.Rate(ctx, me, id, int32(stars))
	if err != nil {
		return err
	}
	fmt.Printf("Rated request #%d with %d stars.\n", req.ID, stars)
	return nil
}

// Inbox

func (a *app) listNotifications(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	fs := newFlags("notifications")
	watch := fs.Bool("watch", false, "keep polling and print changes")
	interval := fs.Duration("interval", a.cfg.Client.PollInterval, "polling interval for -watch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*watch {
		notes, err := a.notifications.List(ctx, me)
		if err != nil {
			return err
		}
		printNotifications(os.Stdout, notes)
		return nil
	}
	if *interval < time.Second {
		return fmt.Errorf("-interval must be at least 1s")
	}

	w, err := a.notifications.Watch(ctx, me, *interval, func(notes []*domain.Notification) {
		fmt.Printf("-- %s --\n", time.Now().Format(time.Kitchen))
		printNotifications(os.Stdout, notes)
	})
	if err != nil {
		return err
	}
	defer w.Stop()
	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	return nil
}

func (a *app) markRead(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	if len(args) == 1 && args[0] == "all" {
		n, err := a.notifications.MarkAllRead(ctx, me)
		if err != nil {
			return err
		}
		fmt.Printf("Marked %d notifications as read.\n", n)
		return nil
	}
	id, _, err := leadingID(args, "notification id")
	if err != nil {
		return err
	}
	if _, err := a.notifications.MarkRead(ctx, me, id); err != nil {
		return err
	}
	return nil
}

func (a *app) listConversations(ctx context.Context, _ []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	convs, err := a.messages.ListConversations(ctx, me)
	if err != nil {
		return err
	}
	printConversations(os.Stdout, convs, me)
	return nil
}

func (a *app) chat(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	other, rest, err := leadingID(args, "user id")
	if err != nil {
		return err
	}
	fs := newFlags("chat")
	itemID := fs.Int("item", 0, "item the conversation is about")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	var item *int32
	if *itemID > 0 {
		id := int32(*itemID)
		item = &id
	}
	conv, err := a.messages.StartConversation(ctx, me, other, item)
	if err != nil {
		return err
	}
	fmt.Printf("Conversation #%d\n", conv.ID)
	return nil
}

func (a *app) listMessages(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	id, _, err := leadingID(args, "conversation id")
	if err != nil {
		return err
	}
	msgs, err := a.messages.ListMessages(ctx, me, id)
	if err != nil {
		return err
	}
	printMessages(os.Stdout, msgs, me)
	if _, err := a.messages.MarkConversationRead(ctx, me, id); err != nil {
		return err
	}
	return nil
}

func (a *app) send(ctx context.Context, args []string) error {
	me, err := a.me()
	if err != nil {
		return err
	}
	id, rest, err := leadingID(args, "conversation id")
	if err != nil {
		return err
	}
	if _, err := a.messages.SendMessage(ctx, me, id, strings.Join(rest, " ")); err != nil {
		return err
	}
	return nil
}
