package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"rentsnap/internal/availability"
	"rentsnap/internal/client"
	"rentsnap/internal/domain"
)

const dateTime = "2006-01-02 15:04"

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printItems(w io.Writer, items []*domain.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items found.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE/DAY\tSTATUS\tOWNER\tRATING")
	for _, i := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%.1f (%d)\n",
			i.ID, i.Name, i.CategoryName, i.PricePerDay, i.AvailabilityStatus, i.OwnerName, i.Rating, i.ReviewsCount)
	}
	tw.Flush()
}

func printItem(w io.Writer, i *domain.Item, booked []domain.DateRange) {
	tw := table(w)
	fmt.Fprintf(tw, "Item\t#%d %s\n", i.ID, i.Name)
	fmt.Fprintf(tw, "Category\t%s\n", i.CategoryName)
	fmt.Fprintf(tw, "Owner\t%s\n", i.OwnerName)
	fmt.Fprintf(tw, "Price per day\t%s\n", i.PricePerDay)
	fmt.Fprintf(tw, "Deposit\t%s\n", i.SecurityDeposit)
	status := string(i.AvailabilityStatus)
	if i.AvailableFromDate != nil {
		status += ", back on " + i.AvailableFromDate.String()
	}
	fmt.Fprintf(tw, "Status\t%s\n", status)
	if i.Location != "" {
		fmt.Fprintf(tw, "Location\t%s\n", i.Location)
	}
	fmt.Fprintf(tw, "Delivery\t%s\n", i.DeliveryMethod)
	if i.ImageURL != "" {
		fmt.Fprintf(tw, "Image\t%s\n", i.ImageURL)
	}
	tw.Flush()
	if i.Description != "" {
		fmt.Fprintf(w, "\n%s\n", i.Description)
	}
	if len(booked) > 0 {
		fmt.Fprintln(w, "\nBooked:")
		for _, r := range booked {
			fmt.Fprintf(w, "  %s to %s\n", r.Start, r.End)
		}
	}
}

func printCategories(w io.Writer, cats []*domain.Category) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, c := range cats {
		fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
	}
	tw.Flush()
}

func printQuote(w io.Writer, q *availability.Quote) {
	tw := table(w)
	fmt.Fprintf(tw, "Days\t%d\n", q.Days)
	fmt.Fprintf(tw, "Rental\t%s\n", q.Price)
	fmt.Fprintf(tw, "Deposit\t%s\n", q.Deposit)
	fmt.Fprintf(tw, "Total\t%s\n", q.Total)
	tw.Flush()
	if q.Admissible {
		fmt.Fprintln(w, "These dates are available.")
	} else if q.Reason != nil {
		fmt.Fprintf(w, "Cannot book: %v\n", q.Reason)
	}
}

func printRequests(w io.Writer, reqs []*domain.RentalRequest) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, "No requests.")
		return
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].RequestedAt.After(reqs[j].RequestedAt) })
	tw := table(w)
	fmt.Fprintln(tw, "ID\tITEM\tDATES\tSTATUS\tTOTAL\tRENTER\tOWNER")
	for _, r := range reqs {
		fmt.Fprintf(tw, "%d\t%s\t%s..%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.ItemName, r.StartDate, r.EndDate, r.Phase(), r.TotalPrice, r.RequesterName, r.OwnerName)
	}
	tw.Flush()
}

func printRequest(w io.Writer, r *domain.RentalRequest, viewer int32) {
	tw := table(w)
	fmt.Fprintf(tw, "Request\t#%d %s\n", r.ID, r.ItemName)
	fmt.Fprintf(tw, "Dates\t%s to %s\n", r.StartDate, r.EndDate)
	fmt.Fprintf(tw, "Status\t%s\n", r.Phase())
	fmt.Fprintf(tw, "Total\t%s (deposit %s)\n", r.TotalPrice, r.DepositAmount)
	fmt.Fprintf(tw, "Renter\t%s\n", r.RequesterName)
	fmt.Fprintf(tw, "Owner\t%s\n", r.OwnerName)
	if r.PaidAt != nil {
		fmt.Fprintf(tw, "Paid\t%s\n", r.PaidAt.Local().Format(dateTime))
	}
	if r.HandedOverAt != nil {
		fmt.Fprintf(tw, "Handed over\t%s\n", r.HandedOverAt.Local().Format(dateTime))
	}
	if r.RatingGiven != nil {
		fmt.Fprintf(tw, "Rating\t%d/5\n", *r.RatingGiven)
	}
	if viewer == r.OwnerID && r.HandoverCode != "" {
		fmt.Fprintf(tw, "Handover code\t%s (tell the renter at pick-up)\n", r.HandoverCode)
	}
	if viewer == r.RequesterID && r.ReturnCode != "" {
		fmt.Fprintf(tw, "Return code\t%s (tell the owner at return)\n", r.ReturnCode)
	}
	tw.Flush()
}

func printNotifications(w io.Writer, notes []*domain.Notification) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notifications.")
		return
	}
	tw := table(w)
	for _, n := range notes {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", mark, n.ID, n.Timestamp.Local().Format(dateTime), n.Title, n.Message)
	}
	tw.Flush()
}

func printConversations(w io.Writer, convs []*domain.Conversation, viewer int32) {
	if len(convs) == 0 {
		fmt.Fprintln(w, "No conversations.")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tWITH\tITEM\tUNREAD\tLAST MESSAGE")
	for _, c := range convs {
		var with []string
		for _, id := range c.ParticipantIDs {
			if id != viewer {
				with = append(with, fmt.Sprintf("#%d", id))
			}
		}
		last := ""
		if c.LastMessage != nil {
			last = c.LastMessage.Text
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", c.ID, strings.Join(with, ","), c.ItemName, c.UnreadCount, last)
	}
	tw.Flush()
}

func printMessages(w io.Writer, msgs []*domain.Message, viewer int32) {
	for _, m := range msgs {
		who := m.SenderName
		if m.SenderID == viewer {
			who = "you"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp.Local().Format(dateTime), who, m.Text)
	}
}

// describeError turns backend and validation errors into one readable line.
func describeError(err error) string {
	var verr *domain.ValidationError
	var herr *client.HTTPError
	var nerr *client.NetworkError
	switch {
	case errors.Is(err, client.ErrUnauthenticated):
		return "your session has expired, please log in again"
	case errors.As(err, &verr):
		if verr.Field != "" {
			return verr.Field + ": " + verr.Message
		}
		return verr.Message
	case errors.As(err, &herr):
		if len(herr.Fields) > 0 {
			keys := make([]string, 0, len(herr.Fields))
			for k := range herr.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+": "+strings.Join(herr.Fields[k], " "))
			}
			return strings.Join(parts, "; ")
		}
		if herr.Message != "" {
			return herr.Message
		}
	case errors.As(err, &nerr):
		return "cannot reach the server: " + nerr.Err.Error()
	}
	return err.Error()
}
