package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentsnap/internal/client"
	"rentsnap/internal/domain"
)

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", &domain.ValidationError{Field: "start_date", Message: "must not be in the past"}, "start_date: must not be in the past"},
		{"fields", &client.HTTPError{StatusCode: 400, Fields: map[string][]string{"username": {"taken"}, "email": {"invalid"}}}, "email: invalid; username: taken"},
		{"detail", &client.HTTPError{StatusCode: 409, Message: "already rated"}, "already rated"},
		{"unauthenticated", fmt.Errorf("list: %w", client.ErrUnauthenticated), "your session has expired, please log in again"},
		{"network", &client.NetworkError{Method: "GET", Path: "/items/", Err: errors.New("connection refused")}, "cannot reach the server: connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeError(tt.err))
		})
	}
}

func TestLeadingID(t *testing.T) {
	id, rest, err := leadingID([]string{"12", "-name", "Drill"}, "item id")
	require.NoError(t, err)
	assert.Equal(t, int32(12), id)
	assert.Equal(t, []string{"-name", "Drill"}, rest)

	_, _, err = leadingID(nil, "item id")
	assert.Error(t, err)
	_, _, err = leadingID([]string{"-3"}, "item id")
	assert.Error(t, err)
}

func TestItemFlags_ApplyOnlyGiven(t *testing.T) {
	f := newItemFlags("edit-item")
	require.NoError(t, f.fs.Parse([]string{"-price", "12.50", "-location", "Dock 4"}))

	item := &domain.Item{Name: "Kayak", PricePerDay: 900, SecurityDeposit: 5000}
	f.apply(item)
	assert.Equal(t, "Kayak", item.Name)
	assert.Equal(t, domain.Money(1250), item.PricePerDay)
	assert.Equal(t, domain.Money(5000), item.SecurityDeposit)
	assert.Equal(t, "Dock 4", item.Location)
}

func TestPrintRequest_ShowsOnlyOwnCode(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := &domain.RentalRequest{
		ID: 7, ItemName: "Tent", OwnerID: 1, RequesterID: 2,
		StartDate: domain.NewDate(2026, time.March, 2), EndDate: domain.NewDate(2026, time.March, 4),
		Status: domain.StatusApproved, HandoverCode: "ABC", ReturnCode: "XYZ", HandedOverAt: &now,
	}

	var owner, renter bytes.Buffer
	printRequest(&owner, r, 1)
	printRequest(&renter, r, 2)
	assert.Contains(t, owner.String(), "ABC")
	assert.NotContains(t, owner.String(), "XYZ")
	assert.Contains(t, renter.String(), "XYZ")
	assert.NotContains(t, renter.String(), "ABC")
}
