package irctest

import (
	"strings"
	"testing"

	"github.com/gissleh/irctrack/state"
)

// AssertUserlist compares the channel's members to a list of prefixed nicks,
// in order.
func AssertUserlist(t *testing.T, channel state.Channel, assertedOrder ...string) bool {
	t.Helper()

	members := channel.Members()
	order := make([]string, 0, len(members))
	for _, member := range members {
		order = append(order, member.PrefixedNick)
	}

	orderA := strings.Join(order, ", ")
	orderB := strings.Join(assertedOrder, ", ")

	if orderA != orderB {
		t.Logf("Userlist: %s", orderA)
		t.Logf("Asserted: %s", orderB)

		t.Fail()

		return false
	}

	return true
}
