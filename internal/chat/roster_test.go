package chat

import (
	"net"
	"testing"
)

func rosterClient(t *testing.T, name string) *Client {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() {
		local.Close()
		remote.Close()
	})
	return NewClient(name, local, func(string) {})
}

func TestRosterPreservesJoinOrder(t *testing.T) {
	r := newRoster()
	alice := rosterClient(t, "Alice")
	bob := rosterClient(t, "Bob")
	carol := rosterClient(t, "Carol")

	r.add(alice)
	r.add(bob)
	r.add(carol)

	names := r.names()
	want := []string{"Alice", "Bob", "Carol"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	r.remove(bob)
	names = r.names()
	if len(names) != 2 || names[0] != "Alice" || names[1] != "Carol" {
		t.Errorf("after remove, names = %v, want [Alice Carol]", names)
	}
}

// Two clients with the same name are distinct members: removal goes by
// connection identity, never by name.
func TestRosterIdentityIsTheConnection(t *testing.T) {
	r := newRoster()
	first := rosterClient(t, "Alice")
	second := rosterClient(t, "Alice")

	r.add(first)
	r.add(second)
	if len(r.names()) != 2 {
		t.Fatalf("both same-named clients should be members, got %v", r.names())
	}

	r.remove(first)
	members := r.snapshot()
	if len(members) != 1 || members[0] != second {
		t.Errorf("removing the first client must keep the second")
	}
}

func TestRosterRemoveMissingIsNoOp(t *testing.T) {
	r := newRoster()
	alice := rosterClient(t, "Alice")
	r.remove(alice) // not a member

	r.add(alice)
	r.remove(alice)
	r.remove(alice)
	if !r.empty() {
		t.Error("roster should be empty")
	}
}
