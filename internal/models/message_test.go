package models

import "testing"

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"message", KindBroadcast, true},
		{"private_message", KindPrivate, true},
		{"system", KindSystem, true},
		{"", "", false},
		{"shout", "", false},
		{"Message", "", false}, // wire names are exact
	}
	for _, tc := range cases {
		got, ok := ParseKind(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseKind(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIsBroadcast(t *testing.T) {
	if !(Message{To: Everyone}).IsBroadcast() {
		t.Fatal("message to Todos should be broadcast")
	}
	if (Message{To: "Alice"}).IsBroadcast() {
		t.Fatal("targeted message should not be broadcast")
	}
}
