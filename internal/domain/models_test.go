package domain

import "testing"

func TestMessageContent(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		want string
	}{
		{"text only", Message{Text: "hello"}, "hello"},
		{"caption only", Message{Caption: "photo t.me/x"}, "photo t.me/x"},
		{"text wins", Message{Text: "body", Caption: "cap"}, "body"},
		{"blank text falls back", Message{Text: "   ", Caption: "cap"}, "cap"},
		{"neither", Message{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.msg.Content(); got != tc.want {
				t.Fatalf("Content() = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestVerdictString(t *testing.T) {
	if Clean.String() != "clean" || Violation.String() != "violation" {
		t.Fatalf("unexpected strings: %q %q", Clean, Violation)
	}
}

func TestMemberStatusIsAdmin(t *testing.T) {
	admins := []MemberStatus{StatusCreator, StatusAdministrator}
	others := []MemberStatus{StatusMember, StatusRestricted, StatusLeft, StatusKicked, "", "owner"}
	for _, s := range admins {
		if !s.IsAdmin() {
			t.Fatalf("%q should be admin", s)
		}
	}
	for _, s := range others {
		if s.IsAdmin() {
			t.Fatalf("%q should not be admin", s)
		}
	}
}
