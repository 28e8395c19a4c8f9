package scheduler

import (
	"testing"

	"github.com/google/uuid"
)

func TestMemberRoundTrip(t *testing.T) {
	id := uuid.New()

	gotID, oneOff, err := ParseMember(MemberFor(id))
	if err != nil {
		t.Fatal(err)
	}
	if gotID != id || oneOff {
		t.Fatalf("recurring member round trip failed: id=%s oneOff=%v", gotID, oneOff)
	}

	gotID, oneOff, err = ParseMember(OnceMemberFor(id))
	if err != nil {
		t.Fatal(err)
	}
	if gotID != id || !oneOff {
		t.Fatalf("ad-hoc member round trip failed: id=%s oneOff=%v", gotID, oneOff)
	}
}

func TestMembersAreDistinct(t *testing.T) {
	id := uuid.New()
	if MemberFor(id) == OnceMemberFor(id) {
		t.Fatal("recurring and ad-hoc entries must not collide in the sorted set")
	}
}

func TestParseMemberRejectsGarbage(t *testing.T) {
	if _, _, err := ParseMember("not-a-uuid"); err == nil {
		t.Fatal("garbage member must not parse")
	}
	if _, _, err := ParseMember("once:also-not-a-uuid"); err == nil {
		t.Fatal("garbage ad-hoc member must not parse")
	}
}
