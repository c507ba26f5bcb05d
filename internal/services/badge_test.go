package services

import (
	"context"
	"strings"
	"testing"

	"github.com/safefloor/safefloor-backend/internal/types"
)

func TestComputeInitials(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Ada Osei", "AO"},
		{"ada", "A"},
		{"  Ben   Cho  ", "BC"},
		{"Ana Maria Gomez", "AG"},
		{"Øyvind Åsen", "ØÅ"},
		{"李 伟", "李伟"},
		{"", "?"},
		{"   ", "?"},
	}
	for _, tt := range tests {
		if got := computeInitials(tt.name); got != tt.want {
			t.Errorf("computeInitials(%q): want=%q got=%q", tt.name, tt.want, got)
		}
	}
}

func TestStoreBadgeWithoutBucket(t *testing.T) {
	bs := &badgeService{log: testLogger(t)}
	user := &types.User{ID: 1, Name: "Ada Osei"}

	err := bs.storeBadge(context.Background(), user, []byte("png"))
	if err == nil {
		t.Fatalf("storeBadge without a bucket must fail")
	}
	if !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("error must name the missing bucket: %v", err)
	}
	if user.BadgeBucketKey != "" || user.BadgeURL != "" {
		t.Fatalf("user must stay untouched: key=%q url=%q", user.BadgeBucketKey, user.BadgeURL)
	}
}
