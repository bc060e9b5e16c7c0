package announcement

import (
	"testing"
	"time"

	"github.com/trezcool/tarajali/core/user"
)

func TestAnnouncementIsActive(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name string
		ann  Announcement
		want bool
	}{
		{"published, no expiry", Announcement{PublishAt: now.Add(-time.Hour)}, true},
		{"published, not yet expired", Announcement{PublishAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour)}, true},
		{"not yet published", Announcement{PublishAt: now.Add(time.Hour)}, false},
		{"expired", Announcement{PublishAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ann.IsActive(now); got != tt.want {
				t.Errorf("IsActive() = %v; expected %v", got, tt.want)
			}
		})
	}
}

func TestAnnouncementTargets(t *testing.T) {
	student := user.User{Roles: user.StudentRoles}
	supervisor := user.User{Roles: user.SupervisorRoles}
	admin := user.User{Roles: user.AdminRoles}

	broadcast := Announcement{}
	studentsOnly := Announcement{TargetRoles: []string{user.RoleStudent}}

	if !broadcast.Targets(student) || !broadcast.Targets(supervisor) {
		t.Error("untargeted announcements should address everyone")
	}
	if !studentsOnly.Targets(student) {
		t.Error("student should be targeted")
	}
	if studentsOnly.Targets(supervisor) {
		t.Error("supervisor should not be targeted")
	}
	if !studentsOnly.Targets(admin) {
		t.Error("admins see everything")
	}
}
