package messaging

import (
	"testing"

	"github.com/trezcool/tarajali/core/user"
)

func TestCanMessage(t *testing.T) {
	student := user.User{Roles: user.StudentRoles}
	supervisor := user.User{Roles: user.SupervisorRoles}
	coordinator := user.User{Roles: user.CoordinatorRoles}
	admin := user.User{Roles: user.AdminRoles}

	tests := []struct {
		name      string
		sender    user.User
		recipient user.User
		allowed   bool
	}{
		{"student to supervisor", student, supervisor, true},
		{"student to coordinator", student, coordinator, true},
		{"student to student", student, student, false},
		{"student to admin", student, admin, false},
		{"supervisor to student", supervisor, student, true},
		{"supervisor to coordinator", supervisor, coordinator, true},
		{"supervisor to supervisor", supervisor, supervisor, false},
		{"coordinator to anyone", coordinator, student, true},
		{"coordinator to supervisor", coordinator, supervisor, true},
		{"admin to anyone", admin, student, true},
		{"admin to coordinator", admin, coordinator, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMessage(tt.sender, tt.recipient); got != tt.allowed {
				t.Errorf("CanMessage() = %v; expected %v", got, tt.allowed)
			}
		})
	}
}
