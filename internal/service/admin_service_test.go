package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAdmin(t *testing.T) {
	svc := NewAdminService([]string{" Root@Bookora.dev ", "", "root@bookora.dev", "ops@bookora.dev"})

	tests := []struct {
		email string
		want  bool
	}{
		{"root@bookora.dev", true},
		{"ROOT@BOOKORA.DEV", true},
		{"ops@bookora.dev", true},
		{"reader@bookora.dev", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.IsAdmin(tt.email))
		})
	}
	assert.Equal(t, []string{"Root@Bookora.dev", "ops@bookora.dev"}, svc.AdminEmails())
}
