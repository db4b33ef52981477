package service

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"bookora/internal/domain/services"
)

type adminService struct {
	emails []string
	set    mapset.Set[string]
}

// NewAdminService creates an admin registry over the configured email list.
// Membership is case-insensitive.
func NewAdminService(emails []string) services.AdminService {
	set := mapset.NewSet[string]()
	kept := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if set.Add(strings.ToLower(e)) {
			kept = append(kept, e)
		}
	}
	return &adminService{emails: kept, set: set}
}

func (s *adminService) IsAdmin(email string) bool {
	return s.set.Contains(strings.ToLower(strings.TrimSpace(email)))
}

func (s *adminService) AdminEmails() []string {
	return append([]string{}, s.emails...)
}
