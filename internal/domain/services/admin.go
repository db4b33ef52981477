package services

// AdminService answers admin membership questions from configuration
type AdminService interface {
	IsAdmin(email string) bool
	AdminEmails() []string
}
