package auth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MockUser is a fixed identity available in sandbox mode.
type MockUser struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Email      string   `yaml:"email" json:"email"`
	Roles      []string `yaml:"roles" json:"roles"`
	ActiveRole string   `yaml:"activeRole" json:"activeRole"`
}

// DefaultMockUserType is used when a mock login names no user type.
const DefaultMockUserType = "dual"

// DefaultMockUsers returns the built-in sandbox identities keyed by user type.
func DefaultMockUsers() map[string]MockUser {
	return map[string]MockUser{
		"homeowner": {
			ID:         "mock-homeowner-123",
			Name:       "Hunter Ricks (Homeowner)",
			Email:      "homeowner@example.com",
			Roles:      []string{"homeowner"},
			ActiveRole: "homeowner",
		},
		"contractor": {
			ID:         "mock-contractor-123",
			Name:       "Hunter Ricks (Contractor)",
			Email:      "contractor@example.com",
			Roles:      []string{"contractor"},
			ActiveRole: "contractor",
		},
		"dual": {
			ID:         "mock-dual-123",
			Name:       "Hunter Ricks (Dual)",
			Email:      "dual@example.com",
			Roles:      []string{"homeowner", "contractor"},
			ActiveRole: "homeowner",
		},
	}
}

// LoadMockUsers reads user types from a YAML file of the form
//
//	homeowner:
//	  id: mock-homeowner-123
//	  name: ...
//
// An empty path returns the defaults.
func LoadMockUsers(path string) (map[string]MockUser, error) {
	if path == "" {
		return DefaultMockUsers(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mock users file: %w", err)
	}

	users := make(map[string]MockUser)
	if err := yaml.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("failed to parse mock users file: %w", err)
	}

	for userType, u := range users {
		if u.ID == "" || u.Email == "" {
			return nil, fmt.Errorf("mock user %q needs an id and an email", userType)
		}
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("mock users file %s defines no users", path)
	}
	return users, nil
}
