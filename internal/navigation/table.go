// Package navigation holds the declarative route table: where the shell
// sends a user after login, and which dashboard belongs to which role.
package navigation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"carebridge-backend-go/internal/models"
)

// Table maps roles onto shell destinations.
type Table struct {
	Login      string            `yaml:"login"`
	Home       string            `yaml:"home"`
	Dashboards map[string]string `yaml:"dashboards"`
}

// DefaultTable returns the built-in route table used when no routes file
// is configured.
func DefaultTable() *Table {
	return &Table{
		Login: "/login",
		Home:  "/",
		Dashboards: map[string]string{
			models.RoleNurse.String():  "/nurse/dashboard",
			models.RoleClient.String(): "/client/dashboard",
			models.RoleAdmin.String():  "/admin/dashboard",
		},
	}
}

// Load reads a route table from a YAML file. Missing fields fall back to
// the defaults. A missing file is not an error; the defaults apply.
func Load(path string) (*Table, error) {
	table := DefaultTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, fmt.Errorf("read routes file %s: %w", path, err)
	}

	var loaded Table
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse routes file %s: %w", path, err)
	}

	if loaded.Login != "" {
		table.Login = loaded.Login
	}
	if loaded.Home != "" {
		table.Home = loaded.Home
	}
	for role, path := range loaded.Dashboards {
		table.Dashboards[role] = path
	}
	return table, nil
}

// DashboardFor returns the dashboard destination for a role. Roles without
// a dashboard of their own land on the home route.
func (t *Table) DashboardFor(role models.Role) string {
	switch role {
	case models.RoleNurse, models.RoleClient, models.RoleAdmin:
		if path, ok := t.Dashboards[role.String()]; ok && path != "" {
			return path
		}
		return t.Home
	case models.RoleGuest:
		return t.Home
	default:
		return t.Home
	}
}
