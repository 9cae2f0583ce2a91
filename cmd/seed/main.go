// seed genera el script SQL que siembra el catálogo de roles y permisos.
// El catálogo es la fuente del registro cerrado que la API valida en el
// arranque: si falta un permiso o el rol Super Admin, la aplicación no inicia.
//
// Uso: go run ./cmd/seed
// Escribe: migrations/002_seed_roles.sql
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/Empresas-api/internal/application/authz"
	"github.com/jhoicas/Empresas-api/internal/domain/entity"
)

// Roles del sistema y sus permisos. Super Admin lleva el conjunto completo;
// Company Admin todo menos la gestión global de empresas.
var roles = []struct {
	name  string
	perms []authz.Permission
}{
	{entity.RoleSuperAdmin, authz.All()},
	{entity.RoleCompanyAdmin, withoutCompanyManagement(authz.All())},
	{"HR Manager", []authz.Permission{
		authz.PermViewUsers, authz.PermCreateUsers, authz.PermEditUsers, authz.PermViewRoles,
	}},
	{"Employee", nil},
}

func withoutCompanyManagement(perms []authz.Permission) []authz.Permission {
	excluded := map[authz.Permission]bool{
		authz.PermViewCompanies:   true,
		authz.PermCreateCompanies: true,
		authz.PermEditCompanies:   true,
		authz.PermDeleteCompanies: true,
	}
	var out []authz.Permission
	for _, p := range perms {
		if !excluded[p] {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	var b strings.Builder
	b.WriteString("-- Catálogo de roles y permisos. Generado con: go run ./cmd/seed\n\n")

	permIDs := make(map[authz.Permission]string)
	for _, p := range authz.All() {
		id := uuid.New().String()
		permIDs[p] = id
		fmt.Fprintf(&b, "INSERT INTO permissions (id, name) VALUES ('%s', '%s') ON CONFLICT (name) DO NOTHING;\n", id, p)
	}
	b.WriteString("\n")

	for _, r := range roles {
		roleID := uuid.New().String()
		fmt.Fprintf(&b, "INSERT INTO roles (id, name) VALUES ('%s', '%s') ON CONFLICT (name) DO NOTHING;\n", roleID, r.name)
		for _, p := range r.perms {
			fmt.Fprintf(&b,
				"INSERT INTO role_permissions (role_id, permission_id)\n"+
					"SELECT r.id, p.id FROM roles r, permissions p WHERE r.name = '%s' AND p.name = '%s'\n"+
					"ON CONFLICT DO NOTHING;\n",
				r.name, p)
		}
		b.WriteString("\n")
	}

	outPath := filepath.Join("migrations", "002_seed_roles.sql")
	if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir %s: %v\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("Escrito %s (%d roles, %d permisos)\n", outPath, len(roles), len(permIDs))
}
