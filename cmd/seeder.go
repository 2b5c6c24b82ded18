package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/gogotime/internal/auth"
	actionCodeDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/actioncode"
	companyDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/company"
	"github.com/frahmantamala/gogotime/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/user"
)

// Tables in child to parent order.
var seededTables = []string{
	"timesheet_entries",
	"timesheets",
	"leave_requests",
	"action_codes",
	"action_code_categories",
	"active_sessions",
	"role_permissions",
	"permissions",
	"users",
	"roles",
	"companies",
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			stmt := "TRUNCATE " + strings.Join(seededTables, ", ") + " CASCADE"
			if err := db.Exec(stmt).Error; err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := auth.HashPassword("password", cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		company := companyDatamodel.Company{Name: "Acme"}
		if err := db.Where(companyDatamodel.Company{Name: company.Name}).
			Attrs(companyDatamodel.Company{ID: uuid.New()}).
			FirstOrCreate(&company).Error; err != nil {
			log.Fatalf("failed to seed company: %v", err)
		}
		fmt.Println("Seeded company:", company.Name)

		adminRole := seedRole(db, company.ID, "admin", "Full administrator")
		memberRole := seedRole(db, company.ID, "member", "Logs own time and leave")

		for _, def := range auth.DefaultPermissions() {
			perm := rbac.Permission{}
			if err := db.Where(rbac.Permission{CompanyID: company.ID, Name: def.Name}).
				Attrs(rbac.Permission{ID: uuid.New(), Description: def.Description}).
				FirstOrCreate(&perm).Error; err != nil {
				log.Fatalf("failed to insert permission %s: %v", def.Name, err)
			}

			grant := rbac.RolePermission{}
			if err := db.Where(rbac.RolePermission{RoleID: adminRole.ID, PermissionID: perm.ID}).
				Attrs(rbac.RolePermission{ID: uuid.New(), CompanyID: company.ID}).
				FirstOrCreate(&grant).Error; err != nil {
				log.Fatalf("failed to grant permission %s to admin role: %v", def.Name, err)
			}
		}
		fmt.Println("Granted all permissions to admin role")

		seedUser(db, company.ID, adminRole.ID, "admin@gogotime.local", "Ada Admin", hash)
		seedUser(db, company.ID, memberRole.ID, "member@gogotime.local", "Max Member", hash)

		categories := []struct {
			Name string
			Desc string
		}{
			{"billable", "client work billed by the hour"},
			{"internal", "meetings, admin and training"},
			{"absence", "time away from work"},
		}
		categoryIDs := make(map[string]uuid.UUID, len(categories))
		for _, c := range categories {
			row := actionCodeDatamodel.Category{}
			if err := db.Where(actionCodeDatamodel.Category{CompanyID: company.ID, Name: c.Name}).
				Attrs(actionCodeDatamodel.Category{ID: uuid.New(), Description: c.Desc}).
				FirstOrCreate(&row).Error; err != nil {
				log.Fatalf("failed to insert action code category %s: %v", c.Name, err)
			}
			categoryIDs[c.Name] = row.ID
			fmt.Printf("Seeded action code category: %s\n", c.Name)
		}

		codes := []struct {
			Code     string
			Name     string
			Category string
			Allow    bool
		}{
			{"DEV", "Development", "billable", true},
			{"CONSULT", "Consulting", "billable", true},
			{"MEET", "Internal meeting", "internal", true},
			{"HOLIDAY", "Public holiday", "absence", false},
		}
		for _, c := range codes {
			categoryID := categoryIDs[c.Category]
			row := actionCodeDatamodel.ActionCode{}
			if err := db.Where(actionCodeDatamodel.ActionCode{CompanyID: company.ID, Code: c.Code}).
				Attrs(actionCodeDatamodel.ActionCode{
					ID:               uuid.New(),
					CategoryID:       &categoryID,
					Name:             c.Name,
					AllowTimeLogging: c.Allow,
				}).
				FirstOrCreate(&row).Error; err != nil {
				log.Fatalf("failed to insert action code %s: %v", c.Code, err)
			}
		}

		fmt.Println("Action codes seeded successfully")
	},
}

func seedRole(db *gorm.DB, companyID uuid.UUID, name, description string) rbac.Role {
	role := rbac.Role{}
	if err := db.Where(rbac.Role{CompanyID: companyID, Name: name}).
		Attrs(rbac.Role{ID: uuid.New(), Description: description}).
		FirstOrCreate(&role).Error; err != nil {
		log.Fatalf("failed to insert role %s: %v", name, err)
	}
	fmt.Println("Seeded role:", name)
	return role
}

func seedUser(db *gorm.DB, companyID, roleID uuid.UUID, email, name, hash string) {
	u := userDatamodel.User{}
	if err := db.Where(userDatamodel.User{Email: email}).
		Attrs(userDatamodel.User{
			ID:           uuid.New(),
			CompanyID:    companyID,
			RoleID:       &roleID,
			Name:         name,
			PasswordHash: hash,
			IsActive:     true,
		}).
		FirstOrCreate(&u).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
}
