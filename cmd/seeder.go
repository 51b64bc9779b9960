package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	userDatamodel "github.com/navgurukul/leave-management/internal/core/datamodel/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with one account per role for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := db.Exec("DELETE FROM leaves").Error; err != nil {
				log.Fatalf("failed to clear leaves: %v", err)
			}
			if err := db.Exec("DELETE FROM users").Error; err != nil {
				log.Fatalf("failed to clear users: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		accounts := []struct {
			Name  string
			Email string
			Role  userDatamodel.Role
		}{
			{"Riyan Student", "riyan1@gmail.com", userDatamodel.RoleUser},
			{"Riyan Admin", "riyan2@gmail.com", userDatamodel.RoleAdmin},
			{"Riyan SubAdmin", "riyan3@gmail.com", userDatamodel.RoleSubAdmin},
			{"Riyan SuperAdmin", "riyan4@gmail.com", userDatamodel.RoleSuperAdmin},
		}

		now := time.Now()
		for _, a := range accounts {
			var exists int
			row := db.Raw("SELECT 1 FROM users WHERE email = ?", a.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("user %s already exists, skipping\n", a.Email)
				continue
			}

			u := &userDatamodel.User{
				ID:           uuid.NewString(),
				Name:         a.Name,
				Email:        a.Email,
				PasswordHash: string(hash),
				Role:         a.Role,
				Avatar:       fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", a.Email),
				AuthProvider: userDatamodel.AuthProviderLocal,
				CreatedAt:    now,
			}
			u.SyncFlags()

			if err := db.Create(u).Error; err != nil {
				log.Fatalf("failed to insert user %s: %v", a.Email, err)
			}
			fmt.Printf("Seeded %s user: %s\n", a.Role, a.Email)
		}

		fmt.Println("Seeding complete. All accounts use password:", password)
	},
}
