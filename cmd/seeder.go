package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

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

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"audit_logs", "notifications", "comments", "reports", "users", "departments"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password123"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		departments := []string{"Engineering", "Finance", "Human Resources"}
		for _, name := range departments {
			seedDepartment(db, name)
		}

		var engineeringID int64
		if err := db.Raw("SELECT id FROM departments WHERE name = ?", "Engineering").Row().Scan(&engineeringID); err != nil {
			log.Fatalf("failed to lookup Engineering department: %v", err)
		}

		seedUser(db, "admin", "Admin User", "admin@mail.com", "ADMIN", string(hash), nil)
		seedUser(db, "hruser", "HR User", "hr@mail.com", "HR", string(hash), nil)
		hodID := seedUser(db, "enghead", "Engineering Head", "enghead@mail.com", "HOD", string(hash), &engineeringID)
		seedUser(db, "staff1", "Staff One", "staff1@mail.com", "STAFF", string(hash), &engineeringID)
		seedUser(db, "staff2", "Staff Two", "staff2@mail.com", "STAFF", string(hash), &engineeringID)

		if err := db.Exec("UPDATE departments SET head_user_id = ? WHERE id = ? AND head_user_id IS NULL", hodID, engineeringID).Error; err != nil {
			log.Fatalf("failed to assign department head: %v", err)
		}

		fmt.Println("Seeded sample users with password:", password)
	},
}

func seedDepartment(db *gorm.DB, name string) {
	var exists int
	if err := db.Raw("SELECT 1 FROM departments WHERE name = ?", name).Row().Scan(&exists); err == nil {
		return
	}
	if err := db.Exec("INSERT INTO departments (name, created_at, updated_at) VALUES (?, now(), now())", name).Error; err != nil {
		log.Fatalf("failed to insert department %s: %v", name, err)
	}
	fmt.Println("Seeded department:", name)
}

func seedUser(db *gorm.DB, username, name, email, role, hash string, departmentID *int64) int64 {
	var id int64
	if err := db.Raw("SELECT id FROM users WHERE username = ?", username).Row().Scan(&id); err == nil {
		fmt.Println("user already exists:", username)
		return id
	}

	err := db.Raw(
		"INSERT INTO users (name, username, email, password_hash, role, department_id, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, true, now(), now()) RETURNING id",
		name, username, email, hash, role, departmentID,
	).Row().Scan(&id)
	if err != nil {
		log.Fatalf("failed to insert user %s: %v", username, err)
	}
	fmt.Println("Seeded user:", username)
	return id
}
