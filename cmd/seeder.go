package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/expenseops/expense-approval/internal/auth"
	"github.com/expenseops/expense-approval/internal/category"
	"github.com/expenseops/expense-approval/internal/project"
	"github.com/expenseops/expense-approval/internal/user"
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

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{
				"expenses", "reimbursements", "direct_expense_requests",
				"project_revisions", "projects", "expense_categories", "users",
			} {
				if err := gormDB.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		if err := seedUsers(gormDB); err != nil {
			log.Fatalf("failed to seed users: %v", err)
		}
		if err := seedCategories(gormDB); err != nil {
			log.Fatalf("failed to seed categories: %v", err)
		}
		if err := seedProjects(gormDB); err != nil {
			log.Fatalf("failed to seed projects: %v", err)
		}
	},
}

func seedUsers(db *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	seedAccounts := []user.User{
		{Name: "Andi Admin", Email: "admin@expenseops.dev", Role: auth.RoleAdmin},
		{Name: "Fira Finance", Email: "finance@expenseops.dev", Role: auth.RoleFinance},
		{Name: "Sari Staff", Email: "staff@expenseops.dev", Role: auth.RoleStaff,
			BankName: "BCA", BankAccountNumber: "1234567890", BankAccountName: "Sari Staff"},
	}

	now := time.Now()
	for _, account := range seedAccounts {
		var exists int64
		if err := db.Model(&user.User{}).Where("email = ?", account.Email).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			fmt.Printf("user %s already exists, skipping\n", account.Email)
			continue
		}

		account.PasswordHash = string(hash)
		account.IsActive = true
		account.CreatedAt = now
		account.UpdatedAt = now
		if err := db.Create(&account).Error; err != nil {
			return err
		}
		fmt.Printf("Seeded user %s (%s)\n", account.Email, account.Role)
	}
	return nil
}

func seedCategories(db *gorm.DB) error {
	names := []string{
		category.ReimbursementCategoryName,
		"Travel", "Meals", "Office Supplies", "Software",
	}
	for _, name := range names {
		var exists int64
		if err := db.Model(&category.Category{}).Where("name = ?", name).Count(&exists).Error; err != nil {
			return err
		}
		if exists > 0 {
			continue
		}
		if err := db.Create(category.NewCategory(name, "", 0)).Error; err != nil {
			return err
		}
		fmt.Printf("Seeded category %s\n", name)
	}
	return nil
}

func seedProjects(db *gorm.DB) error {
	var exists int64
	if err := db.Model(&project.Project{}).Count(&exists).Error; err != nil {
		return err
	}
	if exists > 0 {
		return nil
	}

	now := time.Now()
	sample := &project.Project{
		Name:        "Website Revamp",
		Client:      "PT Maju Bersama",
		Value:       250_000_000,
		Deadline:    now.AddDate(0, 6, 0),
		Status:      project.StatusActive,
		Description: "Corporate website redesign and CMS migration",
		CreatedBy:   1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.Create(sample).Error; err != nil {
		return err
	}
	fmt.Printf("Seeded project %s\n", sample.Name)
	return nil
}
