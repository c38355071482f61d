// Package main provides admin management utilities for Mix.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"mix/internal/config"
	"mix/internal/database"
	"mix/internal/models"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin/main.go promote <user_id>      - Promote user to admin")
		fmt.Println("  go run ./cmd/admin/main.go demote <user_id>       - Demote user from admin")
		fmt.Println("  go run ./cmd/admin/main.go list-admins            - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	command := os.Args[1]

	switch command {
	case "promote":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin/main.go promote <user_id>")
			os.Exit(1)
		}
		setRole(db, os.Args[2], models.RoleAdmin)

	case "demote":
		if len(os.Args) < 3 {
			fmt.Println("Usage: go run ./cmd/admin/main.go demote <user_id>")
			os.Exit(1)
		}
		setRole(db, os.Args[2], models.RoleMember)

	case "list-admins":
		listAdmins(db)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setRole(db *gorm.DB, userID string, role models.UserRole) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with ID %s not found\n", userID)
		} else {
			log.Fatalf("Database error: %v", err)
		}
		os.Exit(1)
	}

	if user.Role == role {
		fmt.Printf("User %s (ID: %d) already has role %s\n", user.Email, user.ID, role)
		return
	}

	user.Role = role
	if err := db.Save(&user).Error; err != nil {
		log.Fatalf("Failed to update user role: %v", err)
	}

	fmt.Printf("✅ Successfully set %s (ID: %d) to role %s\n", user.Email, user.ID, role)
}

func listAdmins(db *gorm.DB) {
	var admins []models.User
	if err := db.Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Email: %s | Status: %s\n", admin.ID, admin.Email, admin.Status)
	}
	fmt.Println("─────────────────────────────────────")
}
