//go:build ignore

// Seed creates a demo organization with users, memberships and boards,
// and backfills an OWNER board membership for any board that has none.
// The backfill is a one-time data-repair concern, not runtime behavior.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/boardstack/internal/database"
	"github.com/hugh/boardstack/internal/database/models"
	"github.com/hugh/boardstack/pkg/config"
	"github.com/hugh/boardstack/pkg/util"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	org := models.Organization{
		Name: "Demo Organization",
		Slug: "demo-org",
		Plan: "pro",
	}
	if err := db.Where("slug = ?", org.Slug).FirstOrCreate(&org).Error; err != nil {
		log.Fatalf("failed to create organization: %v", err)
	}

	owner := seedUser(db, org.ID, "demo-owner", "owner@example.com", "Demo Owner", models.OrgRoleOwner)
	member := seedUser(db, org.ID, "demo-member", "member@example.com", "Demo Member", models.OrgRoleMember)

	board := models.Board{
		OrganizationID: org.ID,
		Title:          "Demo Board",
	}
	if err := db.Where("organization_id = ? AND title = ?", org.ID, board.Title).
		FirstOrCreate(&board).Error; err != nil {
		log.Fatalf("failed to create board: %v", err)
	}
	seedBoardMember(db, &board, owner, models.BoardRoleOwner)
	seedBoardMember(db, &board, member, models.BoardRoleMember)

	// Backfill: every board needs at least one OWNER membership or it
	// becomes unmanageable. Assign orphaned boards to the org owner.
	var orphans []models.Board
	if err := db.Where(
		"organization_id = ? AND id NOT IN (?)",
		org.ID,
		db.Model(&models.BoardMembership{}).
			Select("board_id").
			Where("role = ?", models.BoardRoleOwner),
	).Find(&orphans).Error; err != nil {
		log.Fatalf("failed to find orphaned boards: %v", err)
	}
	for i := range orphans {
		seedBoardMember(db, &orphans[i], owner, models.BoardRoleOwner)
		fmt.Printf("backfilled owner for board %s\n", orphans[i].ID)
	}

	fmt.Println("seed complete")
	fmt.Printf("  organization: %s (%s)\n", org.Name, org.ID)
	fmt.Printf("  owner user:   %s (%s)\n", owner.Email, owner.ExternalID)
	fmt.Printf("  member user:  %s (%s)\n", member.Email, member.ExternalID)
}

func seedUser(db *gorm.DB, orgID uuid.UUID, externalID, email, name string, role models.OrgRole) *models.User {
	user := models.User{
		ExternalID: externalID,
		Email:      email,
		Name:       name,
	}
	if err := db.Where("external_id = ?", externalID).FirstOrCreate(&user).Error; err != nil {
		log.Fatalf("failed to create user %s: %v", email, err)
	}

	membership := models.OrganizationMembership{
		UserID:         user.ID,
		OrganizationID: orgID,
		Role:           role,
		Status:         models.MembershipActive,
	}
	if err := db.Where("user_id = ? AND organization_id = ?", user.ID, orgID).
		FirstOrCreate(&membership).Error; err != nil {
		log.Fatalf("failed to create org membership for %s: %v", email, err)
	}
	return &user
}

func seedBoardMember(db *gorm.DB, board *models.Board, user *models.User, role models.BoardRole) {
	membership := models.BoardMembership{
		BoardID:        board.ID,
		UserID:         user.ID,
		OrganizationID: board.OrganizationID,
		Role:           role,
		JoinedAt:       time.Now(),
	}
	if err := db.Where("board_id = ? AND user_id = ?", board.ID, user.ID).
		FirstOrCreate(&membership).Error; err != nil {
		log.Fatalf("failed to create board membership: %v", err)
	}
}
