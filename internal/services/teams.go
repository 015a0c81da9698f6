package services

import (
	"errors"
	"fmt"

	"taskboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeamService interface {
	InviteMember(db *gorm.DB, senderID uint, email string) (*models.User, error)
	AcceptRequest(db *gorm.DB, currentID, requesterID uint) error
	RejectRequest(db *gorm.DB, currentID, requesterID uint) error
	Team(db *gorm.DB, userID uint) ([]models.User, error)
	Invites(db *gorm.DB, userID uint) ([]models.User, error)
}

type TeamServiceImpl struct{}

func NewTeamService() *TeamServiceImpl {
	return &TeamServiceImpl{}
}

func isMember(tx *gorm.DB, a, b uint) (bool, error) {
	m := models.NewTeamMembership(a, b)
	var count int64
	err := tx.Model(&models.TeamMembership{}).
		Where("user_a_id = ? AND user_b_id = ?", m.UserAID, m.UserBID).
		Count(&count).Error
	return count > 0, err
}

// InviteMember records a pending invite from sender to the user registered
// under email and returns that user.
func (s *TeamServiceImpl) InviteMember(db *gorm.DB, senderID uint, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, validationError("email is required")
	}

	var target models.User
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).First(&target).Error; err != nil {
			return lookupError("user", err)
		}
		if target.ID == senderID {
			return validationError("cannot invite yourself")
		}

		member, err := isMember(tx, senderID, target.ID)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if member {
			return ErrAlreadyMember
		}

		invite := models.PendingInvite{FromUserID: senderID, ToUserID: target.ID}
		result := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&invite)
		if result.Error != nil {
			return fmt.Errorf("failed to create invite: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrDuplicateInvite
		}

		return notify(tx, senderID, target.ID, textInviteSent)
	})
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// takeInvite deletes the pending invite requester→current, failing with
// ErrNoPendingInvite when there is none.
func takeInvite(tx *gorm.DB, currentID, requesterID uint) error {
	var requester models.User
	if err := tx.First(&requester, requesterID).Error; err != nil {
		return lookupError("requester", err)
	}

	result := tx.Where("from_user_id = ? AND to_user_id = ?", requesterID, currentID).
		Delete(&models.PendingInvite{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete invite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoPendingInvite
	}
	return nil
}

// AcceptRequest makes requester and current teammates. A crossing invite in
// the other direction is consumed as well.
func (s *TeamServiceImpl) AcceptRequest(db *gorm.DB, currentID, requesterID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := takeInvite(tx, currentID, requesterID); err != nil {
			return err
		}

		err := tx.Where("from_user_id = ? AND to_user_id = ?", currentID, requesterID).
			Delete(&models.PendingInvite{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete reverse invite: %w", err)
		}

		membership := models.NewTeamMembership(currentID, requesterID)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&membership).Error; err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("failed to create membership: %w", err)
			}
		}

		return notify(tx, currentID, requesterID, textInviteAccepted)
	})
}

func (s *TeamServiceImpl) RejectRequest(db *gorm.DB, currentID, requesterID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := takeInvite(tx, currentID, requesterID); err != nil {
			return err
		}
		return notify(tx, currentID, requesterID, textInviteRejected)
	})
}

// Team lists the members paired with userID.
func (s *TeamServiceImpl) Team(db *gorm.DB, userID uint) ([]models.User, error) {
	asA := db.Model(&models.TeamMembership{}).Select("user_b_id").Where("user_a_id = ?", userID)
	asB := db.Model(&models.TeamMembership{}).Select("user_a_id").Where("user_b_id = ?", userID)

	var users []models.User
	err := db.Where("id IN (?) OR id IN (?)", asA, asB).Order("id").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list team: %w", err)
	}
	return users, nil
}

// Invites lists the users with an invite pending to userID.
func (s *TeamServiceImpl) Invites(db *gorm.DB, userID uint) ([]models.User, error) {
	from := db.Model(&models.PendingInvite{}).Select("from_user_id").Where("to_user_id = ?", userID)

	var users []models.User
	if err := db.Where("id IN (?)", from).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	return users, nil
}
