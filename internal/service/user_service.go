package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mix/internal/models"
	"mix/internal/repository"
	"mix/internal/validation"
)

// UserService provides account and profile business logic.
type UserService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	now         func() time.Time
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		now:         time.Now,
	}
}

// ProfileInput carries profile fields for creation and update. Zero values
// on update mean "leave unchanged" except where noted.
type ProfileInput struct {
	UserID      uint
	DisplayName string
	BirthDate   time.Time
	Gender      string
	Bio         string
	City        string
	Latitude    float64
	Longitude   float64
	Interests   json.RawMessage
	Lifestyle   json.RawMessage
}

// GetUser returns the user with profile and photos loaded, age computed.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByIDWithProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Profile != nil {
		user.Profile.ComputeAge(s.now())
	}
	return user, nil
}

// CreateProfile creates the user's one profile during onboarding.
func (s *UserService) CreateProfile(ctx context.Context, in ProfileInput) (*models.Profile, error) {
	if err := validation.ValidateDisplayName(in.DisplayName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateBirthDate(in.BirthDate, s.now()); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateGender(in.Gender); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateBio(in.Bio); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	profile := &models.Profile{
		UserID:      in.UserID,
		DisplayName: in.DisplayName,
		BirthDate:   in.BirthDate,
		Gender:      in.Gender,
		Bio:         in.Bio,
		City:        in.City,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Interests:   in.Interests,
		Lifestyle:   in.Lifestyle,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, err
	}
	profile.ComputeAge(s.now())
	return profile, nil
}

// UpdateProfile mutates the editable profile fields. BirthDate is immutable
// after onboarding.
func (s *UserService) UpdateProfile(ctx context.Context, in ProfileInput) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.DisplayName != "" {
		if err := validation.ValidateDisplayName(in.DisplayName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.DisplayName = in.DisplayName
	}
	if in.Gender != "" {
		if err := validation.ValidateGender(in.Gender); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.Gender = in.Gender
	}
	if in.Bio != "" {
		if err := validation.ValidateBio(in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		profile.Bio = in.Bio
	}
	if in.City != "" {
		profile.City = in.City
	}
	if in.Latitude != 0 || in.Longitude != 0 {
		profile.Latitude = in.Latitude
		profile.Longitude = in.Longitude
	}
	if in.Interests != nil {
		profile.Interests = in.Interests
	}
	if in.Lifestyle != nil {
		profile.Lifestyle = in.Lifestyle
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	profile.ComputeAge(s.now())
	return profile, nil
}

// maxProfilePhotos caps the photo slots on one profile.
const maxProfilePhotos = 6

// AddProfilePhoto appends an already-processed image to the user's profile.
func (s *UserService) AddProfilePhoto(ctx context.Context, userID uint, imageHash string) (*models.ProfilePhoto, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(profile.Photos) >= maxProfilePhotos {
		return nil, models.NewValidationError(
			fmt.Sprintf("A profile can hold at most %d photos", maxProfilePhotos))
	}

	photo := &models.ProfilePhoto{
		ProfileID: profile.ID,
		ImageHash: imageHash,
		URL:       "/api/media/" + imageHash,
		Position:  len(profile.Photos),
	}
	if err := s.profileRepo.AddPhoto(ctx, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

// RemoveProfilePhoto deletes one of the user's own photo slots.
func (s *UserService) RemoveProfilePhoto(ctx context.Context, userID, photoID uint) error {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.profileRepo.RemovePhoto(ctx, profile.ID, photoID)
}

// SetUserStatus is the admin moderation lever for suspending and banning.
func (s *UserService) SetUserStatus(ctx context.Context, targetID uint, status models.UserStatus) (*models.User, error) {
	switch status {
	case models.UserStatusActive, models.UserStatusSuspended, models.UserStatusBanned:
	default:
		return nil, models.NewValidationError("Unknown user status")
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	user.Status = status
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers pages through accounts for the admin surface.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// TouchLastSeen records user activity for the discovery ordering.
func (s *UserService) TouchLastSeen(ctx context.Context, userID uint) {
	_ = s.userRepo.UpdateLastSeen(ctx, userID, s.now().UTC())
}
