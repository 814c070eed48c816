package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sundayekpa25-ai/projectsandtasks/logging"
	"github.com/sundayekpa25-ai/projectsandtasks/models"
	"github.com/sundayekpa25-ai/projectsandtasks/utils"
)

type UserService struct {
	usersCollection *mongo.Collection
	notifications   *NotificationService
}

func NewUserService(usersCollection *mongo.Collection, notifications *NotificationService) *UserService {
	return &UserService{
		usersCollection: usersCollection,
		notifications:   notifications,
	}
}

// OnboardInput carries a register request.
type OnboardInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Onboard creates a new user. Role rules are enforced at creation time:
// admins may create any role, project managers only team members and clients.
func (s *UserService) Onboard(ctx context.Context, creator *models.User, input OnboardInput) (*models.User, error) {
	fields := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		fields["name"] = "name is required"
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		fields["email"] = "valid email is required"
	}
	if err := utils.ValidatePassword(input.Password); err != nil {
		fields["password"] = err.Error()
	}
	if !models.ValidRole(input.Role) {
		fields["role"] = "valid role is required"
	}
	if len(fields) > 0 {
		return nil, errValidation(fields)
	}

	role := models.Role(input.Role)
	if !models.CanOnboard(creator.Role, role) {
		return nil, errForbidden(fmt.Sprintf("role %s may not onboard a %s", creator.Role, role))
	}

	count, err := s.usersCollection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing users: %v", err)
	}
	if count > 0 {
		return nil, errValidation(map[string]string{"email": "user with this email already exists"})
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:          primitive.NewObjectID(),
		Name:        strings.TrimSpace(input.Name),
		Email:       email,
		Password:    hash,
		Role:        role,
		IsActive:    true,
		OnboardedBy: &creator.ID,
		CreatedAt:   time.Now(),
	}

	if _, err := s.usersCollection.InsertOne(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_ONBOARDED, Description: User %s onboarded as %s by %s", user.Email, user.Role, creator.Email)

	s.notifications.Notify(ctx, user.ID, models.NotifyUserOnboarded, "Welcome!",
		fmt.Sprintf("You have been onboarded by %s", creator.Name), nil, nil)

	return user, nil
}

// Login verifies credentials and returns the user with a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	fields := map[string]string{}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		fields["email"] = "email is required"
	}
	if password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return nil, "", errValidation(fields)
	}

	var user models.User
	err := s.usersCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, "", errUnauthenticated("invalid email or password")
		}
		return nil, "", fmt.Errorf("failed to look up user: %v", err)
	}

	if !user.IsActive {
		return nil, "", errUnauthenticated("account is inactive")
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, "", errUnauthenticated("invalid email or password")
	}

	now := time.Now()
	user.LastLogin = &now
	if _, err := s.usersCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{"lastLogin": now}}); err != nil {
		logging.Logger.Warnf("Event ID: LAST_LOGIN_UPDATE_FAILED, Description: Failed to update last login for %s: %v", user.Email, err)
	}

	token, err := utils.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %v", err)
	}

	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: Login successful for %s (%s)", user.Email, user.Role)
	return &user, token, nil
}

// GetActiveUser resolves a user id to an active user, for auth middleware.
func (s *UserService) GetActiveUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.usersCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errUnauthenticated("user not found or inactive")
		}
		return nil, fmt.Errorf("failed to look up user: %v", err)
	}
	if !user.IsActive {
		return nil, errUnauthenticated("user not found or inactive")
	}
	return &user, nil
}

// EnsureSeedAdmin creates the bootstrap admin account when the users
// collection is empty, so a fresh deployment can log in.
func (s *UserService) EnsureSeedAdmin(ctx context.Context, email, password string) error {
	count, err := s.usersCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count users: %v", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      "Administrator",
		Email:     strings.ToLower(email),
		Password:  hash,
		Role:      models.RoleAdmin,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	if _, err := s.usersCollection.InsertOne(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %v", err)
	}

	logging.Logger.Infof("Event ID: ADMIN_SEEDED, Description: Seed admin account created for %s", admin.Email)
	return nil
}
