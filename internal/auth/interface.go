package auth

import "github.com/unsaid-app/backend/internal/models"

// AuthServiceInterface defines the contract for authentication operations.
// This enables mocking for unit tests without requiring a real database.
type AuthServiceInterface interface {
	// Registration and login
	RegisterUser(req RegisterRequest) (*AuthResponse, error)
	LoginUser(req LoginRequest) (*AuthResponse, error)

	// User lookup
	FindUserByEmail(email string) (*models.User, error)

	// Token operations
	ValidateToken(tokenString string) (*models.User, error)
	GenerateTokenForUser(user *models.User) (*AuthResponse, error)

	// Password reset
	RequestPasswordReset(email string) (*models.PasswordReset, error)
	ResetPassword(token, newPassword string) error
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
