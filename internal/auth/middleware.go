package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Realwahba/support-tickets/internal/domain"
	apperrors "github.com/Realwahba/support-tickets/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller, either a store account or a
// support operator.
type Principal struct {
	SubjectType domain.SubjectType
	Account     *domain.Account
	Staff       *domain.StaffPrincipal
}

// AuthMiddleware validates bearer tokens and materializes principals from the
// claims.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject}

	switch claims.Subject {
	case domain.SubjectTypeCustomer:
		if claims.Email == "" {
			return apperrors.NewUnauthorized("token missing account email")
		}
		principal.Account = &domain.Account{
			ID:          claims.SubjectID,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
		}
	case domain.SubjectTypeStaff:
		role := domain.StaffRoleAgent
		if claims.Role != nil {
			role = *claims.Role
		}
		principal.Staff = &domain.StaffPrincipal{
			ID:          claims.SubjectID,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
			Role:        role,
		}
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// AccountFromContext returns the customer account, if the caller is one.
func AccountFromContext(c *fiber.Ctx) (*domain.Account, bool) {
	principal, ok := PrincipalFromContext(c)
	if !ok || principal.Account == nil {
		return nil, false
	}
	return principal.Account, true
}

// StaffFromContext returns the staff principal, if the caller is one.
func StaffFromContext(c *fiber.Ctx) (*domain.StaffPrincipal, bool) {
	principal, ok := PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, false
	}
	return principal.Staff, true
}
