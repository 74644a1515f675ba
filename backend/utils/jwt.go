package utils

import (
	"memberspace/backend/config"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

func GenerateJWTToken(userID uint, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// GenerateMemberToken issues a project-scoped token for a member session.
// Member tokens carry member_id and project_id instead of user_id so an
// owner token can never be replayed on the member surface or vice versa.
func GenerateMemberToken(memberID, projectID uint, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"member_id":  memberID,
		"project_id": projectID,
		"exp":        time.Now().Add(time.Hour * 72).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

func parseToken(c *fiber.Ctx, cfg *config.Config) (jwt.MapClaims, error) {
	tokenString := c.Get("Authorization")
	if tokenString == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Missing authorization token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	return claims, nil
}

func ExtractUserIDFromToken(c *fiber.Ctx, cfg *config.Config) (uint, error) {
	claims, err := parseToken(c, cfg)
	if err != nil {
		return 0, err
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	return uint(userIDFloat), nil
}

// ExtractMemberFromToken returns the member and project IDs of a member
// session token.
func ExtractMemberFromToken(c *fiber.Ctx, cfg *config.Config) (uint, uint, error) {
	claims, err := parseToken(c, cfg)
	if err != nil {
		return 0, 0, err
	}

	memberIDFloat, ok := claims["member_id"].(float64)
	if !ok {
		return 0, 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid member ID in token")
	}

	projectIDFloat, ok := claims["project_id"].(float64)
	if !ok {
		return 0, 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid project ID in token")
	}

	return uint(memberIDFloat), uint(projectIDFloat), nil
}
