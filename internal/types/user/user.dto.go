package user

import (
	"time"

	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/internal/types/platform"
)

type CreateUserRequest struct {
	Email        string
	Username     string
	Name         string
	PasswordHash *string
	ImageURL     *string
	ClerkID      *string
	GoogleID     *string
	GitHubID     *string
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name               *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Username           *string `json:"username,omitempty" validate:"omitempty,min=3,max=32,alphanum"`
	Branch             *string `json:"branch,omitempty" validate:"omitempty,max=100"`
	GraduationYear     *int    `json:"graduationYear,omitempty" validate:"omitempty,gte=1990,lte=2100"`
	Bio                *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	LeetCodeUsername   *string `json:"leetcodeUsername,omitempty" validate:"omitempty,max=64,excludesall= /"`
	HackerRankUsername *string `json:"hackerrankUsername,omitempty" validate:"omitempty,max=64,excludesall= /"`
	GFGUsername        *string `json:"gfgUsername,omitempty" validate:"omitempty,max=64,excludesall= /"`
	EmailNotifications *bool   `json:"emailNotifications,omitempty"`
}

type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=user admin"`
}

type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// PublicProfile is what anyone can see at /api/users/{username}.
type PublicProfile struct {
	ID             string                      `json:"id"`
	Username       string                      `json:"username"`
	Name           string                      `json:"name"`
	ImageURL       *string                     `json:"imageUrl,omitempty"`
	Branch         *string                     `json:"branch,omitempty"`
	GraduationYear *int                        `json:"graduationYear,omitempty"`
	Bio            *string                     `json:"bio,omitempty"`
	LeetCode       *platform.LeetCodeProfile   `json:"leetcode"`
	HackerRank     *platform.HackerRankProfile `json:"hackerrank"`
	GFG            *platform.GFGProfile        `json:"gfg"`
	Stats          *leaderboard.Stats          `json:"stats"`
	History        []*leaderboard.HistoryPoint `json:"history"`
}

type UsernameAvailability struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

// FetchProfileResponse reports what a manual fetch managed to refresh.
// Errors is keyed by platform; a failed platform keeps its previous snapshot.
type FetchProfileResponse struct {
	LeetCode   *platform.LeetCodeProfile   `json:"leetcode"`
	HackerRank *platform.HackerRankProfile `json:"hackerrank"`
	GFG        *platform.GFGProfile        `json:"gfg"`
	Stats      *leaderboard.Stats          `json:"stats"`
	Errors     map[platform.Name]string    `json:"errors,omitempty"`
}
