package user

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Username           string    `json:"username"`
	Name               string    `json:"name"`
	PasswordHash       *string   `json:"-"`
	Role               Role      `json:"role"`
	ImageURL           *string   `json:"imageUrl,omitempty"`
	Branch             *string   `json:"branch,omitempty"`
	GraduationYear     *int      `json:"graduationYear,omitempty"`
	Bio                *string   `json:"bio,omitempty"`
	LeetCodeUsername   *string   `json:"leetcodeUsername,omitempty"`
	HackerRankUsername *string   `json:"hackerrankUsername,omitempty"`
	GFGUsername        *string   `json:"gfgUsername,omitempty"`
	ClerkID            *string   `json:"-"`
	EmailNotifications bool      `json:"emailNotifications"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Handles is the set of platform usernames a user has linked.
type Handles struct {
	LeetCode   string
	HackerRank string
	GFG        string
}

func (h Handles) Empty() bool {
	return h.LeetCode == "" && h.HackerRank == "" && h.GFG == ""
}

func (u *User) Handles() Handles {
	return Handles{
		LeetCode:   deref(u.LeetCodeUsername),
		HackerRank: deref(u.HackerRankUsername),
		GFG:        deref(u.GFGUsername),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
