package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campusRankAPI/internal/apperror"
	"campusRankAPI/internal/auth"
	"campusRankAPI/internal/types/leaderboard"
	"campusRankAPI/internal/types/user"
	"campusRankAPI/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const userColumns = `id, email, username, name, password_hash, role, image_url, branch, graduation_year, bio,
	leetcode_username, hackerrank_username, gfg_username, clerk_id, email_notifications, created_at, updated_at`

type UserService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db, logger: zap.L().Named("users")}
}

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.Name, &u.PasswordHash, &u.Role, &u.ImageURL,
		&u.Branch, &u.GraduationYear, &u.Bio,
		&u.LeetCodeUsername, &u.HackerRankUsername, &u.GFGUsername,
		&u.ClerkID, &u.EmailNotifications, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (s *UserService) getOne(ctx context.Context, where string, arg any) (*user.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFoundMsg("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	if !validUUID(id) {
		return nil, apperror.NotFound("user", id)
	}
	return s.getOne(ctx, "id = $1", id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	return s.getOne(ctx, "LOWER(username) = LOWER($1)", username)
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	return s.getOne(ctx, "clerk_id = $1", clerkID)
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	query := `
	INSERT INTO users (email, username, name, password_hash, image_url, clerk_id, google_id, github_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query,
		strings.ToLower(strings.TrimSpace(req.Email)), req.Username, req.Name, req.PasswordHash,
		req.ImageURL, req.ClerkID, req.GoogleID, req.GitHubID,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("email or username already in use")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created", zap.String("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// AvailableUsername returns base, or base with a numeric suffix, that no one has taken.
func (s *UserService) AvailableUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 1; i < 1000; i++ {
		ok, err := s.IsUsernameAvailable(ctx, candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", apperror.Conflict("could not find a free username")
}

func (s *UserService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return !exists, nil
}

// UpsertOAuthUser finds the user by provider id, then by email (linking the
// provider), and creates one when neither matches.
func (s *UserService) UpsertOAuthUser(ctx context.Context, id *auth.Identity) (*user.User, error) {
	column := "google_id"
	if id.Provider == auth.ProviderGitHub {
		column = "github_id"
	}

	u, err := s.getOne(ctx, column+" = $1", id.ProviderID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	u, err = scanUser(s.db.QueryRow(ctx,
		`UPDATE users SET `+column+` = $1, image_url = COALESCE(image_url, NULLIF($2, '')), updated_at = NOW()
		 WHERE LOWER(email) = LOWER($3)
		 RETURNING `+userColumns,
		id.ProviderID, id.AvatarURL, id.Email,
	))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to link %s account: %w", id.Provider, err)
	}

	username, err := s.AvailableUsername(ctx, utils.UsernameFrom(id.Login, id.Email))
	if err != nil {
		return nil, err
	}

	req := &user.CreateUserRequest{Email: id.Email, Username: username, Name: id.Name}
	if id.AvatarURL != "" {
		req.ImageURL = &id.AvatarURL
	}
	if id.Provider == auth.ProviderGitHub {
		req.GitHubID = &id.ProviderID
	} else {
		req.GoogleID = &id.ProviderID
	}
	return s.CreateUser(ctx, req)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *user.UpdateProfileRequest) (*user.User, error) {
	if req.Username != nil {
		current, err := s.GetUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(current.Username, *req.Username) {
			ok, err := s.IsUsernameAvailable(ctx, *req.Username)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, apperror.Conflict("username is already taken")
			}
		}
	}

	query := `
	UPDATE users SET
		name                = COALESCE($2, name),
		username            = COALESCE($3, username),
		branch              = COALESCE($4, branch),
		graduation_year     = COALESCE($5, graduation_year),
		bio                 = COALESCE($6, bio),
		leetcode_username   = CASE WHEN $7::text IS NULL THEN leetcode_username ELSE NULLIF($7, '') END,
		hackerrank_username = CASE WHEN $8::text IS NULL THEN hackerrank_username ELSE NULLIF($8, '') END,
		gfg_username        = CASE WHEN $9::text IS NULL THEN gfg_username ELSE NULLIF($9, '') END,
		email_notifications = COALESCE($10, email_notifications),
		updated_at          = NOW()
	WHERE id = $1
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query,
		userID, req.Name, req.Username, req.Branch, req.GraduationYear, req.Bio,
		trimmed(req.LeetCodeUsername), trimmed(req.HackerRankUsername), trimmed(req.GFGUsername),
		req.EmailNotifications,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", userID)
		}
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("username is already taken")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

// trimmed keeps nil as "no change" and maps "" to "unlink".
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func (s *UserService) SetImageURL(ctx context.Context, userID, url string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET image_url = $2, updated_at = NOW() WHERE id = $1`, userID, url)
	if err != nil {
		return fmt.Errorf("failed to update image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if !validUUID(userID) {
		return apperror.NotFound("user", userID)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("user", userID)
	}
	s.logger.Info("user deleted", zap.String("user_id", userID))
	return nil
}

func (s *UserService) GetPublicProfile(ctx context.Context, username string) (*user.PublicProfile, error) {
	u, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	p := &user.PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		Name:           u.Name,
		ImageURL:       u.ImageURL,
		Branch:         u.Branch,
		GraduationYear: u.GraduationYear,
		Bio:            u.Bio,
		History:        []*leaderboard.HistoryPoint{},
	}

	if p.LeetCode, err = getLeetCodeProfile(ctx, s.db, u.ID); err != nil {
		return nil, err
	}
	if p.HackerRank, err = getHackerRankProfile(ctx, s.db, u.ID); err != nil {
		return nil, err
	}
	if p.GFG, err = getGFGProfile(ctx, s.db, u.ID); err != nil {
		return nil, err
	}
	if p.Stats, err = getStats(ctx, s.db, u.ID); err != nil {
		return nil, err
	}
	if p.History, err = getHistory(ctx, s.db, u.ID, 30); err != nil {
		return nil, err
	}
	return p, nil
}

// ListUsers backs the admin user table.
func (s *UserService) ListUsers(ctx context.Context, search string, page, pageSize int) ([]*user.User, int, error) {
	page, pageSize = clampPage(page, pageSize, 20, 100)

	where := ""
	args := []any{pageSize, (page - 1) * pageSize}
	if strings.TrimSpace(search) != "" {
		where = `WHERE username ILIKE $3 OR email ILIKE $3 OR name ILIKE $3`
		args = append(args, likePattern(search))
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users `+where+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	countArgs := args[2:]
	countWhere := strings.ReplaceAll(where, "$3", "$1")
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users `+countWhere, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	return users, total, nil
}

func (s *UserService) UpdateRole(ctx context.Context, userID string, role user.Role) (*user.User, error) {
	if !validUUID(userID) {
		return nil, apperror.NotFound("user", userID)
	}
	u, err := scanUser(s.db.QueryRow(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 RETURNING `+userColumns, userID, role))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	s.logger.Info("role changed", zap.String("user_id", userID), zap.String("role", string(role)))
	return u, nil
}

// SyncClerkUser creates or refreshes the local row for a hosted-identity user.
func (s *UserService) SyncClerkUser(ctx context.Context, clerkID, email, name, login, imageURL string) (*user.User, error) {
	u, err := s.GetUserByClerkID(ctx, clerkID)
	if err == nil {
		return scanUser(s.db.QueryRow(ctx,
			`UPDATE users SET email = COALESCE(NULLIF($2, ''), email), name = COALESCE(NULLIF($3, ''), name),
				image_url = COALESCE(NULLIF($4, ''), image_url), updated_at = NOW()
			 WHERE id = $1 RETURNING `+userColumns,
			u.ID, strings.ToLower(email), name, imageURL))
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "clerk user has no email address")
	}

	// an account with this email may predate Clerk
	linked, err := scanUser(s.db.QueryRow(ctx,
		`UPDATE users SET clerk_id = $1, updated_at = NOW() WHERE LOWER(email) = LOWER($2) AND clerk_id IS NULL RETURNING `+userColumns,
		clerkID, email))
	if err == nil {
		return linked, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to link clerk user: %w", err)
	}

	username, err := s.AvailableUsername(ctx, utils.UsernameFrom(login, email))
	if err != nil {
		return nil, err
	}
	req := &user.CreateUserRequest{Email: email, Username: username, Name: name, ClerkID: &clerkID}
	if imageURL != "" {
		req.ImageURL = &imageURL
	}
	return s.CreateUser(ctx, req)
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete clerk user: %w", err)
	}
	return nil
}

// UsersWithHandles returns everyone who linked at least one platform.
func (s *UserService) UsersWithHandles(ctx context.Context) ([]*user.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users
		WHERE leetcode_username IS NOT NULL OR hackerrank_username IS NOT NULL OR gfg_username IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
