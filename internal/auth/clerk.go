package auth

import (
	"context"
	"fmt"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	clerkjwt "github.com/clerk/clerk-sdk-go/v2/jwt"
)

// ClerkVerifier checks hosted-identity session tokens and returns the Clerk user id.
type ClerkVerifier struct{}

func NewClerkVerifier(secretKey string) *ClerkVerifier {
	clerk.SetKey(secretKey)
	return &ClerkVerifier{}
}

func (v *ClerkVerifier) Verify(ctx context.Context, token string) (string, error) {
	claims, err := clerkjwt.Verify(ctx, &clerkjwt.VerifyParams{Token: token})
	if err != nil {
		return "", fmt.Errorf("auth: clerk verification failed: %w", err)
	}
	return claims.Subject, nil
}
