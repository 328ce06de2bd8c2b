package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/wayfarer-travel/wayfarer/internal/types"
)

// DefaultUserID is the user every suite acts as unless a test says otherwise
const DefaultUserID = "user_test_00000001"

// TestSigningSecret signs the tokens issued by the in-memory auth client
const TestSigningSecret = "test-signing-secret-for-unit-tests-only"

func SetupContext(userID string, token string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxUserID, userID)
	ctx = context.WithValue(ctx, types.CtxRequestID, uuid.New().String())
	ctx = context.WithValue(ctx, types.CtxJWT, token)
	return ctx
}
