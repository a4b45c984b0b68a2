package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PrincipalKind distinguishes the two disjoint principal types.
type PrincipalKind string

const (
	KindStudent PrincipalKind = "STUDENT"
	KindWorker  PrincipalKind = "WORKER"
)

// TokenRole is the closed permission class carried in access tokens.
type TokenRole string

const (
	RoleStudent TokenRole = "STUDENT"
	RoleTeacher TokenRole = "TEACHER"
	RoleAdmin   TokenRole = "ADMIN"
)

// LoginRequest holds credentials for authenticating a principal.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterStudentRequest creates a new student account.
type RegisterStudentRequest struct {
	LastName   string `json:"last_name" validate:"required"`
	FirstName  string `json:"first_name" validate:"required"`
	MiddleName string `json:"middle_name"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
}

// RegisterWorkerRequest creates a new staff account. Admin only.
type RegisterWorkerRequest struct {
	LastName   string `json:"last_name" validate:"required"`
	FirstName  string `json:"first_name" validate:"required"`
	MiddleName string `json:"middle_name"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	RoleID     string `json:"role_id" validate:"required"`
}

// AuthResponse returns the issued token and principal info.
type AuthResponse struct {
	AccessToken string        `json:"access_token"`
	ExpiresIn   int64         `json:"expires_in"`
	IssuedAt    time.Time     `json:"issued_at"`
	Principal   PrincipalInfo `json:"principal"`
}

// PrincipalInfo describes the authenticated principal in responses.
type PrincipalInfo struct {
	ID       string        `json:"id"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name"`
	Kind     PrincipalKind `json:"kind"`
	Role     TokenRole     `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   string        `json:"user_id"`
	Kind     PrincipalKind `json:"kind"`
	Role     TokenRole     `json:"role"`
	Email    string        `json:"email"`
	FullName string        `json:"full_name"`
	jwt.RegisteredClaims
}
