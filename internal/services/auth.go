package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/requestdata"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

type JWTClaims struct {
	TutorID string `json:"tutor_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterTutor(ctx context.Context, tutor *types.Tutor) (string, error)
	LoginTutor(ctx context.Context, email, password string) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	tutorRepo    repos.TutorRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, tutorRepo repos.TutorRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		tutorRepo:    tutorRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) RegisterTutor(ctx context.Context, tutor *types.Tutor) (string, error) {
	if tutor == nil {
		return "", fmt.Errorf("No tutor given, cannot proceed with registration")
	}
	tutor.Email = strings.ToLower(strings.TrimSpace(tutor.Email))
	if tutor.Email == "" {
		return "", fmt.Errorf("An email is required to register")
	}
	if tutor.Password == "" {
		return "", fmt.Errorf("A password is required to register")
	}
	if tutor.Name == "" {
		return "", fmt.Errorf("A name is required to register")
	}
	exists, err := as.tutorRepo.EmailExists(ctx, nil, tutor.Email)
	if err != nil {
		return "", fmt.Errorf("Failed to check tutor email: %w", err)
	}
	if exists {
		return "", fmt.Errorf("Email is already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(tutor.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("Failed to hash password")
	}
	tutor.Password = string(hashed)

	if err := as.tutorRepo.Create(ctx, nil, tutor); err != nil {
		return "", fmt.Errorf("Failed to create tutor: %w", err)
	}
	as.log.Info("Tutor registered", "tutor_id", tutor.ID.String())
	return as.generateAccessToken(tutor)
}

func (as *authService) LoginTutor(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("Email is required to login")
	}
	if password == "" {
		return "", fmt.Errorf("Password is required to login")
	}
	tutor, err := as.tutorRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", fmt.Errorf("Failed to look up tutor: %w", err)
	}
	if tutor == nil {
		return "", fmt.Errorf("Invalid email or password")
	}
	if hErr := bcrypt.CompareHashAndPassword([]byte(tutor.Password), []byte(password)); hErr != nil {
		return "", fmt.Errorf("Invalid email or password")
	}
	return as.generateAccessToken(tutor)
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid token")
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok {
		return ctx, fmt.Errorf("invalid token claims")
	}
	tutorID, err := uuid.Parse(claims.TutorID)
	if err != nil {
		return ctx, fmt.Errorf("invalid tutor id in token")
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TutorID: tutorID,
		Email:   claims.Email,
	}), nil
}

func (as *authService) generateAccessToken(tutor *types.Tutor) (string, error) {
	claims := JWTClaims{
		TutorID: tutor.ID.String(),
		Email:   tutor.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tutor.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}
