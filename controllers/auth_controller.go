package controllers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/BongominErickJuma/quickmart-server/config"
	"github.com/BongominErickJuma/quickmart-server/mailer"
	"github.com/BongominErickJuma/quickmart-server/middleware"
	"github.com/BongominErickJuma/quickmart-server/models"
	"github.com/BongominErickJuma/quickmart-server/repository"
)

const bcryptCost = 12

type AuthController struct {
	users repository.UserRepository
	mail  mailer.Mailer
	cfg   *config.Config
	log   zerolog.Logger
}

func NewAuthController(users repository.UserRepository, mail mailer.Mailer, cfg *config.Config, log zerolog.Logger) *AuthController {
	return &AuthController{users: users, mail: mail, cfg: cfg, log: log}
}

func (a *AuthController) Signup(c *gin.Context) {
	var input struct {
		Username        string         `json:"username"`
		FirstName       string         `json:"firstName" binding:"required,max=50"`
		LastName        string         `json:"lastName" binding:"required,max=50"`
		Email           string         `json:"email" binding:"required,email"`
		Password        string         `json:"password" binding:"required,min=8"`
		ConfirmPassword string         `json:"confirmPassword" binding:"required,eqfield=Password"`
		City            string         `json:"city" binding:"required,max=50"`
		Country         string         `json:"country" binding:"required,max=50"`
		Phones          []models.Phone `json:"phones"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid input: " + err.Error()})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to register"})
		return
	}

	user := &models.User{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  string(hashed),
		City:      input.City,
		Country:   input.Country,
		Phones:    input.Phones,
		Role:      models.RoleUser,
		Photo:     "/img/users/default.jpg",
		IsActive:  true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"status": "fail", "message": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to register"})
		return
	}

	// Welcome email is best effort; registration already succeeded.
	if err := a.mail.SendWelcome(user, a.cfg.ClientBaseURL+"/profile"); err != nil {
		a.log.Warn().Err(err).Str("email", user.Email).Msg("failed to send welcome email")
	}

	a.sendToken(c, user, http.StatusCreated)
}

func (a *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Please provide email and password"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := a.users.FindActiveByEmail(ctx, input.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "Invalid email or password"})
		return
	}

	a.sendToken(c, user, http.StatusOK)
}

func (a *AuthController) Logout(c *gin.Context) {
	c.SetCookie(middleware.CookieName, "logout", 10, "/", "", true, true)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "logout successful"})
}

func (a *AuthController) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Please provide a valid email"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := a.users.FindActiveByEmail(ctx, input.Email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": "Email does not exist"})
		return
	}

	token, tokenHash, err := newResetToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to create reset token"})
		return
	}

	if err := a.users.SaveResetToken(ctx, user.ID, tokenHash, time.Now().Add(10*time.Minute)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to create reset token"})
		return
	}

	resetURL := a.cfg.ClientBaseURL + "/reset-password?token=" + token
	if err := a.mail.SendPasswordReset(user, resetURL); err != nil {
		a.log.Error().Err(err).Str("email", user.Email).Msg("failed to send reset email")
		_ = a.users.ClearResetToken(ctx, user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "There was a problem sending reset token, try again later",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": fmt.Sprintf("Token sent to %s", user.Email),
	})
}

func (a *AuthController) ResetPassword(c *gin.Context) {
	var input struct {
		Password        string `json:"password" binding:"required,min=8"`
		ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid input: " + err.Error()})
		return
	}

	hash := sha256.Sum256([]byte(c.Param("token")))
	tokenHash := hex.EncodeToString(hash[:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := a.users.FindByResetToken(ctx, tokenHash, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Token has expired or is invalid"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to reset password"})
		return
	}

	// Backdate slightly so a token issued in the same second stays valid.
	changedAt := time.Now().Add(-time.Second)
	if err := a.users.SetPassword(ctx, user.ID, string(hashed), changedAt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to reset password"})
		return
	}

	a.sendToken(c, user, http.StatusOK)
}

func (a *AuthController) UpdatePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "You are not logged in, please login"})
		return
	}

	var input struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		Password        string `json:"password" binding:"required,min=8"`
		ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid input: " + err.Error()})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Wrong current password"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to update password"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changedAt := time.Now().Add(-time.Second)
	if err := a.users.SetPassword(ctx, user.ID, string(hashed), changedAt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to update password"})
		return
	}

	a.sendToken(c, user, http.StatusOK)
}

func (a *AuthController) signToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(a.cfg.JWTExpiresIn).Unix(),
	})
	return token.SignedString([]byte(a.cfg.JWTSecret))
}

func (a *AuthController) sendToken(c *gin.Context, user *models.User, statusCode int) {
	token, err := a.signToken(user.ID.Hex())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to sign token"})
		return
	}

	c.SetCookie(middleware.CookieName, token, int(a.cfg.JWTExpiresIn.Seconds()), "/", "", true, true)

	c.JSON(statusCode, gin.H{
		"status": "success",
		"token":  token,
		"data":   gin.H{"user": user},
	})
}

func newResetToken() (token, tokenHash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(raw)
	hash := sha256.Sum256([]byte(token))
	return token, hex.EncodeToString(hash[:]), nil
}
