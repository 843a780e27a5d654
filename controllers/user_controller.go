package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BongominErickJuma/quickmart-server/middleware"
	"github.com/BongominErickJuma/quickmart-server/models"
	"github.com/BongominErickJuma/quickmart-server/repository"
)

type UserController struct {
	users repository.UserRepository
}

func NewUserController(users repository.UserRepository) *UserController {
	return &UserController{users: users}
}

func (u *UserController) GetMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "You are not logged in, please login"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": user}})
}

func (u *UserController) UpdateMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "You are not logged in, please login"})
		return
	}

	// Explicit whitelist; anything else in the body is ignored, except
	// password changes which have their own route.
	var input struct {
		Password        *string         `json:"password"`
		ConfirmPassword *string         `json:"confirmPassword"`
		FirstName       *string         `json:"firstName"`
		LastName        *string         `json:"lastName"`
		Username        *string         `json:"username"`
		Email           *string         `json:"email" binding:"omitempty,email"`
		Phones          *[]models.Phone `json:"phones"`
		City            *string         `json:"city"`
		Country         *string         `json:"country"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid input: " + err.Error()})
		return
	}

	if input.Password != nil || input.ConfirmPassword != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "fail",
			"message": "This route is not for changing password. Please use update password",
		})
		return
	}

	fields := bson.M{}
	if input.FirstName != nil {
		fields["firstName"] = *input.FirstName
	}
	if input.LastName != nil {
		fields["lastName"] = *input.LastName
	}
	if input.Username != nil {
		fields["username"] = *input.Username
	}
	if input.Email != nil {
		fields["email"] = *input.Email
	}
	if input.Phones != nil {
		fields["phones"] = *input.Phones
	}
	if input.City != nil {
		fields["city"] = *input.City
	}
	if input.Country != nil {
		fields["country"] = *input.Country
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updated, err := u.users.UpdateFields(ctx, user.ID, fields)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"status": "fail", "message": "Email already registered"})
			return
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": updated}})
}

func (u *UserController) DeleteMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "fail", "message": "You are not logged in, please login"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := u.users.Deactivate(ctx, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to delete account"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func (u *UserController) GetAllUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, err := u.users.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"result": len(users),
		"data":   gin.H{"users": users},
	})
}

func (u *UserController) GetUser(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "fail", "message": "Invalid user id"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "fail", "message": "No user found with that ID"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": user}})
}
