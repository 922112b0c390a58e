package controllers

import (
	"errors"
	"log"
	"net/http"
	"stayhub/src/db"
	"stayhub/src/models"
	"stayhub/src/types"
	"stayhub/src/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func AuthRegister(ctx *gin.Context) (userID *uint, status int, err error) {
	var body types.RegisterUserRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %s\n", err.Error())
		return nil, http.StatusInternalServerError, errors.New("could not process registration")
	}

	db := db.GetDb()
	var user models.User
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.
			Model(&models.User{}).
			Where("email = ?", body.Email).
			Count(&count).
			Error; err != nil {
			return err
		}
		if count > 0 {
			return types.NewAPIError(types.ERROR_CONFLICT, "Email is already registered")
		}
		user = models.User{
			Email:          body.Email,
			HashedPassword: string(hashed),
			FullName:       body.FullName,
			IsHost:         body.IsHost,
			IsActive:       true,
		}
		if err := tx.Create(&user).Error; err != nil {
			log.Printf("Error creating user: %s\n", err.Error())
			return err
		}
		return nil
	})
	if err != nil {
		var apiErr *types.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr.StatusCode(), err
		}
		return nil, http.StatusBadRequest, err
	}
	return &user.ID, http.StatusOK, nil
}

func AuthLogin(ctx *gin.Context) (token *string, status int, err error) {
	var body types.LoginRequestBody
	if err := ctx.ShouldBindJSON(&body); err != nil {
		return nil, http.StatusBadRequest, err
	}

	db := db.GetDb()
	var user models.User
	if err := db.
		Model(&models.User{}).
		Where(&models.User{Email: body.Email}).
		First(&user).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, http.StatusUnauthorized, errors.New("invalid email or password")
		}
		return nil, http.StatusBadRequest, err
	}
	if !user.IsActive {
		return nil, http.StatusUnauthorized, errors.New("account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(body.Password)); err != nil {
		return nil, http.StatusUnauthorized, errors.New("invalid email or password")
	}

	jwt, err := utils.GenerateJWT(user.Email, user.ID, user.IsHost)
	if err != nil {
		log.Printf("Error generating JWT for user [%d]: %s\n", user.ID, err.Error())
		return nil, http.StatusInternalServerError, errors.New("could not issue token")
	}
	return &jwt, http.StatusOK, nil
}
