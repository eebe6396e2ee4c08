package controllers

import (
	"context"
	"time"

	"food-ordering-backend/database"
	"food-ordering-backend/devices"
	"food-ordering-backend/helpers"
	"food-ordering-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var userCollection *mongo.Collection = database.OpenCollection(database.Client, "user")
var deviceStore *devices.Store = devices.NewStore(userCollection)
var validate = validator.New()

// DeviceStore exposes the shared device token store so main can wire the
// push transport and the expired token sweep.
func DeviceStore() *devices.Store {
	return deviceStore
}

const requestTimeout = 15 * time.Second

type registerRequest struct {
	Username     string `json:"username" validate:"required,min=2,max=100"`
	MobileNumber string `json:"mobileNumber" validate:"required,len=10,numeric"`
	Password     string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	MobileNumber string `json:"mobileNumber" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

// Register creates a customer account and returns a bearer token.
func Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req registerRequest
		if err := c.BindJSON(&req); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid request body"))
			return
		}
		if err := validate.Struct(&req); err != nil {
			helpers.RespondError(c, helpers.NewAppError(400, helpers.CodeValidationError, err.Error()))
			return
		}

		count, err := userCollection.CountDocuments(ctx, bson.M{"mobile_number": req.MobileNumber})
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("error checking mobile number"))
			return
		}
		if count > 0 {
			helpers.RespondError(c, helpers.ErrConflict("user already exists with this mobile number"))
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("could not hash password"))
			return
		}

		now := time.Now()
		user := models.User{
			ID:           primitive.NewObjectID(),
			Username:     req.Username,
			MobileNumber: req.MobileNumber,
			Password:     string(hashed),
			Role:         models.RoleUser,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := userCollection.InsertOne(ctx, user); err != nil {
			helpers.RespondError(c, helpers.ErrInternal("user was not created"))
			return
		}

		token, err := helpers.GenerateToken(user.ID.Hex(), user.Role, "")
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("could not issue token"))
			return
		}
		helpers.RespondSuccess(c, 201, "User created successfully", gin.H{"token": token, "user": user})
	}
}

// Login verifies credentials and returns a bearer token plus a user
// snapshot. Legacy scalar fcm tokens are migrated into the device list on
// the way through.
func Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var req loginRequest
		if err := c.BindJSON(&req); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid request body"))
			return
		}

		var user models.User
		err := userCollection.FindOne(ctx, bson.M{"mobile_number": req.MobileNumber}).Decode(&user)
		if err != nil {
			helpers.RespondError(c, helpers.ErrUnauthorized("invalid mobile number or password"))
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			helpers.RespondError(c, helpers.ErrUnauthorized("invalid mobile number or password"))
			return
		}

		if user.MigrateLegacyToken(time.Now()) {
			_, err = userCollection.UpdateOne(ctx, bson.M{"_id": user.ID},
				bson.D{{Key: "$set", Value: bson.D{
					{Key: "devices", Value: user.Devices},
					{Key: "updated_at", Value: time.Now()},
				}}, {Key: "$unset", Value: bson.D{
					{Key: "fcm_token", Value: ""},
					{Key: "device_type", Value: ""},
				}}})
			if err != nil {
				helpers.RespondError(c, helpers.ErrInternal("device migration failed"))
				return
			}
		}

		restaurantID := ""
		if user.RestaurantID != nil {
			restaurantID = user.RestaurantID.Hex()
		}
		token, err := helpers.GenerateToken(user.ID.Hex(), user.Role, restaurantID)
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("could not issue token"))
			return
		}
		helpers.RespondSuccess(c, 200, "Login successful", gin.H{"token": token, "user": user})
	}
}

// VerifyToken returns the snapshot of the authenticated user.
func VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		userID, err := callerID(c)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		var user models.User
		if err := userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			helpers.RespondError(c, helpers.ErrNotFound("user not found"))
			return
		}
		helpers.RespondSuccess(c, 200, "", gin.H{"user": user})
	}
}

// Logout exists for API symmetry; bearer tokens are stateless.
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		helpers.RespondSuccess(c, 200, "User logged out", nil)
	}
}

// GetProfile returns the caller's user document.
func GetProfile() gin.HandlerFunc {
	return VerifyToken()
}

type profileUpdateRequest struct {
	Username     string `json:"username"`
	MobileNumber string `json:"mobileNumber"`
	Address      string `json:"address"`
	OldPassword  string `json:"oldPassword"`
	NewPassword  string `json:"newPassword"`
}

// UpdateProfile patches the caller's username, mobile number, address and,
// given the old one, password.
func UpdateProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		userID, appErr := callerID(c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		var req profileUpdateRequest
		if err := c.BindJSON(&req); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid request body"))
			return
		}

		var updateObj primitive.D
		if req.Username != "" {
			updateObj = append(updateObj, bson.E{Key: "username", Value: req.Username})
		}
		if req.MobileNumber != "" {
			updateObj = append(updateObj, bson.E{Key: "mobile_number", Value: req.MobileNumber})
		}
		if req.Address != "" {
			updateObj = append(updateObj, bson.E{Key: "address", Value: req.Address})
		}
		if req.OldPassword != "" && req.NewPassword != "" {
			var user models.User
			if err := userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
				helpers.RespondError(c, helpers.ErrNotFound("user not found"))
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
				helpers.RespondError(c, helpers.ErrInvalidInput("old password is incorrect"))
				return
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
			if err != nil {
				helpers.RespondError(c, helpers.ErrInternal("could not hash password"))
				return
			}
			updateObj = append(updateObj, bson.E{Key: "password", Value: string(hashed)})
		}
		updateObj = append(updateObj, bson.E{Key: "updated_at", Value: time.Now()})

		result, err := userCollection.UpdateOne(ctx, bson.M{"_id": userID},
			bson.D{{Key: "$set", Value: updateObj}})
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("profile update failed"))
			return
		}
		if result.MatchedCount == 0 {
			helpers.RespondError(c, helpers.ErrNotFound("user not found"))
			return
		}
		helpers.RespondSuccess(c, 200, "Profile updated successfully", nil)
	}
}

// UpdateAddress replaces the caller's delivery address.
func UpdateAddress() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		userID, appErr := callerID(c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		var req struct {
			Address string `json:"address" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("address is required"))
			return
		}
		result, dbErr := userCollection.UpdateOne(ctx, bson.M{"_id": userID},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "address", Value: req.Address},
				{Key: "updated_at", Value: time.Now()},
			}}})
		if dbErr != nil {
			helpers.RespondError(c, helpers.ErrInternal("address update failed"))
			return
		}
		if result.MatchedCount == 0 {
			helpers.RespondError(c, helpers.ErrNotFound("user not found"))
			return
		}
		helpers.RespondSuccess(c, 200, "Address updated successfully", nil)
	}
}

type assignRoleRequest struct {
	Role         string `json:"role" validate:"required,oneof=user restaurant admin"`
	RestaurantID string `json:"restaurantId"`
}

// AssignRole changes a user's role. Granting "restaurant" rewires the
// restaurant's owner and the user's back-reference inside one session so the
// two documents cannot drift apart.
func AssignRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
		if err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid user id"))
			return
		}
		var req assignRoleRequest
		if err := c.BindJSON(&req); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid request body"))
			return
		}
		if err := validate.Struct(&req); err != nil {
			helpers.RespondError(c, helpers.NewAppError(400, helpers.CodeValidationError, err.Error()))
			return
		}

		if req.Role != models.RoleRestaurant {
			result, dbErr := userCollection.UpdateOne(ctx, bson.M{"_id": userID},
				bson.D{{Key: "$set", Value: bson.D{
					{Key: "role", Value: req.Role},
					{Key: "updated_at", Value: time.Now()},
				}}})
			if dbErr != nil || result.MatchedCount == 0 {
				helpers.RespondError(c, helpers.ErrNotFound("user not found"))
				return
			}
			helpers.RespondSuccess(c, 200, "Role assigned successfully", nil)
			return
		}

		restaurantID, err := primitive.ObjectIDFromHex(req.RestaurantID)
		if err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("restaurantId is required for the restaurant role"))
			return
		}

		session, err := userCollection.Database().Client().StartSession()
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("could not start session"))
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			restaurants := database.OpenCollection(database.Client, "restaurant")
			result, err := restaurants.UpdateOne(sc, bson.M{"_id": restaurantID},
				bson.D{{Key: "$set", Value: bson.D{
					{Key: "owner_id", Value: userID},
					{Key: "updated_at", Value: time.Now()},
				}}})
			if err != nil {
				return nil, err
			}
			if result.MatchedCount == 0 {
				return nil, helpers.ErrNotFound("restaurant not found")
			}
			result, err = userCollection.UpdateOne(sc, bson.M{"_id": userID},
				bson.D{{Key: "$set", Value: bson.D{
					{Key: "role", Value: models.RoleRestaurant},
					{Key: "restaurant_id", Value: restaurantID},
					{Key: "updated_at", Value: time.Now()},
				}}})
			if err != nil {
				return nil, err
			}
			if result.MatchedCount == 0 {
				return nil, helpers.ErrNotFound("user not found")
			}
			return nil, nil
		})
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		helpers.RespondSuccess(c, 200, "Role assigned successfully", nil)
	}
}

type deviceTokenRequest struct {
	Token string            `json:"token" validate:"required"`
	Kind  string            `json:"kind" validate:"omitempty,oneof=android ios web unknown"`
	Info  map[string]string `json:"info"`
}

// RegisterDeviceToken upserts a push endpoint for the caller.
func RegisterDeviceToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		userID, appErr := callerID(c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		var req deviceTokenRequest
		if err := c.BindJSON(&req); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid request body"))
			return
		}
		if err := validate.Struct(&req); err != nil {
			helpers.RespondError(c, helpers.NewAppError(400, helpers.CodeValidationError, err.Error()))
			return
		}

		err := deviceStore.UpsertDevice(ctx, userID, models.Device{
			Token: req.Token,
			Kind:  req.Kind,
			Info:  req.Info,
		})
		if err == devices.ErrUserNotFound {
			helpers.RespondError(c, helpers.ErrNotFound("user not found"))
			return
		}
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("could not register device"))
			return
		}
		helpers.RespondSuccess(c, 200, "Device registered", nil)
	}
}

// RemoveDeviceToken deletes one push endpoint of the caller.
func RemoveDeviceToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		userID, appErr := callerID(c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		var req struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("token is required"))
			return
		}
		if err := deviceStore.RemoveToken(ctx, userID, req.Token); err != nil {
			helpers.RespondError(c, helpers.ErrInternal("could not remove device"))
			return
		}
		helpers.RespondSuccess(c, 200, "Device removed", nil)
	}
}

// callerID extracts the authenticated user's object id from the context.
func callerID(c *gin.Context) (primitive.ObjectID, *helpers.AppError) {
	id, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		return primitive.NilObjectID, helpers.ErrUnauthorized("invalid token subject")
	}
	return id, nil
}
