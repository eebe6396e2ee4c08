package controllers

import (
	"context"
	"time"

	"food-ordering-backend/database"
	"food-ordering-backend/helpers"
	"food-ordering-backend/models"
	"food-ordering-backend/restaurants"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var restaurantCollection *mongo.Collection = database.OpenCollection(database.Client, "restaurant")

var restaurantStore *restaurants.Store = restaurants.NewStore(restaurantCollection)

// RestaurantStore exposes the shared restaurant lookups for wiring the
// dispatcher and scheduler in main.
func RestaurantStore() *restaurants.Store {
	return restaurantStore
}

// CreateRestaurant registers a restaurant owned by the caller.
func CreateRestaurant() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		ownerID, appErr := callerID(c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		var restaurant models.Restaurant
		if err := c.BindJSON(&restaurant); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid request body"))
			return
		}
		if err := validate.Struct(&restaurant); err != nil {
			helpers.RespondError(c, helpers.NewAppError(400, helpers.CodeValidationError, err.Error()))
			return
		}

		now := time.Now()
		restaurant.ID = primitive.NewObjectID()
		restaurant.OwnerID = &ownerID
		restaurant.CreatedAt = now
		restaurant.UpdatedAt = now
		if restaurant.Menu == nil {
			restaurant.Menu = []models.MenuItem{}
		}
		for i := range restaurant.Menu {
			if restaurant.Menu[i].ID.IsZero() {
				restaurant.Menu[i].ID = primitive.NewObjectID()
			}
		}

		if _, err := restaurantCollection.InsertOne(ctx, restaurant); err != nil {
			helpers.RespondError(c, helpers.ErrInternal("restaurant was not created"))
			return
		}
		helpers.RespondSuccess(c, 201, "Restaurant created", gin.H{"restaurant": restaurant})
	}
}

// GetAllRestaurants lists every restaurant.
func GetAllRestaurants() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		cursor, err := restaurantCollection.Find(ctx, bson.M{})
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("error listing restaurants"))
			return
		}
		defer cursor.Close(ctx)

		restaurantList := []models.Restaurant{}
		if err := cursor.All(ctx, &restaurantList); err != nil {
			helpers.RespondError(c, helpers.ErrInternal("error decoding restaurants"))
			return
		}
		helpers.RespondSuccess(c, 200, "", gin.H{"restaurants": restaurantList})
	}
}

// GetRestaurant returns one restaurant by id.
func GetRestaurant() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid restaurant id"))
			return
		}
		restaurant, storeErr := restaurantStore.Get(ctx, id)
		if storeErr == restaurants.ErrNotFound {
			helpers.RespondError(c, helpers.ErrNotFound("restaurant not found"))
			return
		}
		if storeErr != nil {
			helpers.RespondError(c, helpers.ErrInternal("error loading restaurant"))
			return
		}
		helpers.RespondSuccess(c, 200, "", gin.H{"restaurant": restaurant})
	}
}

// GetRestaurantByOwner returns the restaurant owned by a user.
func GetRestaurantByOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		ownerID, err := primitive.ObjectIDFromHex(c.Param("userId"))
		if err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid user id"))
			return
		}
		var restaurant models.Restaurant
		dbErr := restaurantCollection.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&restaurant)
		if dbErr == mongo.ErrNoDocuments {
			helpers.RespondError(c, helpers.ErrNotFound("restaurant not found for this owner"))
			return
		}
		if dbErr != nil {
			helpers.RespondError(c, helpers.ErrInternal("error loading restaurant"))
			return
		}
		helpers.RespondSuccess(c, 200, "", gin.H{"restaurant": restaurant})
	}
}

// GetMenu returns a restaurant's menu.
func GetMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid restaurant id"))
			return
		}
		restaurant, storeErr := restaurantStore.Get(ctx, id)
		if storeErr == restaurants.ErrNotFound {
			helpers.RespondError(c, helpers.ErrNotFound("restaurant not found"))
			return
		}
		if storeErr != nil {
			helpers.RespondError(c, helpers.ErrInternal("error loading menu"))
			return
		}
		helpers.RespondSuccess(c, 200, "", gin.H{"menu": restaurant.Menu})
	}
}

// ReplaceMenu swaps the entire menu of an owned restaurant.
func ReplaceMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, appErr := ownedRestaurantID(ctx, c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		var menu []models.MenuItem
		if err := c.BindJSON(&menu); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid menu body"))
			return
		}
		for i := range menu {
			if menu[i].ID.IsZero() {
				menu[i].ID = primitive.NewObjectID()
			}
		}
		_, err := restaurantCollection.UpdateOne(ctx, bson.M{"_id": id},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "menu", Value: menu},
				{Key: "updated_at", Value: time.Now()},
			}}})
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("menu update failed"))
			return
		}
		helpers.RespondSuccess(c, 200, "Menu updated", gin.H{"menu": menu})
	}
}

// AddMenuItem appends one item to an owned restaurant's menu.
func AddMenuItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, appErr := ownedRestaurantID(ctx, c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		var item models.MenuItem
		if err := c.BindJSON(&item); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid menu item"))
			return
		}
		if err := validate.Struct(&item); err != nil {
			helpers.RespondError(c, helpers.NewAppError(400, helpers.CodeValidationError, err.Error()))
			return
		}
		item.ID = primitive.NewObjectID()

		_, err := restaurantCollection.UpdateOne(ctx, bson.M{"_id": id},
			bson.D{
				{Key: "$push", Value: bson.D{{Key: "menu", Value: item}}},
				{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
			})
		if err != nil {
			helpers.RespondError(c, helpers.ErrInternal("could not add menu item"))
			return
		}
		helpers.RespondSuccess(c, 201, "Menu item added", gin.H{"item": item})
	}
}

// UpdateMenuItem patches one menu item of an owned restaurant.
func UpdateMenuItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, appErr := ownedRestaurantID(ctx, c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
		if err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid menu item id"))
			return
		}
		var item models.MenuItem
		if err := c.BindJSON(&item); err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid menu item"))
			return
		}
		item.ID = itemID

		result, dbErr := restaurantCollection.UpdateOne(ctx,
			bson.M{"_id": id, "menu._id": itemID},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "menu.$", Value: item},
				{Key: "updated_at", Value: time.Now()},
			}}})
		if dbErr != nil {
			helpers.RespondError(c, helpers.ErrInternal("menu item update failed"))
			return
		}
		if result.MatchedCount == 0 {
			helpers.RespondError(c, helpers.ErrNotFound("menu item not found"))
			return
		}
		helpers.RespondSuccess(c, 200, "Menu item updated", gin.H{"item": item})
	}
}

// DeleteMenuItem removes one menu item from an owned restaurant.
func DeleteMenuItem() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, appErr := ownedRestaurantID(ctx, c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		itemID, err := primitive.ObjectIDFromHex(c.Param("itemId"))
		if err != nil {
			helpers.RespondError(c, helpers.ErrInvalidInput("invalid menu item id"))
			return
		}
		result, dbErr := restaurantCollection.UpdateOne(ctx, bson.M{"_id": id},
			bson.D{
				{Key: "$pull", Value: bson.D{{Key: "menu", Value: bson.D{{Key: "_id", Value: itemID}}}}},
				{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
			})
		if dbErr != nil {
			helpers.RespondError(c, helpers.ErrInternal("menu item delete failed"))
			return
		}
		if result.MatchedCount == 0 {
			helpers.RespondError(c, helpers.ErrNotFound("restaurant not found"))
			return
		}
		helpers.RespondSuccess(c, 200, "Menu item removed", nil)
	}
}

// ToggleStatus flips an owned restaurant between active and inactive.
func ToggleStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		id, appErr := ownedRestaurantID(ctx, c)
		if appErr != nil {
			helpers.RespondError(c, appErr)
			return
		}
		restaurant, err := restaurantStore.Get(ctx, id)
		if err != nil {
			helpers.RespondError(c, helpers.ErrNotFound("restaurant not found"))
			return
		}
		_, dbErr := restaurantCollection.UpdateOne(ctx, bson.M{"_id": id},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "is_active", Value: !restaurant.IsActive},
				{Key: "updated_at", Value: time.Now()},
			}}})
		if dbErr != nil {
			helpers.RespondError(c, helpers.ErrInternal("status toggle failed"))
			return
		}
		helpers.RespondSuccess(c, 200, "Status updated", gin.H{"isActive": !restaurant.IsActive})
	}
}

// ownedRestaurantID parses the :id param and verifies the caller owns it.
func ownedRestaurantID(ctx context.Context, c *gin.Context) (primitive.ObjectID, *helpers.AppError) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return primitive.NilObjectID, helpers.ErrInvalidInput("invalid restaurant id")
	}
	userID, appErr := callerID(c)
	if appErr != nil {
		return primitive.NilObjectID, appErr
	}
	owns, ownErr := restaurantStore.IsOwner(ctx, id, userID)
	if ownErr == restaurants.ErrNotFound {
		return primitive.NilObjectID, helpers.ErrNotFound("restaurant not found")
	}
	if ownErr != nil {
		return primitive.NilObjectID, helpers.ErrInternal("ownership check failed")
	}
	if !owns {
		return primitive.NilObjectID, helpers.ErrForbidden("you do not own this restaurant")
	}
	return id, nil
}
