package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/eatnear/internal/core/domain"
	"github.com/samirrijal/eatnear/internal/core/usecases"
)

// SearchRestaurantsHandler returns restaurants near a point, best match first.
//
//	GET /v1/restaurants?latitude=..&longitude=..&distance=..&priceCategory=..&limit=..
//
// lat and lon are accepted as short aliases.
func SearchRestaurantsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseSearchRequest(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		results, err := deps.Search.Search(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(results)
	}
}

func parseSearchRequest(c *fiber.Ctx) (domain.SearchRequest, error) {
	var req domain.SearchRequest

	lat, err := queryFloat(c, "latitude", "lat")
	if err != nil {
		return req, err
	}
	lon, err := queryFloat(c, "longitude", "lon")
	if err != nil {
		return req, err
	}
	distance, err := queryFloat(c, "distance")
	if err != nil {
		return req, err
	}
	category, err := domain.ParsePriceCategory(c.Query("priceCategory"))
	if err != nil {
		return req, err
	}

	req.Center = domain.GeoPoint{Lat: lat, Lon: lon}
	req.RadiusMeters = distance
	req.PriceCategory = category
	req.Limit = c.QueryInt("limit", usecases.DefaultSearchLimit)
	return req, nil
}

// queryFloat reads the first present key. A missing or malformed value is an error.
func queryFloat(c *fiber.Ctx, keys ...string) (float64, error) {
	for _, k := range keys {
		raw := c.Query(k)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number, got %q", k, raw)
		}
		return v, nil
	}
	return 0, fmt.Errorf("%s is required", keys[0])
}

// ListRestaurantsHandler returns the catalog ordered by name.
func ListRestaurantsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", usecases.DefaultListLimit)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > usecases.MaxListLimit {
			limit = usecases.DefaultListLimit
		}

		items, total, err := deps.Restaurants.List(c.UserContext(), offset, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		if items == nil {
			items = []domain.Restaurant{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}

// GetRestaurantHandler returns a single restaurant by name.
func GetRestaurantHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := nameParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		r, err := deps.Restaurants.GetByName(c.UserContext(), name)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(r)
	}
}

// createRestaurantRequest is the POST body. Coordinates are pointers so a
// missing field is told apart from zero.
type createRestaurantRequest struct {
	Name       string             `json:"name"`
	Address    string             `json:"address"`
	Latitude   *float64           `json:"latitude"`
	Longitude  *float64           `json:"longitude"`
	Rating     float64            `json:"rating"`
	PriceRange *domain.PriceRange `json:"price_range"`
}

// CreateRestaurantHandler stores a new restaurant.
func CreateRestaurantHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body createRestaurantRequest
		if err := decodeStrict(c, &body); err != nil {
			return errBadRequest(c, err.Error())
		}
		if body.Latitude == nil || body.Longitude == nil {
			return errBadRequest(c, "latitude and longitude are required")
		}

		r, err := deps.Restaurants.Create(c.UserContext(), &domain.Restaurant{
			Name:       body.Name,
			Address:    body.Address,
			Location:   domain.GeoPoint{Lat: *body.Latitude, Lon: *body.Longitude},
			Rating:     body.Rating,
			PriceRange: body.PriceRange,
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/restaurants/" + url.PathEscape(r.Name))
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// UpdateRestaurantHandler applies a partial update. The name is immutable
// and rejected in the body.
func UpdateRestaurantHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := nameParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		var patch domain.RestaurantPatch
		if err := decodeStrict(c, &patch); err != nil {
			return errBadRequest(c, err.Error())
		}

		r, err := deps.Restaurants.Update(c.UserContext(), name, patch)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(r)
	}
}

// DeleteRestaurantHandler removes a restaurant and echoes the deleted record.
func DeleteRestaurantHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := nameParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		r, err := deps.Restaurants.Delete(c.UserContext(), name)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(r)
	}
}

func nameParam(c *fiber.Ctx) (string, error) {
	name := c.Params("name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return "", fmt.Errorf("name must be at least 3 characters")
	}
	return name, nil
}

// decodeStrict parses a JSON body and rejects unknown fields.
func decodeStrict(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("request body is required")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}
