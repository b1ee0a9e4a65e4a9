package server

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"moneyshelf/internal/models"
	"moneyshelf/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListShelves handles GET /api/bookshelf/shelves
// @Summary List shelf names
// @Tags bookshelf
// @Produce json
// @Success 200 {array} string
// @Router /bookshelf/shelves [get]
func (s *Server) ListShelves(c *fiber.Ctx) error {
	return c.JSON(s.bookshelfService.ShelfNames())
}

// SearchBooks handles GET /api/bookshelf/search
// @Summary Search books
// @Description Searches Rakuten Books, falling back to Open Library. With lat and lon, nearby libraries are attached.
// @Tags bookshelf
// @Produce json
// @Param title query string true "Title"
// @Param lat query number false "Latitude"
// @Param lon query number false "Longitude"
// @Success 200 {array} models.Book
// @Failure 400 {object} models.ErrorResponse
// @Router /bookshelf/search [get]
func (s *Server) SearchBooks(c *fiber.Ctx) error {
	loc, err := parseLocation(c.Query("lat"), c.Query("lon"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	books, err := s.bookshelfService.Search(c.UserContext(), c.Query("title"), loc)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(books)
}

// parseLocation returns nil unless both coordinates are present.
func parseLocation(lat, lon string) (*service.Location, error) {
	lat, lon = strings.TrimSpace(lat), strings.TrimSpace(lon)
	if lat == "" || lon == "" {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil || la < -90 || la > 90 {
		return nil, models.NewValidationError("Invalid latitude")
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil || lo < -180 || lo > 180 {
		return nil, models.NewValidationError("Invalid longitude")
	}
	return &service.Location{Lat: la, Lon: lo}, nil
}

// GetMyShelf handles GET /api/bookshelf/my
// @Summary Get my shelf
// @Tags bookshelf
// @Produce json
// @Success 200 {array} models.Book
// @Router /bookshelf/my [get]
func (s *Server) GetMyShelf(c *fiber.Ctx) error {
	books, err := s.bookshelfService.MyShelf(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(books)
}

// AddToMyShelf handles POST /api/bookshelf/my
// @Summary Add a book to my shelf
// @Description Adding a title that is already shelved leaves a single entry.
// @Tags bookshelf
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param book body models.Book true "Book"
// @Success 200 {array} models.Book
// @Failure 400 {object} models.ErrorResponse
// @Router /bookshelf/my [post]
func (s *Server) AddToMyShelf(c *fiber.Ctx) error {
	var book models.Book
	if err := parseBody(c, &book); err != nil {
		return nil
	}
	books, err := s.bookshelfService.AddToMyShelf(c.UserContext(), book)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(books)
}

// RemoveFromMyShelf handles DELETE /api/bookshelf/my?title=...
// @Summary Remove a book from my shelf
// @Tags bookshelf
// @Produce json
// @Security BearerAuth
// @Param title query string true "Title"
// @Success 200 {array} models.Book
// @Router /bookshelf/my [delete]
func (s *Server) RemoveFromMyShelf(c *fiber.Ctx) error {
	books, err := s.bookshelfService.RemoveFromMyShelf(c.UserContext(), c.Query("title"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(books)
}

// GetShelfPage handles GET /api/bookshelf/shelf/:name
// @Summary Get a shelf page
// @Tags bookshelf
// @Produce json
// @Param name path string true "Shelf name"
// @Success 200 {object} service.ShelfPage
// @Failure 404 {object} models.ErrorResponse
// @Router /bookshelf/shelf/{name} [get]
func (s *Server) GetShelfPage(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid shelf name"))
	}
	page, err := s.bookshelfService.ShelfPage(c.UserContext(), name)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// Recommend handles GET /api/bookshelf/recommend?history=[...]
// @Summary Recommend books
// @Description history is a JSON array of books the reader has seen.
// @Tags bookshelf
// @Produce json
// @Param history query string false "JSON array of books"
// @Success 200 {array} models.Book
// @Failure 400 {object} models.ErrorResponse
// @Router /bookshelf/recommend [get]
func (s *Server) Recommend(c *fiber.Ctx) error {
	var history []models.Book
	if raw := c.Query("history"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("history must be a JSON array of books"))
		}
	}
	return c.JSON(s.bookshelfService.Recommend(c.UserContext(), history))
}
