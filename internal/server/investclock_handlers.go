package server

import (
	"strings"
	"time"

	"moneyshelf/internal/investclock"
	"moneyshelf/internal/models"

	"github.com/gofiber/fiber/v2"
)

const birthdateLayout = "2006-01-02"

// InvestClock handles GET and POST /api/invest-clock
// @Summary Invest clock
// @Description Projects the value of one hour today compounded to age 84. birthdate is YYYY-MM-DD; without it the age is 30.
// @Tags invest-clock
// @Accept json
// @Produce json
// @Param birthdate query string false "Birth date (YYYY-MM-DD)"
// @Success 200 {object} investclock.Result
// @Failure 400 {object} models.ErrorResponse
// @Router /invest-clock [get]
// @Router /invest-clock [post]
func (s *Server) InvestClock(c *fiber.Ctx) error {
	raw := c.Query("birthdate")
	if c.Method() == fiber.MethodPost && len(c.Body()) > 0 {
		var req struct {
			Birthdate string `json:"birthdate" form:"birthdate"`
		}
		if err := parseBody(c, &req); err != nil {
			return nil
		}
		raw = req.Birthdate
	}

	var birth *time.Time
	if raw = strings.TrimSpace(raw); raw != "" {
		t, err := time.Parse(birthdateLayout, raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("birthdate must be YYYY-MM-DD"))
		}
		birth = &t
	}

	res, err := investclock.Calculate(birth, time.Now(), investclock.DefaultParams())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}
