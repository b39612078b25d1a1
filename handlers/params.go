package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"caredesk/models"

	"github.com/gin-gonic/gin"
)

// optionalRef reads professionalType/professionalId from the query string. Both absent means
// no filter; supplying only one of them is rejected.
func optionalRef(c *gin.Context) (*models.ProfessionalRef, error) {
	kind, id := c.Query("professionalType"), c.Query("professionalId")
	if kind == "" && id == "" {
		return nil, nil
	}
	ref := models.ProfessionalRef{Kind: models.ProfessionalKind(kind), ID: id}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return &ref, nil
}

func requiredRef(c *gin.Context) (models.ProfessionalRef, error) {
	ref, err := optionalRef(c)
	if err != nil {
		return models.ProfessionalRef{}, err
	}
	if ref == nil {
		return models.ProfessionalRef{}, &models.ValidationError{Field: "professionalId", Reason: "required"}
	}
	return *ref, nil
}

// pathRef reads the professional from :professionalType/:professionalId.
func pathRef(c *gin.Context) (models.ProfessionalRef, error) {
	ref := models.ProfessionalRef{
		Kind: models.ProfessionalKind(c.Param("professionalType")),
		ID:   c.Param("professionalId"),
	}
	return ref, ref.Validate()
}

func pathMonth(c *gin.Context) (models.MonthKey, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return models.MonthKey{}, &models.ValidationError{Field: "year", Reason: "must be a number"}
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return models.MonthKey{}, &models.ValidationError{Field: "month", Reason: "must be 1-12"}
	}
	return models.MonthKey{Year: year, Month: time.Month(month)}, nil
}

func queryDate(c *gin.Context, name string) (models.DateKey, error) {
	raw := c.Query(name)
	if raw == "" {
		return models.DateKey{}, &models.ValidationError{Field: name, Reason: "required"}
	}
	d, err := models.ParseDateKey(raw)
	if err != nil {
		return models.DateKey{}, &models.ValidationError{Field: name, Reason: err.Error()}
	}
	return d, nil
}

// parseWeekday accepts English day names ("monday", "Mon") or 0-6 with Sunday as 0.
func parseWeekday(s string) (time.Weekday, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, &models.ValidationError{Field: "weekday", Reason: fmt.Sprintf("invalid weekday %d", n)}
		}
		return time.Weekday(n), nil
	}
	lower := strings.ToLower(s)
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if lower == name || (len(lower) == 3 && strings.HasPrefix(name, lower)) {
			return d, nil
		}
	}
	return 0, &models.ValidationError{Field: "weekday", Reason: fmt.Sprintf("unknown weekday %q", s)}
}
