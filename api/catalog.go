package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/krishna9325/Car-Rental/internal/domain"
	"github.com/krishna9325/Car-Rental/internal/service/catalog"
)

type CatalogHandler struct {
	service catalog.CatalogUseCase
}

func NewCatalogHandler(service catalog.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterPublic mounts the read-only storefront routes.
func (h *CatalogHandler) RegisterPublic(router *gin.RouterGroup) {
	router.GET("/cities", h.listCities)
	router.GET("/cities/:id/cars", h.listCarsByCity)
	router.GET("/cars", h.listCars)
	router.GET("/cars/:id", h.getCar)
}

// RegisterAdmin mounts catalog management routes. Callers guard the group.
func (h *CatalogHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.POST("/cities", h.createCity)
	router.PUT("/cities/:id", h.updateCity)
	router.DELETE("/cities/:id", h.deleteCity)
	router.POST("/cars", h.createCar)
	router.PUT("/cars/:id", h.updateCar)
	router.DELETE("/cars/:id", h.deleteCar)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortBadRequest(c, domain.Invalidf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func (h *CatalogHandler) listCities(c *gin.Context) {
	cities, err := h.service.ListCities(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}

func (h *CatalogHandler) listCars(c *gin.Context) {
	cars, err := h.service.ListCars(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cars)
}

func (h *CatalogHandler) listCarsByCity(c *gin.Context) {
	cityID, ok := pathID(c)
	if !ok {
		return
	}
	onlyAvailable := c.Query("available") == "true"

	cars, err := h.service.ListCarsByCity(c.Request.Context(), cityID, onlyAvailable)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cars)
}

func (h *CatalogHandler) getCar(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	car, err := h.service.GetCar(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, car)
}

func (h *CatalogHandler) createCity(c *gin.Context) {
	var city domain.City
	if err := c.ShouldBindJSON(&city); err != nil {
		abortBadRequest(c, err)
		return
	}
	city.ID = 0

	if err := h.service.CreateCity(c.Request.Context(), &city); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, city)
}

func (h *CatalogHandler) updateCity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var city domain.City
	if err := c.ShouldBindJSON(&city); err != nil {
		abortBadRequest(c, err)
		return
	}
	city.ID = id

	if err := h.service.UpdateCity(c.Request.Context(), &city); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, city)
}

func (h *CatalogHandler) deleteCity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCity(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) createCar(c *gin.Context) {
	var car domain.Car
	if err := c.ShouldBindJSON(&car); err != nil {
		abortBadRequest(c, err)
		return
	}
	car.ID = 0

	if err := h.service.CreateCar(c.Request.Context(), &car); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, car)
}

func (h *CatalogHandler) updateCar(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var car domain.Car
	if err := c.ShouldBindJSON(&car); err != nil {
		abortBadRequest(c, err)
		return
	}
	car.ID = id

	if err := h.service.UpdateCar(c.Request.Context(), &car); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, car)
}

func (h *CatalogHandler) deleteCar(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteCar(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
