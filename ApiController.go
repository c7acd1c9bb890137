package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/henrika2/spreadsheet/contracts"
	"github.com/henrika2/spreadsheet/engine"
)

type ApiController struct {
	SheetRepository   contracts.SheetRepository
	WebhookDispatcher contracts.WebhookDispatcher
	canonicalizer     *engine.NameCanonicalizer
}

type CellEndpointParams struct {
	SheetId string `uri:"sheet_id" binding:"required"`
	CellId  string `uri:"cell_id" binding:"required"`
}

type SheetEndpointParams struct {
	SheetId string `uri:"sheet_id" binding:"required"`
}

// SetCellRequest.Value is a pointer so that an empty value, which clears the cell, passes `required`
type SetCellRequest struct {
	Value *string `json:"value" binding:"required"`
}

type SubscribeRequest struct {
	WebhookUrl string `json:"webhook_url"`
}

func NewApiController(sheetRepository contracts.SheetRepository, webhookDispatcher contracts.WebhookDispatcher) *ApiController {
	return &ApiController{
		SheetRepository:   sheetRepository,
		WebhookDispatcher: webhookDispatcher,
		canonicalizer:     engine.NewNameCanonicalizer(),
	}
}

func (api *ApiController) GetCellAction(c *gin.Context) {
	params := CellEndpointParams{}
	var response *contracts.CellView

	err := c.ShouldBindUri(&params)

	if err == nil {
		response, err = api.SheetRepository.GetCell(params.SheetId, params.CellId)
	}

	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
	} else {
		c.JSON(http.StatusOK, response)
	}
}

func (api *ApiController) SetCellAction(c *gin.Context) {
	params := CellEndpointParams{}
	request := SetCellRequest{}
	var response *contracts.CellView

	err := c.ShouldBindUri(&params)
	if err == nil {
		err = c.ShouldBindJSON(&request)
	}

	if err == nil {
		response, _, err = api.SheetRepository.SetCell(params.SheetId, params.CellId, *request.Value)
	}

	if err != nil {
		response = &contracts.CellView{Result: err.Error()}
		if request.Value != nil {
			response.Value = *request.Value
		}

		status := errorStatus(err)
		if status == http.StatusInternalServerError && !errors.Is(err, contracts.ReadWriteError) {
			// binding failures
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, response)
	} else {
		c.JSON(http.StatusCreated, response)
	}
}

func (api *ApiController) GetSheetAction(c *gin.Context) {
	params := SheetEndpointParams{}
	var response contracts.CellList

	err := c.ShouldBindUri(&params)

	if err == nil {
		response, err = api.SheetRepository.GetCellList(params.SheetId)
	}

	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
	} else {
		c.JSON(http.StatusOK, response)
	}
}

func (api *ApiController) SubscribeAction(c *gin.Context) {
	params := CellEndpointParams{}
	request := SubscribeRequest{}

	err := c.ShouldBindUri(&params)
	if err == nil {
		err = c.ShouldBindJSON(&request)
	}

	var canonicalCellId string
	if err == nil {
		canonicalCellId, err = api.canonicalizer.Canonicalize(params.CellId)
	}

	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	api.WebhookDispatcher.SetWebhookUrl(strings.ToLower(params.SheetId), canonicalCellId, request.WebhookUrl)
	c.JSON(http.StatusOK, gin.H{"webhook_url": request.WebhookUrl})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, contracts.SheetNotFoundError):
		return http.StatusNotFound
	case errors.Is(err, contracts.InvalidNameError),
		errors.Is(err, contracts.FormulaFormatError),
		errors.Is(err, contracts.CircularDependencyError):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
