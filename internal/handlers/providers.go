package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *APIStore) sendNotImplemented(c *gin.Context, provider string) {
	a.sendAPIStoreError(c, http.StatusNotImplemented, fmt.Sprintf("%s sandbox provisioning is not implemented", provider))
}

func (a *APIStore) PostApiV1AwsCreate(c *gin.Context) {
	a.sendNotImplemented(c, "AWS")
}

func (a *APIStore) DeleteApiV1AwsDelete(c *gin.Context) {
	a.sendNotImplemented(c, "AWS")
}

func (a *APIStore) PostApiV1AzureCreate(c *gin.Context) {
	a.sendNotImplemented(c, "Azure")
}

func (a *APIStore) DeleteApiV1AzureDelete(c *gin.Context) {
	a.sendNotImplemented(c, "Azure")
}
