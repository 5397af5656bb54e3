package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Create a sandbox project
	// (POST /api/v1/gcp/create)
	PostApiV1GcpCreate(c *gin.Context)
	// Delete a sandbox project
	// (DELETE /api/v1/gcp/delete/{project_id})
	DeleteApiV1GcpDeleteProjectId(c *gin.Context, projectId string, params DeleteGcpSandboxParams)
	// Extend a sandbox project's expiry
	// (POST /api/v1/gcp/extend)
	PostApiV1GcpExtend(c *gin.Context)
	// Create an AWS sandbox
	// (POST /api/v1/aws/create)
	PostApiV1AwsCreate(c *gin.Context)
	// Delete an AWS sandbox
	// (DELETE /api/v1/aws/delete)
	DeleteApiV1AwsDelete(c *gin.Context)
	// Create an Azure sandbox
	// (POST /api/v1/azure/create)
	PostApiV1AzureCreate(c *gin.Context)
	// Delete an Azure sandbox
	// (DELETE /api/v1/azure/delete)
	DeleteApiV1AzureDelete(c *gin.Context)
}

// Providers selects which provider route groups are mounted.
type Providers struct {
	GCP   bool
	AWS   bool
	Azure bool
}

// GinServerOptions provides options for the Gin server.
type GinServerOptions struct {
	BaseURL      string
	Providers    Providers
	Middlewares  []gin.HandlerFunc
	ErrorHandler func(*gin.Context, error, int)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler      ServerInterface
	ErrorHandler func(*gin.Context, error, int)
}

// DeleteApiV1GcpDeleteProjectId operation middleware
func (siw *ServerInterfaceWrapper) DeleteApiV1GcpDeleteProjectId(c *gin.Context) {
	var err error

	// ------------- Path parameter "project_id" -------------
	var projectId string

	err = runtime.BindStyledParameterWithOptions("simple", "project_id", c.Param("project_id"), &projectId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter project_id: %w", err), http.StatusBadRequest)

		return
	}

	// Parameter object where we will unmarshal all parameters from the context
	var params DeleteGcpSandboxParams

	headers := c.Request.Header

	// ------------- Optional header parameter "X-CloudTasks-TaskName" -------------
	if valueList, found := headers[http.CanonicalHeaderKey("X-CloudTasks-TaskName")]; found {
		var XCloudTasksTaskName string
		n := len(valueList)
		if n != 1 {
			siw.ErrorHandler(c, fmt.Errorf("Expected one value for X-CloudTasks-TaskName, got %d", n), http.StatusBadRequest)

			return
		}

		err = runtime.BindStyledParameterWithOptions("simple", "X-CloudTasks-TaskName", valueList[0], &XCloudTasksTaskName, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Explode: false, Required: false})
		if err != nil {
			siw.ErrorHandler(c, fmt.Errorf("Invalid format for parameter X-CloudTasks-TaskName: %w", err), http.StatusBadRequest)

			return
		}

		if XCloudTasksTaskName != "" {
			params.XCloudTasksTaskName = &XCloudTasksTaskName
		}
	}

	siw.Handler.DeleteApiV1GcpDeleteProjectId(c, projectId, params)
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router gin.IRouter, si ServerInterface, options GinServerOptions) {
	errorHandler := options.ErrorHandler
	if errorHandler == nil {
		errorHandler = func(c *gin.Context, err error, statusCode int) {
			c.JSON(statusCode, gin.H{"msg": err.Error()})
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:      si,
		ErrorHandler: errorHandler,
	}

	group := router.Group(options.BaseURL+"/api/v1", options.Middlewares...)

	if options.Providers.GCP {
		group.POST("/gcp/create", si.PostApiV1GcpCreate)
		group.DELETE("/gcp/delete/:project_id", wrapper.DeleteApiV1GcpDeleteProjectId)
		group.POST("/gcp/extend", si.PostApiV1GcpExtend)
	}

	if options.Providers.AWS {
		group.POST("/aws/create", si.PostApiV1AwsCreate)
		group.DELETE("/aws/delete", si.DeleteApiV1AwsDelete)
	}

	if options.Providers.Azure {
		group.POST("/azure/create", si.PostApiV1AzureCreate)
		group.DELETE("/azure/delete", si.DeleteApiV1AzureDelete)
	}
}
