package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type errorExtensions struct {
	Category  string   `json:"category"`
	Code      string   `json:"code"`
	ProductID string   `json:"productId,omitempty"`
	Missing   []string `json:"missingAttributes,omitempty"`
	Debug     string   `json:"debugMessage,omitempty"`
}

type errorEntry struct {
	Message    string          `json:"message"`
	Extensions errorExtensions `json:"extensions"`
}

type errorPayload struct {
	Errors []errorEntry `json:"errors"`
}

const internalMessage = "Internal server error"

// writeError renders err in the error envelope with its status.
// Internal and unrecognized errors keep their category and code but hide the message unless debug is on.
func (h *handler) writeError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = &domain.Error{
			Category: domain.CategoryInternal,
			Code:     domain.CodeInternal,
			Status:   http.StatusInternalServerError,
			Message:  err.Error(),
		}
	}

	entry := errorEntry{
		Message: de.Message,
		Extensions: errorExtensions{
			Category:  string(de.Category),
			Code:      de.Code,
			ProductID: de.ProductID,
			Missing:   de.Attributes,
		},
	}
	if de.Category == domain.CategoryInternal {
		entry.Message = internalMessage
		if h.debug {
			entry.Message = de.Message
			entry.Extensions.Debug = err.Error()
		}
	}

	fields := logrus.Fields{"code": de.Code, "status": de.Status, "path": c.FullPath()}
	if de.Status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(fields).Error("request failed")
	} else {
		h.logger.WithFields(fields).Info(de.Message)
	}

	c.AbortWithStatusJSON(de.Status, errorPayload{Errors: []errorEntry{entry}})
}
