package surveillance

import (
	"ForestWatch/pkg/response"
	"net/http"
)

var (
	ErrImageRead     = response.NewError(http.StatusUnprocessableEntity, "error reading image")
	ErrModelPredict  = response.NewError(http.StatusBadGateway, "person detection failed")
	ErrSaveAnnotated = response.NewError(http.StatusInternalServerError, "failed to save annotated image")
	ErrNotify        = response.NewError(http.StatusBadGateway, "failed to send notification")
)
